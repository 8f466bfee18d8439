package entity

import (
	"github.com/google/uuid"

	"shieldcore/securitystructure"
	"shieldcore/shielderr"
)

type provisionalKind int

const (
	provisionalShieldSelected provisionalKind = iota
	provisionalFactorsSelected
	provisionalInstancesDerived
	provisionalTransactionQueued
)

// Provisional is the sum type spec.md §9 calls for in place of the
// source's nested options: `ShieldSelected(id) | FactorsSelected(sources) |
// InstancesDerived(instances) | TransactionQueued(instances, intentHash)`.
// Transitions are total functions from a predecessor state to its
// successor; calling one out of order is an error rather than silently
// producing an inconsistent state.
type Provisional struct {
	kind       provisionalKind
	shieldID   uuid.UUID
	sources    securitystructure.SourceMatrix
	instances  securitystructure.InstanceMatrix
	intentHash string
}

// ShieldSelected starts the workflow: the user picked a shield (security
// structure template/config) identified by id, but no factor sources have
// been resolved yet.
func ShieldSelected(id uuid.UUID) Provisional {
	return Provisional{kind: provisionalShieldSelected, shieldID: id}
}

// ShieldID returns the selected shield's id. Only meaningful in the
// ShieldSelected state: the transitions out of it do not carry the id
// forward, so every later state returns the zero UUID.
func (p Provisional) ShieldID() uuid.UUID { return p.shieldID }

// IsShieldSelected reports whether p is in the ShieldSelected state.
func (p Provisional) IsShieldSelected() bool { return p.kind == provisionalShieldSelected }

// SelectFactors transitions ShieldSelected → FactorsSelected once concrete
// factor sources have been chosen for every role.
func (p Provisional) SelectFactors(sources securitystructure.SourceMatrix) (Provisional, error) {
	if p.kind != provisionalShieldSelected {
		return Provisional{}, shielderr.New(shielderr.KindInvalidCacheState, "SelectFactors requires the ShieldSelected state")
	}
	return Provisional{kind: provisionalFactorsSelected, sources: sources}, nil
}

// Sources returns the selected factor-source matrix. Only meaningful in
// FactorsSelected.
func (p Provisional) Sources() (securitystructure.SourceMatrix, bool) {
	if p.kind != provisionalFactorsSelected {
		return securitystructure.SourceMatrix{}, false
	}
	return p.sources, true
}

// DeriveInstances transitions FactorsSelected → InstancesDerived once the
// provider has turned the chosen sources into concrete instances.
func (p Provisional) DeriveInstances(instances securitystructure.InstanceMatrix) (Provisional, error) {
	if p.kind != provisionalFactorsSelected {
		return Provisional{}, shielderr.New(shielderr.KindInvalidCacheState, "DeriveInstances requires the FactorsSelected state")
	}
	return Provisional{kind: provisionalInstancesDerived, instances: instances}, nil
}

// Instances returns the derived instance matrix. Meaningful in
// InstancesDerived and TransactionQueued.
func (p Provisional) Instances() (securitystructure.InstanceMatrix, bool) {
	if p.kind != provisionalInstancesDerived && p.kind != provisionalTransactionQueued {
		return securitystructure.InstanceMatrix{}, false
	}
	return p.instances, true
}

// QueueTransaction transitions InstancesDerived → TransactionQueued once a
// manifest built from instances has been submitted, recording its intent
// hash.
func (p Provisional) QueueTransaction(intentHash string) (Provisional, error) {
	if p.kind != provisionalInstancesDerived {
		return Provisional{}, shielderr.New(shielderr.KindInvalidCacheState, "QueueTransaction requires the InstancesDerived state")
	}
	return Provisional{kind: provisionalTransactionQueued, instances: p.instances, intentHash: intentHash}, nil
}

// IntentHash returns the queued transaction's intent hash. Only meaningful
// in TransactionQueued.
func (p Provisional) IntentHash() (string, bool) {
	if p.kind != provisionalTransactionQueued {
		return "", false
	}
	return p.intentHash, true
}
