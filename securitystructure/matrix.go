// Package securitystructure implements the security-structure model
// (spec.md §4.8): the primary/recovery/confirmation role matrix over
// factor sources or factor instances, template materialization, and the
// sources→instances fulfillment transform.
package securitystructure

import (
	"time"

	"shieldcore/derivation"
	"shieldcore/factorsources"
	"shieldcore/shielderr"
)

// ThresholdKind discriminates a role's threshold requirement.
type ThresholdKind int

const (
	ThresholdAll ThresholdKind = iota
	ThresholdSpecific
)

// Threshold is `All | Specific(n)` (spec.md §3).
type Threshold struct {
	Kind ThresholdKind
	N    uint32
}

// AllThreshold requires every threshold factor.
func AllThreshold() Threshold { return Threshold{Kind: ThresholdAll} }

// SpecificThreshold requires at least n of the threshold factors.
func SpecificThreshold(n uint32) Threshold { return Threshold{Kind: ThresholdSpecific, N: n} }

// Role is one of primary/recovery/confirmation: a threshold requirement
// over threshold_factors, plus override_factors that each independently
// satisfy the role (spec.md §3, §4.10 "OR-combining the override_factors
// ... with a threshold-AND of the threshold_factors").
type Role[T comparable] struct {
	Threshold        Threshold
	ThresholdFactors []T
	OverrideFactors  []T
}

func (r Role[T]) validateNoDuplicates() error {
	seen := make(map[T]bool, len(r.ThresholdFactors)+len(r.OverrideFactors))
	for _, f := range r.ThresholdFactors {
		if seen[f] {
			return shielderr.New(shielderr.KindDuplicateFactorSourceInRole, "factor appears more than once in role")
		}
		seen[f] = true
	}
	for _, f := range r.OverrideFactors {
		if seen[f] {
			return shielderr.New(shielderr.KindDuplicateFactorSourceInRole, "factor appears more than once in role")
		}
		seen[f] = true
	}
	return nil
}

// all returns every factor referenced by the role, threshold then override.
func (r Role[T]) all() []T {
	out := make([]T, 0, len(r.ThresholdFactors)+len(r.OverrideFactors))
	out = append(out, r.ThresholdFactors...)
	out = append(out, r.OverrideFactors...)
	return out
}

// Matrix is the security structure: the three roles, the timed-recovery
// delay, and the authentication-signing factor (spec.md §3).
type Matrix[T comparable] struct {
	Primary                                Role[T]
	Recovery                                Role[T]
	Confirmation                            Role[T]
	TimeUntilDelayedConfirmationIsCallable time.Duration
	AuthenticationSigningFactor            T
}

// SourceMatrix is a security structure of factor source ids.
type SourceMatrix = Matrix[factorsources.ID]

// InstanceMatrix is a security structure of factor instances.
type InstanceMatrix = Matrix[factorsources.FactorInstance]

func (m Matrix[T]) validateRoles() error {
	if err := m.Primary.validateNoDuplicates(); err != nil {
		return err
	}
	if err := m.Recovery.validateNoDuplicates(); err != nil {
		return err
	}
	if err := m.Confirmation.validateNoDuplicates(); err != nil {
		return err
	}
	return nil
}

// NewSourceMatrix validates and builds a security structure of factor
// source ids.
func NewSourceMatrix(primary, recovery, confirmation Role[factorsources.ID], delay time.Duration, auth factorsources.ID) (SourceMatrix, error) {
	m := SourceMatrix{Primary: primary, Recovery: recovery, Confirmation: confirmation, TimeUntilDelayedConfirmationIsCallable: delay, AuthenticationSigningFactor: auth}
	if err := m.validateRoles(); err != nil {
		return SourceMatrix{}, err
	}
	return m, nil
}

// NewInstanceMatrix validates and builds a security structure of factor
// instances for entityKind, enforcing spec.md §3's instance invariants:
// every transaction-signing instance shares (network, entity_kind,
// key_space=Securified); the authentication instance is securified,
// authentication-signing, and shares the entity kind.
func NewInstanceMatrix(primary, recovery, confirmation Role[factorsources.FactorInstance], delay time.Duration, auth factorsources.FactorInstance, entityKind derivation.EntityKind) (InstanceMatrix, error) {
	m := InstanceMatrix{Primary: primary, Recovery: recovery, Confirmation: confirmation, TimeUntilDelayedConfirmationIsCallable: delay, AuthenticationSigningFactor: auth}
	if err := m.validateRoles(); err != nil {
		return InstanceMatrix{}, err
	}

	authPath, err := auth.DerivationPath()
	if err != nil {
		return InstanceMatrix{}, shielderr.Wrap(shielderr.KindMissingRolaKeyForSecurityStructureOfFactorInstances, err, "authentication signing factor instance")
	}
	if authPath.KeyKind() != derivation.KeyKindAuthenticationSigning {
		return InstanceMatrix{}, shielderr.New(shielderr.KindWrongKeyKindOfAuthenticationSigningFactorInstance, "authentication signing factor instance is not an authentication-signing key")
	}
	if !auth.IsSecurified() {
		return InstanceMatrix{}, shielderr.New(shielderr.KindAuthenticationSigningFactorInstanceNotSecurified, "authentication signing factor instance is not securified")
	}
	if authPath.EntityKind() != entityKind {
		return InstanceMatrix{}, shielderr.New(shielderr.KindSecurityStructureOfFactorInstancesEntityDiscrepancyInEntityKind, "authentication signing factor instance entity kind mismatch")
	}

	network := authPath.NetworkID()
	txInstances := append(append(m.Primary.all(), m.Recovery.all()...), m.Confirmation.all()...)
	if len(txInstances) == 0 {
		return InstanceMatrix{}, shielderr.New(shielderr.KindNoTransactionSigningFactorInstance, "security structure has no transaction-signing instances")
	}
	for _, inst := range txInstances {
		path, err := inst.DerivationPath()
		if err != nil {
			return InstanceMatrix{}, shielderr.Wrap(shielderr.KindWrongKeyKindOfTransactionSigningFactorInstance, err, "role instance")
		}
		if path.KeyKind() != derivation.KeyKindTransactionSigning {
			return InstanceMatrix{}, shielderr.New(shielderr.KindWrongKeyKindOfTransactionSigningFactorInstance, "role instance is not a transaction-signing key")
		}
		if !inst.IsSecurified() {
			return InstanceMatrix{}, shielderr.New(shielderr.KindWrongKeyKindOfTransactionSigningFactorInstance, "role instance is not securified")
		}
		if path.EntityKind() != entityKind {
			return InstanceMatrix{}, shielderr.New(shielderr.KindWrongEntityKindOfInFactorInstancesPath, "role instance entity kind mismatch")
		}
		if path.NetworkID() != network {
			return InstanceMatrix{}, shielderr.New(shielderr.KindWrongEntityKindOfInFactorInstancesPath, "role instance network mismatch")
		}
	}

	return m, nil
}
