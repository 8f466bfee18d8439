// Package entity implements the per-entity security state (spec.md §4.9):
// accounts and personas, their Unsecured/Securified discriminated state,
// and the provisional re-securification workflow.
package entity

import (
	"shieldcore/addressing"
	"shieldcore/derivation"
	"shieldcore/factorsources"
	"shieldcore/securitystructure"
	"shieldcore/shielderr"
)

// UnsecuredControl is the security state of an entity controlled by a
// single factor instance pair, the legacy (non-multi-factor) mode.
type UnsecuredControl struct {
	TransactionSigning    factorsources.FactorInstance
	AuthenticationSigning *factorsources.FactorInstance
}

// SecurifiedControl is the security state of an entity protected by an
// access controller and a security structure of instances.
type SecurifiedControl struct {
	// Veci is the "virtual entity creating instance": the instance that
	// originally controlled the entity before securification, retained so
	// it can still authorize recovery transactions. Must not be securified
	// (spec.md §3 invariant "veci in Securified MUST NOT be in securified
	// key-space").
	Veci                    *factorsources.FactorInstance
	AccessControllerAddress addressing.Address
	Structure               securitystructure.InstanceMatrix
	Provisional             *Provisional
}

type stateKind int

const (
	stateUnsecured stateKind = iota
	stateSecurified
)

// SecurityState is the tagged union `Unsecured | Securified` of spec.md
// §3. Mutation is restricted to replacing the provisional slot,
// transitioning Unsecured→Securified, or replacing a Securified payload
// wholesale (spec.md §4.9) — there is no setter that mutates a live
// structure of instances in place.
type SecurityState struct {
	kind       stateKind
	unsecured  UnsecuredControl
	securified SecurifiedControl
}

// NewUnsecuredState builds an Unsecured security state.
func NewUnsecuredState(control UnsecuredControl) SecurityState {
	return SecurityState{kind: stateUnsecured, unsecured: control}
}

// NewSecurifiedState builds a Securified security state, enforcing that a
// present Veci is not itself securified.
func NewSecurifiedState(control SecurifiedControl) (SecurityState, error) {
	if control.Veci != nil && control.Veci.IsSecurified() {
		return SecurityState{}, shielderr.New(shielderr.KindWrongKeyKindOfTransactionSigningFactorInstance, "veci instance must not be in securified key space")
	}
	return SecurityState{kind: stateSecurified, securified: control}, nil
}

// IsSecurified reports which variant s holds.
func (s SecurityState) IsSecurified() bool { return s.kind == stateSecurified }

// AsUnsecured returns the Unsecured control and true if s holds one.
func (s SecurityState) AsUnsecured() (UnsecuredControl, bool) {
	if s.kind != stateUnsecured {
		return UnsecuredControl{}, false
	}
	return s.unsecured, true
}

// AsSecurified returns the Securified control and true if s holds one.
func (s SecurityState) AsSecurified() (SecurifiedControl, bool) {
	if s.kind != stateSecurified {
		return SecurifiedControl{}, false
	}
	return s.securified, true
}

// WithProvisional returns a copy of s with its provisional slot replaced.
// Only defined for the Securified variant, since the provisional workflow
// exists to carry a pending re-securification (spec.md §4.9 "replacing the
// provisional slot").
func (s SecurityState) WithProvisional(p *Provisional) (SecurityState, error) {
	if s.kind != stateSecurified {
		return SecurityState{}, shielderr.New(shielderr.KindInvalidCacheState, "provisional slot only exists on a Securified security state")
	}
	next := s.securified
	next.Provisional = p
	return SecurityState{kind: stateSecurified, securified: next}, nil
}

// Entity is an Account or Persona (spec.md §3). Kind distinguishes which;
// both share the same security-state shape.
type Entity struct {
	Kind        derivation.EntityKind
	Network     addressing.NetworkID
	Address     addressing.Address
	DisplayName string
	State       SecurityState
}

// NewAccount builds an unsecurified or securified Account entity.
func NewAccount(network addressing.NetworkID, address addressing.Address, displayName string, state SecurityState) Entity {
	return Entity{Kind: derivation.EntityKindAccount, Network: network, Address: address, DisplayName: displayName, State: state}
}

// NewPersona builds an unsecurified or securified Persona entity.
func NewPersona(network addressing.NetworkID, address addressing.Address, displayName string, state SecurityState) Entity {
	return Entity{Kind: derivation.EntityKindIdentity, Network: network, Address: address, DisplayName: displayName, State: state}
}

// Securify transitions e from Unsecured to Securified by replacing the
// whole security-state variant (spec.md §4.9 "transitioning
// Unsecured → Securified by replacing the whole variant"). It is an error
// to call this on an already-securified entity; use Resecurify instead.
func (e *Entity) Securify(control SecurifiedControl) error {
	if e.State.IsSecurified() {
		return shielderr.New(shielderr.KindInvalidCacheState, "entity is already securified; use Resecurify")
	}
	next, err := NewSecurifiedState(control)
	if err != nil {
		return err
	}
	e.State = next
	return nil
}

// Resecurify replaces an already-securified entity's Securified payload
// wholesale (spec.md §4.9 "re-securifying by replacing the Securified
// payload").
func (e *Entity) Resecurify(control SecurifiedControl) error {
	if !e.State.IsSecurified() {
		return shielderr.New(shielderr.KindInvalidCacheState, "entity is not securified; use Securify")
	}
	next, err := NewSecurifiedState(control)
	if err != nil {
		return err
	}
	e.State = next
	return nil
}

// UniqueAllFactorInstances returns every distinct factor instance e's
// security state references, including the authentication-signing one for
// a securified entity (spec.md §4.9 "callers rely on this for
// de-duplication during signing").
func (e Entity) UniqueAllFactorInstances() []factorsources.FactorInstance {
	seen := make(map[string]bool)
	var out []factorsources.FactorInstance
	add := func(fi factorsources.FactorInstance) {
		key := instanceKey(fi)
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, fi)
	}

	if u, ok := e.State.AsUnsecured(); ok {
		add(u.TransactionSigning)
		if u.AuthenticationSigning != nil {
			add(*u.AuthenticationSigning)
		}
		return out
	}

	s, ok := e.State.AsSecurified()
	if !ok {
		return out
	}
	if s.Veci != nil {
		add(*s.Veci)
	}
	for _, role := range []securitystructure.Role[factorsources.FactorInstance]{s.Structure.Primary, s.Structure.Recovery, s.Structure.Confirmation} {
		for _, fi := range role.ThresholdFactors {
			add(fi)
		}
		for _, fi := range role.OverrideFactors {
			add(fi)
		}
	}
	add(s.Structure.AuthenticationSigningFactor)
	return out
}

func instanceKey(fi factorsources.FactorInstance) string {
	if path, err := fi.DerivationPath(); err == nil {
		return fi.FactorSourceID.String() + "|" + path.String()
	}
	return fi.FactorSourceID.String() + "|opaque"
}

// HighestLocalIndex implements nextindex.ProfileIndexSource: the highest
// local index among this entity's own factor instances that match
// (fsid, path).
func (e Entity) HighestLocalIndex(fsid factorsources.ID, path derivation.IndexAgnosticPath) (uint32, bool) {
	var highest uint32
	any := false
	for _, fi := range e.UniqueAllFactorInstances() {
		if !fi.FactorSourceID.Equal(fsid) {
			continue
		}
		p, err := fi.DerivationPath()
		if err != nil {
			continue
		}
		if p.IndexAgnostic() != path {
			continue
		}
		local := p.Index().IndexInLocalKeySpace()
		if !any || local > highest {
			highest, any = local, true
		}
	}
	return highest, any
}
