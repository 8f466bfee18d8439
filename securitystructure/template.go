package securitystructure

import (
	"shieldcore/factorsources"
	"shieldcore/shielderr"
)

// FactorSourceTemplate is an abstract slot in a MatrixTemplate: "the Nth
// factor source of this kind" (spec.md §4.8 "abstract FactorSourceTemplate
// entries (kind + positional slot within kind)").
type FactorSourceTemplate struct {
	Kind factorsources.Kind
	Slot int
}

// MatrixTemplate is a Matrix of FactorSourceTemplate entries, materialized
// against a concrete list of factor source ids.
type MatrixTemplate = Matrix[FactorSourceTemplate]

// templateAssigner performs the stable assignment Materialize describes:
// the same template always resolves to the same id within one call, and
// each kind's pool is consumed in the order factorSourceIDs lists it.
type templateAssigner struct {
	pool     map[factorsources.Kind][]factorsources.ID
	consumed map[factorsources.Kind]int
	assigned map[FactorSourceTemplate]factorsources.ID
}

func newTemplateAssigner(factorSourceIDs []factorsources.ID) *templateAssigner {
	pool := make(map[factorsources.Kind][]factorsources.ID)
	for _, id := range factorSourceIDs {
		pool[id.Kind] = append(pool[id.Kind], id)
	}
	return &templateAssigner{pool: pool, consumed: make(map[factorsources.Kind]int), assigned: make(map[FactorSourceTemplate]factorsources.ID)}
}

func (a *templateAssigner) resolve(t FactorSourceTemplate) (factorsources.ID, error) {
	if id, ok := a.assigned[t]; ok {
		return id, nil
	}
	available := a.pool[t.Kind]
	idx := a.consumed[t.Kind]
	if idx >= len(available) {
		return factorsources.ID{}, shielderr.Newf(shielderr.KindTooFewFactorInstancesDerived,
			"no remaining factor source of kind %v to fill slot %d", t.Kind, t.Slot)
	}
	id := available[idx]
	a.consumed[t.Kind] = idx + 1
	a.assigned[t] = id
	return id, nil
}

func (a *templateAssigner) resolveRole(role Role[FactorSourceTemplate]) (Role[factorsources.ID], error) {
	out := Role[factorsources.ID]{Threshold: role.Threshold}
	for _, t := range role.ThresholdFactors {
		id, err := a.resolve(t)
		if err != nil {
			return Role[factorsources.ID]{}, err
		}
		out.ThresholdFactors = append(out.ThresholdFactors, id)
	}
	for _, t := range role.OverrideFactors {
		id, err := a.resolve(t)
		if err != nil {
			return Role[factorsources.ID]{}, err
		}
		out.OverrideFactors = append(out.OverrideFactors, id)
	}
	return out, nil
}

// Materialize performs the stable assignment of spec.md §4.8: for each
// template slot, either reuse the previously-assigned id (same template
// instance ⇒ same id) or consume the first remaining id of the required
// kind. Fails with TooFewFactorInstancesDerived if a kind is exhausted.
func (mt MatrixTemplate) Materialize(factorSourceIDs []factorsources.ID) (SourceMatrix, error) {
	assigner := newTemplateAssigner(factorSourceIDs)

	primary, err := assigner.resolveRole(mt.Primary)
	if err != nil {
		return SourceMatrix{}, err
	}
	recovery, err := assigner.resolveRole(mt.Recovery)
	if err != nil {
		return SourceMatrix{}, err
	}
	confirmation, err := assigner.resolveRole(mt.Confirmation)
	if err != nil {
		return SourceMatrix{}, err
	}
	auth, err := assigner.resolve(mt.AuthenticationSigningFactor)
	if err != nil {
		return SourceMatrix{}, err
	}

	return NewSourceMatrix(primary, recovery, confirmation, mt.TimeUntilDelayedConfirmationIsCallable, auth)
}
