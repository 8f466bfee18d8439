package securitystructure

import (
	"shieldcore/derivation"
	"shieldcore/factorsources"
	"shieldcore/shielderr"
)

// sourceInstancePool pops the head instance for a factor source from a
// shared pool, reusing the same instance across roles when a single
// source appears in multiple roles (spec.md §4.8 "reusing the same
// instance across roles when a single source appears in multiple roles").
type sourceInstancePool struct {
	remaining map[factorsources.ID][]factorsources.FactorInstance
	picked    map[factorsources.ID]factorsources.FactorInstance
}

func newSourceInstancePool(consuming map[factorsources.ID][]factorsources.FactorInstance) *sourceInstancePool {
	remaining := make(map[factorsources.ID][]factorsources.FactorInstance, len(consuming))
	for id, instances := range consuming {
		remaining[id] = append([]factorsources.FactorInstance(nil), instances...)
	}
	return &sourceInstancePool{remaining: remaining, picked: make(map[factorsources.ID]factorsources.FactorInstance)}
}

func (p *sourceInstancePool) take(id factorsources.ID) (factorsources.FactorInstance, error) {
	if fi, ok := p.picked[id]; ok {
		return fi, nil
	}
	queue := p.remaining[id]
	if len(queue) == 0 {
		return factorsources.FactorInstance{}, shielderr.Newf(shielderr.KindMissingFactorMappingInstancesIntoRole, "no cached instance for factor source %s", id)
	}
	fi := queue[0]
	p.remaining[id] = queue[1:]
	p.picked[id] = fi
	return fi, nil
}

// takeAuthentication pops the next head instance for id without
// consulting or populating the reuse cache: the authentication-signing
// instance is a distinct purpose from the transaction-signing instances
// taken via take/takeRole, even when the same factor source id fills both
// roles (spec.md §4.8 "the next authentication-signing instance for the
// declared auth factor source in consuming").
func (p *sourceInstancePool) takeAuthentication(id factorsources.ID) (factorsources.FactorInstance, error) {
	queue := p.remaining[id]
	if len(queue) == 0 {
		return factorsources.FactorInstance{}, shielderr.Newf(shielderr.KindMissingRolaKeyForSecurityStructureOfFactorInstances, "no cached authentication-signing instance for factor source %s", id)
	}
	fi := queue[0]
	p.remaining[id] = queue[1:]
	return fi, nil
}

func (p *sourceInstancePool) takeRole(role Role[factorsources.ID]) (Role[factorsources.FactorInstance], error) {
	out := Role[factorsources.FactorInstance]{Threshold: role.Threshold}
	for _, id := range role.ThresholdFactors {
		fi, err := p.take(id)
		if err != nil {
			return Role[factorsources.FactorInstance]{}, err
		}
		out.ThresholdFactors = append(out.ThresholdFactors, fi)
	}
	for _, id := range role.OverrideFactors {
		fi, err := p.take(id)
		if err != nil {
			return Role[factorsources.FactorInstance]{}, err
		}
		out.OverrideFactors = append(out.OverrideFactors, fi)
	}
	return out, nil
}

// remainder returns what is left in the pool after every role has taken
// its factors, with fully-drained factor sources pruned (spec.md §4.8
// "every instance referenced anywhere in the matrix is removed from
// consuming from the head (pruning empty entries)").
func (p *sourceInstancePool) remainder() map[factorsources.ID][]factorsources.FactorInstance {
	out := make(map[factorsources.ID][]factorsources.FactorInstance)
	for id, queue := range p.remaining {
		if len(queue) == 0 {
			continue
		}
		out[id] = queue
	}
	return out
}

// FulfillFromSourcesWithInstances transforms a SourceMatrix into an
// InstanceMatrix by popping, for each role's factors, the head instance
// for that factor source from consuming (spec.md §4.8 "fulfilling
// structure of factor sources with instances"). The authentication-signing
// instance is either existingRola, if supplied, or the next
// authentication-signing instance for the declared auth factor source.
// Returns the updated consuming pool (with every instance the matrix
// referenced pruned from the head) alongside the built matrix.
func FulfillFromSourcesWithInstances(
	sources SourceMatrix,
	consuming map[factorsources.ID][]factorsources.FactorInstance,
	existingRola *factorsources.FactorInstance,
	entityKind derivation.EntityKind,
) (InstanceMatrix, map[factorsources.ID][]factorsources.FactorInstance, error) {
	pool := newSourceInstancePool(consuming)

	primary, err := pool.takeRole(sources.Primary)
	if err != nil {
		return InstanceMatrix{}, nil, err
	}
	recovery, err := pool.takeRole(sources.Recovery)
	if err != nil {
		return InstanceMatrix{}, nil, err
	}
	confirmation, err := pool.takeRole(sources.Confirmation)
	if err != nil {
		return InstanceMatrix{}, nil, err
	}

	var auth factorsources.FactorInstance
	if existingRola != nil {
		auth = *existingRola
	} else {
		auth, err = pool.takeAuthentication(sources.AuthenticationSigningFactor)
		if err != nil {
			return InstanceMatrix{}, nil, err
		}
	}

	matrix, err := NewInstanceMatrix(primary, recovery, confirmation, sources.TimeUntilDelayedConfirmationIsCallable, auth, entityKind)
	if err != nil {
		return InstanceMatrix{}, nil, err
	}
	return matrix, pool.remainder(), nil
}
