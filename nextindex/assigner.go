// Package nextindex implements the next-free-local-index assigner of
// spec.md §4.5: for a given (factor source, index-agnostic path), the
// highest index already committed anywhere is found across three sources
// and the next free slot in that key space is returned.
package nextindex

import (
	"sync"

	"shieldcore/derivation"
	"shieldcore/factorcache"
	"shieldcore/factorsources"
	"shieldcore/keyspace"
	"shieldcore/shielderr"
)

// ProfileIndexSource is the subset of profile state the assigner needs: the
// highest local index already used on a (factor source, index-agnostic
// path) by entities the profile knows about. entity.Entity implements
// this; nextindex depends only on the interface so it never imports entity.
type ProfileIndexSource interface {
	HighestLocalIndex(fsid factorsources.ID, path derivation.IndexAgnosticPath) (uint32, bool)
}

type noProfile struct{}

func (noProfile) HighestLocalIndex(factorsources.ID, derivation.IndexAgnosticPath) (uint32, bool) {
	return 0, false
}

// Assigner hands out the next free local index for a (factor source,
// index-agnostic path) pair, taking the maximum of the profile, the cache,
// and a process-local ephemeral counter that records indices already
// handed out during the current provisioning call but not yet persisted
// anywhere (spec.md §4.5).
type Assigner struct {
	mu        sync.Mutex
	profile   ProfileIndexSource
	cache     *factorcache.Cache
	ephemeral map[ephemeralKey]uint32
}

type ephemeralKey struct {
	fsid factorsources.ID
	path derivation.IndexAgnosticPath
}

// NewAssigner builds an assigner over the given cache. A nil profile is
// treated as empty (used by derivations that run before any profile exists,
// e.g. first-account creation).
func NewAssigner(cache *factorcache.Cache, profile ProfileIndexSource) *Assigner {
	if profile == nil {
		profile = noProfile{}
	}
	return &Assigner{cache: cache, profile: profile, ephemeral: make(map[ephemeralKey]uint32)}
}

// Next returns the next free local index in path's key space for fsid, and
// records it in the ephemeral counter so a second call within the same
// provisioning round never collides with the first (spec.md §4.7 step 3).
func (a *Assigner) Next(fsid factorsources.ID, path derivation.IndexAgnosticPath) (keyspace.Component, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	highest, any := a.profile.HighestLocalIndex(fsid, path)

	if cacheHighest, ok := a.cache.HighestLocalIndex(fsid, path); ok {
		if !any || cacheHighest+1 > highest+1 {
			highest, any = cacheHighest, true
		}
	}

	ek := ephemeralKey{fsid: fsid, path: path}
	if ephemeralHighest, ok := a.ephemeral[ek]; ok {
		if !any || ephemeralHighest+1 > highest+1 {
			highest, any = ephemeralHighest, true
		}
	}

	var next uint32
	if any {
		next = highest + 1
	}

	component, err := keyspace.FromLocal(next, path.KeySpace)
	if err != nil {
		return keyspace.Component{}, shielderr.Wrap(shielderr.KindIndexOverflow, err, "assigning next index")
	}
	a.ephemeral[ek] = component.IndexInLocalKeySpace()
	return component, nil
}

// Reset clears the ephemeral counter. Used between independent provisioning
// calls in tests; production code builds a fresh Assigner per call instead.
func (a *Assigner) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ephemeral = make(map[ephemeralKey]uint32)
}
