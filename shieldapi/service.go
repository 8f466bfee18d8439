// Package shieldapi exposes the factor-instances provider and the
// manifest builders over HTTP, in place of the teacher's wallet-seed/sign
// endpoints (walletserver/services, walletserver/controllers).
package shieldapi

import (
	"context"
	"sync"
	"time"

	"shieldcore/addressing"
	"shieldcore/derivation"
	"shieldcore/factorcache"
	"shieldcore/factorsources"
	"shieldcore/keyscollector"
	"shieldcore/manifest"
	"shieldcore/nextindex"
	"shieldcore/provider"
	"shieldcore/securitystructure"
)

// MnemonicInteractor is implemented by hostinteractor.Mnemonic; the
// service only needs the derivation contract.
type MnemonicInteractor = keyscollector.DerivationInteractor

// Service wires one provider per network behind a mutex; the underlying
// cache is not safe for unsynchronized concurrent HTTP handlers.
type Service struct {
	mu        sync.Mutex
	providers map[addressing.NetworkID]*provider.Provider
	caches    map[addressing.NetworkID]*factorcache.Cache
	metrics   factorcache.Metrics
}

// NewService builds an empty service; per-network providers are created
// lazily on first use, each with its own cache.
func NewService(metrics factorcache.Metrics) *Service {
	return &Service{
		providers: make(map[addressing.NetworkID]*provider.Provider),
		caches:    make(map[addressing.NetworkID]*factorcache.Cache),
		metrics:   metrics,
	}
}

func (s *Service) providerFor(network addressing.NetworkID, interactor MnemonicInteractor) *provider.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.providers[network]; ok {
		return p
	}
	cache := factorcache.New()
	if s.metrics != nil {
		cache.SetMetrics(s.metrics)
	}
	assigner := nextindex.NewAssigner(cache, nil)
	collector := keyscollector.New(interactor)
	p := provider.New(network, cache, assigner, collector)
	s.providers[network] = p
	s.caches[network] = cache
	return p
}

// Provide runs the factor-instances provider for one factor source and
// returns the outcome split (spec.md §4.7).
func (s *Service) Provide(
	ctx context.Context,
	network addressing.NetworkID,
	interactor MnemonicInteractor,
	fsid factorsources.ID,
	requested map[derivation.Preset]uint32,
	purpose keyscollector.Purpose,
) (provider.Outcome, error) {
	p := s.providerFor(network, interactor)
	consumer, outcome, err := p.Provide(ctx, []factorsources.ID{fsid}, requested, purpose)
	if err != nil {
		return provider.Outcome{}, err
	}
	if err := consumer.Consume(); err != nil {
		return provider.Outcome{}, err
	}
	return outcome, nil
}

// CacheStatus reports the current queue depth per derivation path and
// whether the cache is full for fsid on network.
type CacheStatus struct {
	Full   bool           `json:"full"`
	Queues map[string]int `json:"queues"`
}

// Status reports the cache state for a factor source on a network,
// without touching the provider (no derivation is triggered).
func (s *Service) Status(network addressing.NetworkID, fsid factorsources.ID) CacheStatus {
	s.mu.Lock()
	cache, ok := s.caches[network]
	s.mu.Unlock()
	if !ok {
		return CacheStatus{Queues: map[string]int{}}
	}
	queues := make(map[string]int)
	for path, instances := range cache.PeekAll(fsid) {
		queues[path.String()] = len(instances)
	}
	return CacheStatus{Full: cache.IsFull(network, fsid), Queues: queues}
}

// Securify builds a securify-entity manifest from an already-assembled
// security structure (spec.md §4.10).
func (s *Service) Securify(
	network addressing.NetworkID,
	owner addressing.Address,
	entityKind derivation.EntityKind,
	structure securitystructure.InstanceMatrix,
) (manifest.Manifest, error) {
	return manifest.BuildSecurifyManifest(network, owner, entityKind, structure)
}

// Recover builds the lock-fee/top-up prefix for a recovery transaction
// (spec.md §4.10 item 2).
func (s *Service) Recover(
	combination manifest.RolesExercisableInTransactionManifestCombination,
	data manifest.LockFeeData,
	acState manifest.AccessControllerStateDetails,
	network addressing.NetworkID,
) manifest.Manifest {
	m := manifest.Manifest{Network: network}
	return manifest.PrependLockFeeAndTopUp(m, combination, data, acState)
}

// requestTimeout bounds how long a single HTTP-triggered provide/collect
// round may block on the (synchronous, in-process) mnemonic interactor.
const requestTimeout = 30 * time.Second
