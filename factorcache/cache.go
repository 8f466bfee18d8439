// Package factorcache implements the factor-instances cache described in
// spec.md §4.4: an ordered, mutex-guarded, append-only-on-write store
// keyed by (FactorSourceID, IndexAgnosticPath).
package factorcache

import (
	"sync"

	"shieldcore/addressing"
	"shieldcore/derivation"
	"shieldcore/factorsources"
	"shieldcore/shielderr"
)

// FillingQuantity is the target depth every preset queue is refilled to
// (spec.md §4.4 "CACHE_FILLING_QUANTITY = 30").
const FillingQuantity = 30

// Metrics receives cache hit/miss observations. The zero value of Cache
// uses noopMetrics; telemetry.NewCacheMetrics wires in prometheus counters.
type Metrics interface {
	Hit()
	Miss()
}

type noopMetrics struct{}

func (noopMetrics) Hit()  {}
func (noopMetrics) Miss() {}

type key struct {
	fsid factorsources.ID
	path derivation.IndexAgnosticPath
}

// Cache is the in-memory factor-instances cache. Build one with New: the
// zero value has a nil queue map, so Insert on it panics. A single mutex guards every access and is held only for the
// duration of an individual call — never across a derivation round trip
// (spec.md §4.4 Concurrency invariant).
type Cache struct {
	mu      sync.Mutex
	queues  map[key][]factorsources.FactorInstance
	metrics Metrics
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{queues: make(map[key][]factorsources.FactorInstance), metrics: noopMetrics{}}
}

// SetMetrics installs the hit/miss observer used by Get.
func (c *Cache) SetMetrics(m Metrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = m
}

func (c *Cache) metricsOrNoop() Metrics {
	if c.metrics == nil {
		return noopMetrics{}
	}
	return c.metrics
}

// PeekAll returns every queue belonging to fsid without consuming anything.
func (c *Cache) PeekAll(fsid factorsources.ID) map[derivation.IndexAgnosticPath][]factorsources.FactorInstance {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[derivation.IndexAgnosticPath][]factorsources.FactorInstance)
	for k, instances := range c.queues {
		if k.fsid.Equal(fsid) {
			out[k.path] = append([]factorsources.FactorInstance(nil), instances...)
		}
	}
	return out
}

// IsFull reports whether every preset queue for (network, fsid) holds at
// least FillingQuantity instances.
func (c *Cache) IsFull(network addressing.NetworkID, fsid factorsources.ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, preset := range derivation.AllPresets {
		path := preset.IndexAgnosticPath(network)
		if len(c.queues[key{fsid: fsid, path: path}]) < FillingQuantity {
			return false
		}
	}
	return true
}

// Shortfall describes, for one (preset, factor source) pair that the cache
// could not fully satisfy, how many instances can be served immediately and
// how many must be freshly derived to leave the queue full afterward.
type Shortfall struct {
	AvailableFromCache uint32
	NumToDerive        uint32
}

// Outcome is the result of Get: either Satisfied, in which case Instances
// holds exactly the requested quantity per (preset, fsid) peeked from the
// head of each queue, or not, in which case Deficits describes the gap.
type Outcome struct {
	Satisfied bool
	Instances map[derivation.Preset]map[factorsources.ID][]factorsources.FactorInstance
	Deficits  map[derivation.Preset]map[factorsources.ID]Shortfall
}

// Get is the planner-side read: it never mutates the cache. When every
// (preset, fsid) pair in requested can be served from the head of its queue,
// it returns Satisfied with the peeked instances; a caller that wants to
// actually remove them must do so via a Consumer (NewConsumer) bound to the
// exact slice returned here. Otherwise it returns the per-pair shortfall (spec.md §4.4 `get`).
func (c *Cache) Get(fsids []factorsources.ID, requested map[derivation.Preset]uint32, network addressing.NetworkID) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	instances := make(map[derivation.Preset]map[factorsources.ID][]factorsources.FactorInstance)
	deficits := make(map[derivation.Preset]map[factorsources.ID]Shortfall)
	satisfied := true

	for preset, qty := range requested {
		path := preset.IndexAgnosticPath(network)
		instances[preset] = make(map[factorsources.ID][]factorsources.FactorInstance)
		for _, fsid := range fsids {
			queue := c.queues[key{fsid: fsid, path: path}]
			available := uint32(len(queue))
			if available >= qty {
				instances[preset][fsid] = append([]factorsources.FactorInstance(nil), queue[:qty]...)
				c.metricsOrNoop().Hit()
				continue
			}
			satisfied = false
			c.metricsOrNoop().Miss()
			numToDerive := qty + FillingQuantity - available
			if deficits[preset] == nil {
				deficits[preset] = make(map[factorsources.ID]Shortfall)
			}
			deficits[preset][fsid] = Shortfall{AvailableFromCache: available, NumToDerive: numToDerive}
		}
	}

	if !satisfied {
		return Outcome{Satisfied: false, Deficits: deficits}
	}
	return Outcome{Satisfied: true, Instances: instances}
}

// Consumer is the capability spec.md §4.4 calls InstancesInCacheConsumer: a
// single-use handle bound to the exact slice a caller peeked. Consume
// deletes them from the cache; dropping the consumer unconsumed leaves the
// cache unchanged.
type Consumer struct {
	cache  *Cache
	peeked map[key][]factorsources.FactorInstance
	done   bool
}

// NewConsumer binds a consumer to the peeked instances of a Get Outcome.
func NewConsumer(c *Cache, network addressing.NetworkID, instances map[derivation.Preset]map[factorsources.ID][]factorsources.FactorInstance) *Consumer {
	peeked := make(map[key][]factorsources.FactorInstance)
	for preset, byFSID := range instances {
		path := preset.IndexAgnosticPath(network)
		for fsid, slice := range byFSID {
			peeked[key{fsid: fsid, path: path}] = slice
		}
	}
	return &Consumer{cache: c, peeked: peeked}
}

// Consume deletes the bound instances from the cache head. It is an error
// to call it twice, or if the bound slice is no longer the exact head of
// its queue (spec.md §4.4 "deleting a non-head prefix is forbidden").
func (cc *Consumer) Consume() error {
	if cc.done {
		return shielderr.New(shielderr.KindInvalidCacheState, "consumer already consumed")
	}
	cc.cache.mu.Lock()
	defer cc.cache.mu.Unlock()
	for k, slice := range cc.peeked {
		queue := cc.cache.queues[k]
		if len(queue) < len(slice) {
			return shielderr.New(shielderr.KindInvalidCacheState, "peeked slice no longer matches cache head")
		}
		for i := range slice {
			if !sameInstance(queue[i], slice[i]) {
				return shielderr.New(shielderr.KindInvalidCacheState, "peeked slice no longer matches cache head")
			}
		}
		cc.cache.queues[k] = queue[len(slice):]
	}
	cc.done = true
	return nil
}

func sameInstance(a, b factorsources.FactorInstance) bool {
	aHD, aErr := a.TryAsHD()
	bHD, bErr := b.TryAsHD()
	if aErr != nil || bErr != nil {
		return aErr == bErr
	}
	return aHD.DerivationPath.String() == bHD.DerivationPath.String() && a.FactorSourceID.Equal(b.FactorSourceID)
}

// Insert appends newly-derived instances to the cache, one queue per
// (preset, factor source). Insert is append-only and rejects a duplicate
// path (spec.md §4.4 "no duplicate instance (by path) ever appears").
func (c *Cache) Insert(network addressing.NetworkID, data map[derivation.Preset]map[factorsources.ID][]factorsources.FactorInstance) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for preset, byFSID := range data {
		path := preset.IndexAgnosticPath(network)
		for fsid, newInstances := range byFSID {
			k := key{fsid: fsid, path: path}
			existing := c.queues[k]
			seen := make(map[string]bool, len(existing))
			for _, inst := range existing {
				if hd, err := inst.TryAsHD(); err == nil {
					seen[hd.DerivationPath.String()] = true
				}
			}
			for _, inst := range newInstances {
				hd, err := inst.TryAsHD()
				if err != nil {
					return err
				}
				if seen[hd.DerivationPath.String()] {
					return shielderr.Newf(shielderr.KindInvalidCacheState, "duplicate instance at path %s", hd.DerivationPath.String())
				}
				seen[hd.DerivationPath.String()] = true
				existing = append(existing, inst)
			}
			c.queues[k] = existing
		}
	}
	return nil
}

// PeekHead returns the first n instances of (fsid, path)'s queue without
// consuming them. n is clamped to the queue length.
func (c *Cache) PeekHead(fsid factorsources.ID, path derivation.IndexAgnosticPath, n int) []factorsources.FactorInstance {
	c.mu.Lock()
	defer c.mu.Unlock()
	queue := c.queues[key{fsid: fsid, path: path}]
	if n > len(queue) {
		n = len(queue)
	}
	if n <= 0 {
		return nil
	}
	return append([]factorsources.FactorInstance(nil), queue[:n]...)
}

// QueueLen returns the number of instances currently queued for (fsid, path).
func (c *Cache) QueueLen(fsid factorsources.ID, path derivation.IndexAgnosticPath) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queues[key{fsid: fsid, path: path}])
}

// HighestLocalIndex returns the highest local index present in the cache
// for (fsid, path), and whether any instance exists at all. Used by
// nextindex (C5) as one of the three sources an assignment maximizes over.
func (c *Cache) HighestLocalIndex(fsid factorsources.ID, path derivation.IndexAgnosticPath) (uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	queue := c.queues[key{fsid: fsid, path: path}]
	if len(queue) == 0 {
		return 0, false
	}
	last := queue[len(queue)-1]
	hd, err := last.TryAsHD()
	if err != nil {
		return 0, false
	}
	return hd.DerivationPath.Index().IndexInLocalKeySpace(), true
}
