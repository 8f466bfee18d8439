// Package provider implements the factor-instances provider (spec.md §4.7):
// it orchestrates the cache (C4), the next-index assigner (C5), and the
// keys collector (C6) into the single entry point callers use to obtain
// factor instances, transparently refilling the cache when needed.
package provider

import (
	"context"

	"shieldcore/addressing"
	"shieldcore/derivation"
	"shieldcore/factorcache"
	"shieldcore/factorsources"
	"shieldcore/keyscollector"
	"shieldcore/nextindex"
)

// Outcome splits, per preset per factor source, the instances a call to
// Provide produced: ToUseDirectly has exactly the requested quantity,
// ToCache is newly-derived excess already appended to the cache (spec.md
// §4.7 Contract).
type Outcome struct {
	ToUseDirectly map[derivation.Preset]map[factorsources.ID][]factorsources.FactorInstance
	ToCache       map[derivation.Preset]map[factorsources.ID][]factorsources.FactorInstance
}

// Provider ties together a cache, an assigner, and a collector for one
// network.
type Provider struct {
	Network   addressing.NetworkID
	Cache     *factorcache.Cache
	Assigner  *nextindex.Assigner
	Collector *keyscollector.Collector
}

// New builds a provider.
func New(network addressing.NetworkID, cache *factorcache.Cache, assigner *nextindex.Assigner, collector *keyscollector.Collector) *Provider {
	return &Provider{Network: network, Cache: cache, Assigner: assigner, Collector: collector}
}

type segment struct {
	preset derivation.Preset
	count  int
}

// Provide is spec.md §4.7's algorithm end to end. fsids is the set of
// factor sources eligible to serve the request; requested maps preset to
// the quantity needed for that preset. On success it returns a cache
// consumer the caller must invoke after committing whatever used the
// instances, and the to-use/to-cache split.
func (p *Provider) Provide(
	ctx context.Context,
	fsids []factorsources.ID,
	requested map[derivation.Preset]uint32,
	purpose keyscollector.Purpose,
) (*factorcache.Consumer, Outcome, error) {
	cacheOutcome := p.Cache.Get(fsids, requested, p.Network)
	if cacheOutcome.Satisfied {
		consumer := factorcache.NewConsumer(p.Cache, p.Network, cacheOutcome.Instances)
		return consumer, Outcome{ToUseDirectly: cacheOutcome.Instances, ToCache: map[derivation.Preset]map[factorsources.ID][]factorsources.FactorInstance{}}, nil
	}

	pathsByFSID := make(map[factorsources.ID][]derivation.Path)
	segmentsByFSID := make(map[factorsources.ID][]segment)

	for _, preset := range derivation.AllPresets {
		path := preset.IndexAgnosticPath(p.Network)
		reqQty := requested[preset]
		target := reqQty + uint32(factorcache.FillingQuantity)
		for _, fsid := range fsids {
			avail := uint32(p.Cache.QueueLen(fsid, path))
			if avail >= target {
				continue
			}
			toDerive := target - avail
			paths := make([]derivation.Path, 0, toDerive)
			for i := uint32(0); i < toDerive; i++ {
				idx, err := p.Assigner.Next(fsid, path)
				if err != nil {
					return nil, Outcome{}, err
				}
				paths = append(paths, path.WithIndex(idx))
			}
			pathsByFSID[fsid] = append(pathsByFSID[fsid], paths...)
			segmentsByFSID[fsid] = append(segmentsByFSID[fsid], segment{preset: preset, count: len(paths)})
		}
	}

	derivedFlat, err := p.Collector.Collect(ctx, fsids, pathsByFSID, purpose)
	if err != nil {
		return nil, Outcome{}, err
	}

	derivedByPresetFSID := make(map[derivation.Preset]map[factorsources.ID][]factorsources.FactorInstance)
	for fsid, segs := range segmentsByFSID {
		flat := derivedFlat[fsid]
		offset := 0
		for _, seg := range segs {
			chunk := flat[offset : offset+seg.count]
			offset += seg.count
			if derivedByPresetFSID[seg.preset] == nil {
				derivedByPresetFSID[seg.preset] = make(map[factorsources.ID][]factorsources.FactorInstance)
			}
			derivedByPresetFSID[seg.preset][fsid] = chunk
		}
	}

	toUse := make(map[derivation.Preset]map[factorsources.ID][]factorsources.FactorInstance)
	toCache := make(map[derivation.Preset]map[factorsources.ID][]factorsources.FactorInstance)
	consumerPeek := make(map[derivation.Preset]map[factorsources.ID][]factorsources.FactorInstance)

	for _, preset := range derivation.AllPresets {
		path := preset.IndexAgnosticPath(p.Network)
		reqQty := int(requested[preset])
		for _, fsid := range fsids {
			avail := p.Cache.QueueLen(fsid, path)
			cachedPortion := avail
			if reqQty < cachedPortion {
				cachedPortion = reqQty
			}
			cachedHead := p.Cache.PeekHead(fsid, path, cachedPortion)
			merged := append(append([]factorsources.FactorInstance(nil), cachedHead...), derivedByPresetFSID[preset][fsid]...)
			if len(merged) == 0 {
				continue
			}
			cut := reqQty
			if cut > len(merged) {
				cut = len(merged)
			}
			head, tail := merged[:cut], merged[cut:]
			if len(head) > 0 {
				if toUse[preset] == nil {
					toUse[preset] = make(map[factorsources.ID][]factorsources.FactorInstance)
				}
				toUse[preset][fsid] = head
			}
			if len(tail) > 0 {
				if toCache[preset] == nil {
					toCache[preset] = make(map[factorsources.ID][]factorsources.FactorInstance)
				}
				toCache[preset][fsid] = tail
			}
			if len(cachedHead) > 0 {
				if consumerPeek[preset] == nil {
					consumerPeek[preset] = make(map[factorsources.ID][]factorsources.FactorInstance)
				}
				consumerPeek[preset][fsid] = cachedHead
			}
		}
	}

	if err := p.Cache.Insert(p.Network, toCache); err != nil {
		return nil, Outcome{}, err
	}

	consumer := factorcache.NewConsumer(p.Cache, p.Network, consumerPeek)
	return consumer, Outcome{ToUseDirectly: toUse, ToCache: toCache}, nil
}
