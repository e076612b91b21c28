// Package bloombits implements the level-compressed bloom-group chain:
// for each height, log_bloom is OR-aggregated into hierarchical groups
// (levels = 3, elements_per_index = 16) with types.Bloom.OrInto, and
// every level is written on commit. MatchHeights reads only the level-0
// groups and tests each height of the range in turn; the upper levels are
// not consulted, so a range query is linear in the range length.
// holiman/bloomfilter/v2 is used only as the dedupe probe in
// BuildBlockBloom.
package bloombits

import (
	"github.com/holiman/bloomfilter/v2"

	"github.com/permachain/core/core/rawdb"
	"github.com/permachain/core/core/types"
)

const (
	Levels           = 3
	ElementsPerIndex = 16
)

// GroupKeysAndValues computes the bloom-group chain updates triggered by
// committing the log bloom at height, returning raw rawdb keys/values
// ready to be folded into the block's write batch.
func GroupKeysAndValues(store rawdb.KvStore, height uint64, blockBloom types.Bloom) (map[string][]byte, error) {
	writes := make(map[string][]byte)
	index := height
	bloom := blockBloom
	for level := 0; level < Levels; level++ {
		groupIndex := index / ElementsPerIndex
		key := rawdb.BloomGroupKey(uint(level), groupIndex)
		existing, _ := store.Get(key)
		group := decodeGroup(existing)
		slot := index % ElementsPerIndex
		group[slot].OrInto(bloom)
		writes[string(key)] = encodeGroup(group)

		// the next level up aggregates every slot of this level's group
		// into one bloom.
		var agg types.Bloom
		for _, b := range group {
			agg.OrInto(b)
		}
		bloom = agg
		index = groupIndex
	}
	return writes, nil
}

type bloomGroup [ElementsPerIndex]types.Bloom

func encodeGroup(g bloomGroup) []byte {
	out := make([]byte, 0, ElementsPerIndex*types.BloomByteLength)
	for _, b := range g {
		out = append(out, b[:]...)
	}
	return out
}

func decodeGroup(b []byte) bloomGroup {
	var g bloomGroup
	for i := 0; i < ElementsPerIndex; i++ {
		start := i * types.BloomByteLength
		if start+types.BloomByteLength > len(b) {
			break
		}
		copy(g[i][:], b[start:start+types.BloomByteLength])
	}
	return g
}

// MatchHeights walks the bloom-group index across [from, to] and returns
// candidate heights whose bloom may contain every possibility. False
// positives are expected; the caller must confirm
// against the real receipts.
func MatchHeights(store rawdb.KvStore, from, to uint64, possibilities [][]byte) ([]uint64, error) {
	var candidates []uint64
	for h := from; h <= to; h++ {
		key := rawdb.BloomGroupKey(0, h/ElementsPerIndex)
		raw, err := store.Get(key)
		if err != nil {
			continue
		}
		group := decodeGroup(raw)
		bloom := group[h%ElementsPerIndex]
		if matchesAll(bloom, possibilities) {
			candidates = append(candidates, h)
		}
	}
	return candidates, nil
}

func matchesAll(bloom types.Bloom, possibilities [][]byte) bool {
	for _, p := range possibilities {
		if !bloom.Test(p) {
			return false
		}
	}
	return true
}

// BuildBlockBloom assembles one block's log_bloom from its logs. It first
// probes membership with a throwaway holiman/bloomfilter/v2 filter (the
// same k-hash family) to dedupe repeated
// address/topic keys cheaply before folding each distinct key into the
// fixed-size Bloom via Bloom.Add.
func BuildBlockBloom(logs []*types.Log) (types.Bloom, error) {
	var bloom types.Bloom
	expected := uint64(len(logs)*2 + 1)
	probe, err := bloomfilter.New(expected*20, 0.001)
	if err != nil {
		return bloom, err
	}
	seen := func(key []byte) bool {
		h := fnvHash(key)
		if probe.Contains(h) {
			return true
		}
		probe.Add(h)
		return false
	}
	for _, l := range logs {
		if !seen(l.Address.Bytes()) {
			bloom.Add(l.Address.Bytes())
		}
		for _, t := range l.Topics {
			if !seen(t.Bytes()) {
				bloom.Add(t.Bytes())
			}
		}
	}
	return bloom, nil
}

func fnvHash(b []byte) bloomfilter.Hashable {
	return rawBytes(b)
}

type rawBytes []byte

func (r rawBytes) BloomHash64() uint64 {
	var h uint64 = 1469598103934665603
	for _, c := range r {
		h ^= uint64(c)
		h *= 1099511628211
	}
	return h
}
