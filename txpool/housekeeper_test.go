package txpool

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/permachain/core/log"
)

func TestHousekeeperTickCallsFetchChainID(t *testing.T) {
	p := newTestPool(t)
	h := NewHousekeeper(p, log.New())

	called := false
	h.FetchChainID = func() bool { called = true; return true }
	h.tick()

	assert.True(t, called)
}

func TestHousekeeperTickRequestsMissingOnGap(t *testing.T) {
	p := newTestPool(t)
	p.SetNextHeight(20) // nextHeight jumped ahead of lastPruned=0 by more than one
	h := NewHousekeeper(p, log.New())

	var requested uint64
	h.RequestMissing = func(height uint64) { requested = height }
	h.tick()

	assert.Equal(t, uint64(20), requested)
}

func TestHousekeeperTickNoGapSkipsRequest(t *testing.T) {
	p := newTestPool(t)
	h := NewHousekeeper(p, log.New())
	h.lastPruned = p.nextHeight // already in sync

	called := false
	h.RequestMissing = func(height uint64) { called = true }
	h.tick()

	assert.False(t, called)
}
