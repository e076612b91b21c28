package txpool

import (
	"context"
	"time"

	"github.com/permachain/core/log"
)

// HousekeepingInterval is the periodic tick admission's inbound
// subscription times out at to perform housekeeping.
const HousekeepingInterval = 3 * time.Second

// Housekeeper owns the TxPool's periodic upkeep: retrying a chain-id
// fetch that hasn't resolved yet, and re-requesting BlockTxHashes for
// heights the pool never received.
type Housekeeper struct {
	pool *TxPool
	log  log.Logger

	FetchChainID   func() (haveIt bool)
	RequestMissing func(height uint64)

	lastPruned uint64
}

func NewHousekeeper(pool *TxPool, logger log.Logger) *Housekeeper {
	return &Housekeeper{pool: pool, log: logger}
}

// Run ticks every HousekeepingInterval until ctx is cancelled.
func (h *Housekeeper) Run(ctx context.Context) {
	ticker := time.NewTicker(HousekeepingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.tick()
		case <-ctx.Done():
			return
		}
	}
}

func (h *Housekeeper) tick() {
	if h.FetchChainID != nil {
		if ok := h.FetchChainID(); !ok {
			h.log.Debug("housekeeper: chain id still unresolved, will retry")
		}
	}

	h.pool.mu.Lock()
	next := h.pool.nextHeight
	missing := next > h.lastPruned+1
	h.lastPruned = next
	h.pool.mu.Unlock()

	if missing && h.RequestMissing != nil {
		h.RequestMissing(next)
	}
}
