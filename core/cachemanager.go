package core

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/permachain/core/common"
	"github.com/permachain/core/core/types"
)

// CacheManager is the single size-bounded LRU cache layer: one lock, one
// set of hashicorp/golang-lru/v2 caches for
// headers, bodies, receipts, tx-index entries and hash-to-height lookups.
// Bloom groups are not cached; they are read from storage on every query. Every
// lookup funnels through it so hit/miss accounting and note_used-style
// touch tracking lives in one place instead of scattered ad-hoc maps.
type CacheManager struct {
	mu sync.Mutex

	headers  *lru.Cache[uint64, *types.Header]
	bodies   *lru.Cache[uint64, types.Transactions]
	receipts *lru.Cache[common.Hash, types.Receipts]
	txIndex  *lru.Cache[common.Hash, types.TxIndexEntry]
	hashes   *lru.Cache[common.Hash, uint64]

	hits, misses uint64
}

// NewCacheManager builds a CacheManager with size budgets; budget is the
// entry cap of each cache except the tx-index cache, which holds budget*4.
func NewCacheManager(budget int) *CacheManager {
	headers, _ := lru.New[uint64, *types.Header](budget)
	bodies, _ := lru.New[uint64, types.Transactions](budget)
	receipts, _ := lru.New[common.Hash, types.Receipts](budget)
	txIndex, _ := lru.New[common.Hash, types.TxIndexEntry](budget * 4)
	hashes, _ := lru.New[common.Hash, uint64](budget)
	return &CacheManager{headers: headers, bodies: bodies, receipts: receipts, txIndex: txIndex, hashes: hashes}
}

func (c *CacheManager) noteUsed(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

func (c *CacheManager) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *CacheManager) GetHeader(height uint64) (*types.Header, bool) {
	h, ok := c.headers.Get(height)
	c.noteUsed(ok)
	return h, ok
}

func (c *CacheManager) PutHeader(height uint64, h *types.Header) { c.headers.Add(height, h) }

func (c *CacheManager) GetBody(height uint64) (types.Transactions, bool) {
	b, ok := c.bodies.Get(height)
	c.noteUsed(ok)
	return b, ok
}

func (c *CacheManager) PutBody(height uint64, b types.Transactions) { c.bodies.Add(height, b) }

func (c *CacheManager) GetReceipts(hash common.Hash) (types.Receipts, bool) {
	r, ok := c.receipts.Get(hash)
	c.noteUsed(ok)
	return r, ok
}

func (c *CacheManager) PutReceipts(hash common.Hash, r types.Receipts) { c.receipts.Add(hash, r) }

func (c *CacheManager) GetTxIndex(txHash common.Hash) (types.TxIndexEntry, bool) {
	e, ok := c.txIndex.Get(txHash)
	c.noteUsed(ok)
	return e, ok
}

func (c *CacheManager) PutTxIndex(txHash common.Hash, e types.TxIndexEntry) {
	c.txIndex.Add(txHash, e)
}

func (c *CacheManager) GetHeightByHash(hash common.Hash) (uint64, bool) {
	h, ok := c.hashes.Get(hash)
	c.noteUsed(ok)
	return h, ok
}

func (c *CacheManager) PutHeightByHash(hash common.Hash, height uint64) {
	c.hashes.Add(hash, height)
}
