package core

import (
	"fmt"
	"sync"

	"github.com/permachain/core/common"
	"github.com/permachain/core/core/bloombits"
	"github.com/permachain/core/core/rawdb"
	"github.com/permachain/core/core/state"
	"github.com/permachain/core/core/types"
	"github.com/permachain/core/event"
	"github.com/permachain/core/log"
	"github.com/permachain/core/txpool"
)

// pendingSource distinguishes the two out-of-order buffer classes: a
// consensus-delivered block always carries a proof; a sync-
// delivered one may not (the next block's parent-linkage proves it).
type pendingSource uint8

const (
	SourceConsensus pendingSource = iota
	SourceSync
)

type pendingBlock struct {
	source pendingSource
	block  *types.Block
	proof  *types.Proof
}

// ErrCorruptChain is returned instead of panicking when a stored block's
// receipts don't line up with its body.
var ErrCorruptChain = fmt.Errorf("core: receipts/body length mismatch")

// RichStatus is posted to consensus after a block is applied.
type RichStatus struct {
	types.ChainStatus
}

// BlockTxHashes is posted to admission after a block is applied.
type BlockTxHashes struct {
	Height            uint64
	TxHashes          []common.Hash
	BlockQuotaLimit   uint64
	AccountQuotaLimit uint64
	CheckQuota        bool
	Admin             *common.Address
	Version           types.Version
}

// ChainCore holds current_header/current_height/max_store_height and the
// pending-block buffer.
type ChainCore struct {
	mu sync.RWMutex

	db    rawdb.KvStore
	cache *CacheManager
	mux   *event.TypeMux
	log   log.Logger

	currentHeader   *types.Header
	currentHeight   uint64
	maxStoreHeight  uint64
	last256         [256]common.Hash

	pending map[uint64]*pendingBlock

	committee types.Committee
}

func NewChainCore(db rawdb.KvStore, cache *CacheManager, logger log.Logger, genesis *types.Header, committee types.Committee) *ChainCore {
	return &ChainCore{
		db:        db,
		cache:     cache,
		mux:       event.NewTypeMux(),
		log:       logger,
		currentHeader: genesis,
		currentHeight: genesis.Height.Uint64(),
		pending:   make(map[uint64]*pendingBlock),
		committee: committee,
	}
}

func (c *ChainCore) CurrentHeight() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentHeight
}

func (c *ChainCore) CurrentHash() common.Hash {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentHeader.Hash()
}

func (c *ChainCore) CurrentHeader() *types.Header {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.currentHeader
}

// BufferPending stores an out-of-order block by height.
func (c *ChainCore) BufferPending(source pendingSource, block *types.Block, proof *types.Proof) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := block.Header().Height.Uint64()
	if h < c.currentHeight {
		return
	}
	c.pending[h] = &pendingBlock{source: source, block: block, proof: proof}
	if h > c.maxStoreHeight {
		c.maxStoreHeight = h
	}
}

// ApplyBlock runs the five-step apply-block protocol against a freshly
// committed block.
func (c *ChainCore) ApplyBlock(
	ex Executor,
	st *state.State,
	cfg Config,
	block *types.Block,
	committee types.Committee,
) (types.Receipts, error) {
	c.mu.Lock()
	height := c.currentHeight + 1
	currentHash := c.currentHeader.Hash()
	c.mu.Unlock()

	// Step 1: validate.
	header := block.Header()
	if header.Height.Uint64() != height {
		return nil, fmt.Errorf("core: apply block height %d, expected %d", header.Height.Uint64(), height)
	}
	if header.ParentHash != currentHash {
		return nil, fmt.Errorf("core: apply block parent hash mismatch")
	}
	if height > 1 {
		if err := header.Proof.Verify(committee, block.Hash()); err != nil {
			return nil, fmt.Errorf("core: apply block proof invalid: %w", err)
		}
	}

	// Step 2: hand to the executor.
	env := Env{Number: height, Timestamp: header.Timestamp, QuotaLimit: cfg.BlockQuotaLimit, Author: header.Proposer}
	c.mu.RLock()
	env.Last256Hashes = c.last256
	c.mu.RUnlock()

	budget := NewQuotaBudget(cfg)
	receipts := make(types.Receipts, 0, len(block.Transactions()))
	var cumulative uint64
	for _, tx := range block.Transactions() {
		r, err := ApplyTransaction(ex, st, env, cfg, budget, tx, cumulative, height, txpool.BlockLimit)
		if err != nil {
			return nil, err
		}
		cumulative = r.CumulativeQuotaUsed
		receipts = append(receipts, r)
	}
	if len(receipts) != len(block.Transactions()) {
		return nil, ErrCorruptChain
	}
	var allLogs []*types.Log
	for _, r := range receipts {
		allLogs = append(allLogs, r.Logs...)
	}
	for i, l := range allLogs {
		l.Index = uint(i)
		l.BlockNumber = height
		l.BlockHash = block.Hash()
	}
	blockBloom, err := bloombits.BuildBlockBloom(allLogs)
	if err != nil {
		return nil, err
	}

	// Step 3: persist atomically.
	bloomWrites, err := bloombits.GroupKeysAndValues(c.db, height, blockBloom)
	if err != nil {
		return nil, err
	}
	batch := c.db.NewBatch()
	if err := rawdb.WriteBlockBatch(batch, block, receipts, bloomWrites); err != nil {
		return nil, err
	}
	if err := c.db.WriteBatch(batch); err != nil {
		return nil, err
	}

	// Step 4: update last-256 ring, caches, and cursor.
	c.mu.Lock()
	c.last256[height%256] = block.Hash()
	c.currentHeader = header
	c.currentHeight = height
	if height > c.maxStoreHeight {
		c.maxStoreHeight = height
	}
	delete(c.pending, height)
	for h := range c.pending {
		if h < height {
			delete(c.pending, h)
		}
	}
	c.committee = committee
	c.mu.Unlock()

	c.cache.PutHeader(height, header)
	c.cache.PutBody(height, block.Transactions())
	c.cache.PutReceipts(block.Hash(), receipts)
	c.cache.PutHeightByHash(block.Hash(), height)
	for i, tx := range block.Transactions() {
		c.cache.PutTxIndex(tx.Hash(), types.TxIndexEntry{BlockHash: block.Hash(), Index: uint32(i)})
	}

	// Step 5: emit status to consensus, tx hashes to admission.
	status := types.ChainStatus{
		Height:     height,
		Hash:       block.Hash(),
		Validators: committee,
		Version:    uint32(cfg.Version),
		Timestamp:  header.Timestamp,
	}
	// Ordering: BlockTxHashes(H) precedes RichStatus(H)  so admission can prune before consensus starts (H+1).
	c.mux.Post(BlockTxHashes{
		Height:            height,
		TxHashes:          block.Transactions().Hashes(),
		BlockQuotaLimit:   cfg.BlockQuotaLimit,
		AccountQuotaLimit: cfg.AccountQuotaLimit,
		CheckQuota:        cfg.CheckQuota,
		Version:           cfg.Version,
	})
	c.mux.Post(RichStatus{ChainStatus: status})

	return receipts, nil
}

func (c *ChainCore) Subscribe(types ...interface{}) *event.TypeMuxSubscription {
	return c.mux.Subscribe(types...)
}

// HeaderByHeight reads through cache then storage.
func (c *ChainCore) HeaderByHeight(height uint64) (*types.Header, error) {
	if h, ok := c.cache.GetHeader(height); ok {
		return h, nil
	}
	h, err := rawdb.ReadHeader(c.db, height)
	if err != nil {
		return nil, err
	}
	c.cache.PutHeader(height, h)
	return h, nil
}

func (c *ChainCore) HeaderByHash(hash common.Hash) (*types.Header, error) {
	height, ok := c.cache.GetHeightByHash(hash)
	if !ok {
		h, found := rawdb.ReadHeightByHash(c.db, hash)
		if !found {
			return nil, rawdb.ErrNotFound
		}
		height = h
		c.cache.PutHeightByHash(hash, height)
	}
	return c.HeaderByHeight(height)
}

func (c *ChainCore) ReceiptsByHash(hash common.Hash) (types.Receipts, error) {
	if r, ok := c.cache.GetReceipts(hash); ok {
		return r, nil
	}
	r, err := rawdb.ReadReceipts(c.db, hash)
	if err != nil {
		return nil, err
	}
	c.cache.PutReceipts(hash, r)
	return r, nil
}

func (c *ChainCore) BodyByHeight(height uint64) (types.Transactions, error) {
	if b, ok := c.cache.GetBody(height); ok {
		return b, nil
	}
	b, err := rawdb.ReadBody(c.db, height)
	if err != nil {
		return nil, err
	}
	c.cache.PutBody(height, b)
	return b, nil
}

// TxProof returns the index entry for a tx hash.
func (c *ChainCore) TxProof(txHash common.Hash) (types.TxIndexEntry, bool) {
	if e, ok := c.cache.GetTxIndex(txHash); ok {
		return e, true
	}
	e, ok := rawdb.ReadTxIndex(c.db, txHash)
	if ok {
		c.cache.PutTxIndex(txHash, e)
	}
	return e, ok
}

// LogFilter selects logs by address/topic possibilities over [From, To]
//.
type LogFilter struct {
	From, To      uint64
	Possibilities [][]byte
	Limit         int
	Matches       func(*types.Log) bool
}

// Logs implements the four-step log filtering algorithm.
func (c *ChainCore) Logs(f LogFilter) ([]*types.Log, error) {
	to := f.To
	if pending := c.CurrentHeight(); to > pending {
		to = pending
	}
	heights, err := bloombits.MatchHeights(c.db, f.From, to, f.Possibilities)
	if err != nil {
		return nil, err
	}
	seen := make(map[uint64]bool, len(heights))
	var dedup []uint64
	for _, h := range heights {
		if !seen[h] {
			seen[h] = true
			dedup = append(dedup, h)
		}
	}

	var out []*types.Log
	for i := len(dedup) - 1; i >= 0 && len(out) < f.Limit; i-- {
		height := dedup[i]
		header, err := c.HeaderByHeight(height)
		if err != nil {
			return nil, err
		}
		body, err := c.BodyByHeight(height)
		if err != nil {
			return nil, err
		}
		receipts, err := c.ReceiptsByHash(header.Hash())
		if err != nil {
			return nil, err
		}
		if len(receipts) != len(body) {
			return nil, ErrCorruptChain
		}
		perTxLogs := make([][]*types.Log, len(receipts))
		offsets := make([]uint, len(receipts))
		var cumulative uint
		for i, r := range receipts {
			perTxLogs[i] = r.Logs
			offsets[i] = cumulative
			cumulative += uint(len(r.Logs))
		}
		for ti := len(receipts) - 1; ti >= 0 && len(out) < f.Limit; ti-- {
			logs := perTxLogs[ti]
			for li := len(logs) - 1; li >= 0 && len(out) < f.Limit; li-- {
				l := logs[li]
				l.Index = offsets[ti] + uint(li)
				l.TxLogIndex = uint(li)
				if f.Matches == nil || f.Matches(l) {
					out = append(out, l)
				}
			}
		}
	}
	reverse(out)
	return out, nil
}

func reverse(logs []*types.Log) {
	for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
		logs[i], logs[j] = logs[j], logs[i]
	}
}
