// Package txpool implements admission, the transaction pool, and proposer
// block assembly.
package txpool

import (
	"container/list"
	"math/big"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/permachain/core/common"
	"github.com/permachain/core/core/types"
)

// Reason is the typed rejection taxonomy admission returns instead of a
// bare error.
type Reason uint8

const (
	ReasonOK Reason = iota
	ReasonMalformed
	ReasonBadSignature
	ReasonForbidden
	ReasonExpired
	ReasonDup
	ReasonQuotaTooLarge
	ReasonQuotaNotEnough
	ReasonWrongChainID
)

func (r Reason) String() string {
	switch r {
	case ReasonOK:
		return "OK"
	case ReasonMalformed:
		return "Malformed"
	case ReasonBadSignature:
		return "BadSignature"
	case ReasonForbidden:
		return "Forbidden"
	case ReasonExpired:
		return "Expired"
	case ReasonDup:
		return "Dup"
	case ReasonQuotaTooLarge:
		return "QuotaTooLarge"
	case ReasonQuotaNotEnough:
		return "QuotaNotEnough"
	case ReasonWrongChainID:
		return "WrongChainID"
	default:
		return "Unknown"
	}
}

// BlockLimit bounds how far into the future valid_until_block may point
// and how many recent heights' tx-hash sets admission keeps for dup
// checking.
const BlockLimit = 100

// Config is the admission-time snapshot:
// `{block_quota_limit, account_quota_limit{common, per_account},
// check_quota, admin?, version, chain_id}`.
type Config struct {
	BlockQuotaLimit       uint64
	AccountQuotaLimitBase uint64
	PerAccountLimit       map[common.Address]uint64
	CheckQuota            bool
	Admin                 *common.Address
	Version               types.Version
	ChainID               *big.Int
}

// TxPool is the single structure both admission and consensus mutate
//: admission inserts, the proposer drains,
// chain-notify prunes -- all under p.mu.
type TxPool struct {
	mu sync.Mutex

	cfg Config

	sigCache *lru.Cache // tx hash -> common.Address (recovered signer)
	history  map[uint64]map[common.Hash]struct{}

	blacklist map[common.Address]int8

	order *list.List               // FIFO admission order of *types.Transaction
	byHash map[common.Hash]*list.Element

	nextHeight uint64
}

func New(cfg Config, sigCacheSize int) *TxPool {
	cache, _ := lru.New(sigCacheSize)
	return &TxPool{
		cfg:        cfg,
		sigCache:   cache,
		history:    make(map[uint64]map[common.Hash]struct{}),
		blacklist:  make(map[common.Address]int8),
		order:      list.New(),
		byHash:     make(map[common.Hash]*list.Element),
	}
}

func (p *TxPool) SetNextHeight(h uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextHeight = h
}

// Blacklist decrements an address's credit on a bad sighting; once
// negative, admission rejects it outright.
func (p *TxPool) Blacklist(addr common.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blacklist[addr]--
}

// Clear raises an address's credit back to a non-negative value on a
// positive clearance signal.
func (p *TxPool) Clear(addr common.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.blacklist, addr)
}

func (p *TxPool) isBlacklisted(addr common.Address) bool {
	return p.blacklist[addr] < 0
}

// Len reports the number of transactions currently pooled.
func (p *TxPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.order.Len()
}
