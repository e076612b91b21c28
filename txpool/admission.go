package txpool

import (
	"github.com/permachain/core/common"
	"github.com/permachain/core/core/types"
)

// Verify runs the nine single-transaction admission checks and, on
// success, inserts the transaction into the pool and returns its recovered
// signer.
func (p *TxPool) Verify(tx *types.Transaction) (common.Address, Reason) {
	signer, reason := p.checkStateless(tx)
	if reason != ReasonOK {
		return common.Address{}, reason
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isBlacklisted(signer) {
		return common.Address{}, ReasonForbidden
	}
	if p.cfg.Admin != nil && signer != *p.cfg.Admin {
		return common.Address{}, ReasonForbidden
	}
	if tx.ValidUntilBlock < p.nextHeight || tx.ValidUntilBlock >= p.nextHeight+BlockLimit {
		return common.Address{}, ReasonExpired
	}
	hash := tx.Hash()
	if p.inHistory(hash) {
		return common.Address{}, ReasonDup
	}
	if reason := p.checkQuota(tx, signer); reason != ReasonOK {
		return common.Address{}, reason
	}

	p.insertLocked(tx, hash)
	return signer, ReasonOK
}

// checkStateless covers admission steps that need no pool lock: envelope
// shape, signature recovery, and the version, chain id, `to` and nonce
// length checks. The `to` and chain id checks are the same for every version.
func (p *TxPool) checkStateless(tx *types.Transaction) (common.Address, Reason) {
	if tx.Version != p.cfg.Version {
		return common.Address{}, ReasonMalformed
	}
	if tx.Action() == types.ActionCall && tx.To == nil {
		return common.Address{}, ReasonMalformed
	}
	if len(tx.Nonce) > 128 {
		return common.Address{}, ReasonMalformed
	}
	if tx.ChainID == nil || p.cfg.ChainID == nil || tx.ChainID.Cmp(p.cfg.ChainID) != 0 {
		return common.Address{}, ReasonWrongChainID
	}

	hash := tx.Hash()
	if cached, ok := p.sigCache.Get(hash); ok {
		return cached.(common.Address), ReasonOK
	}
	signer, err := tx.Sender()
	if err != nil {
		return common.Address{}, ReasonBadSignature
	}
	p.sigCache.Add(hash, signer)
	return signer, ReasonOK
}

func (p *TxPool) checkQuota(tx *types.Transaction, signer common.Address) Reason {
	if tx.Quota > p.cfg.BlockQuotaLimit {
		return ReasonQuotaTooLarge
	}
	if p.cfg.CheckQuota {
		limit := p.cfg.AccountQuotaLimitBase
		if l, ok := p.cfg.PerAccountLimit[signer]; ok {
			limit = l
		}
		if tx.Quota > limit {
			return ReasonQuotaTooLarge
		}
	}
	return ReasonOK
}

// inHistory reports tx_hash ∈ ⋃ hashes_at(h) over the buffered heights
//. Caller holds p.mu.
func (p *TxPool) inHistory(hash common.Hash) bool {
	for _, set := range p.history {
		if _, ok := set[hash]; ok {
			return true
		}
	}
	return false
}

func (p *TxPool) insertLocked(tx *types.Transaction, hash common.Hash) {
	if _, exists := p.byHash[hash]; exists {
		return
	}
	el := p.order.PushBack(tx)
	p.byHash[hash] = el
}

// VerifyBlock implements block-verify admission: identical per-tx
// rules plus an aggregate quota pass that walks transactions in order
// against a remaining block/per-signer budget.
func (p *TxPool) VerifyBlock(txs []*types.Transaction) ([]common.Address, Reason) {
	signers := make([]common.Address, len(txs))
	for i, tx := range txs {
		signer, reason := p.checkStateless(tx)
		if reason != ReasonOK {
			return nil, reason
		}
		signers[i] = signer
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	remaining := p.cfg.BlockQuotaLimit
	perSigner := make(map[common.Address]uint64, len(txs))
	seen := make(map[common.Hash]struct{}, len(txs))

	for i, tx := range txs {
		signer := signers[i]
		if p.isBlacklisted(signer) {
			return nil, ReasonForbidden
		}
		if p.cfg.Admin != nil && signer != *p.cfg.Admin {
			return nil, ReasonForbidden
		}
		if tx.ValidUntilBlock < p.nextHeight || tx.ValidUntilBlock >= p.nextHeight+BlockLimit {
			return nil, ReasonExpired
		}
		hash := tx.Hash()
		if _, dup := seen[hash]; dup || p.inHistory(hash) {
			return nil, ReasonDup
		}
		seen[hash] = struct{}{}

		if tx.Quota > remaining {
			return nil, ReasonQuotaNotEnough
		}
		remaining -= tx.Quota

		if p.cfg.CheckQuota {
			budget, ok := perSigner[signer]
			if !ok {
				budget = p.cfg.AccountQuotaLimitBase
				if l, ok := p.cfg.PerAccountLimit[signer]; ok {
					budget = l
				}
			}
			if tx.Quota > budget {
				return nil, ReasonQuotaNotEnough
			}
			perSigner[signer] = budget - tx.Quota
		}
	}
	return signers, ReasonOK
}

// OnBlockCommitted prunes committed tx hashes from the pool and records
// them in the recent-heights history buffer, evicting entries older than
// BlockLimit heights.
func (p *TxPool) OnBlockCommitted(height uint64, hashes []common.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()

	set := make(map[common.Hash]struct{}, len(hashes))
	for _, h := range hashes {
		set[h] = struct{}{}
		if el, ok := p.byHash[h]; ok {
			p.order.Remove(el)
			delete(p.byHash, h)
		}
	}
	p.history[height] = set
	p.nextHeight = height + 1

	for h := range p.history {
		if h+BlockLimit < height {
			delete(p.history, h)
		}
	}
}
