package txpool

import (
	"github.com/permachain/core/common"
	"github.com/permachain/core/core/types"
)

// LiveStateCheck lets the caller reject a pooled transaction whose live
// on-chain state has moved past it (nonce advanced, valid_until_block
// expired) without this package depending on core/state.
type LiveStateCheck func(tx *types.Transaction, signer common.Address) bool

// Assemble drains up to block_quota_limit worth of transactions from the
// pool in admission order, subject to the per-account quota budget, for
// the proposer's block-assembly path. Transactions failing liveCheck are dropped from the pool,
// not merely skipped.
func (p *TxPool) Assemble(liveCheck LiveStateCheck) []*types.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()

	remaining := p.cfg.BlockQuotaLimit
	perSigner := make(map[common.Address]uint64)

	var picked []*types.Transaction

	for el := p.order.Front(); el != nil; {
		next := el.Next()
		tx := el.Value.(*types.Transaction)

		signer, ok := p.sigCache.Get(tx.Hash())
		if !ok {
			el = next
			continue
		}
		addr := signer.(common.Address)

		if liveCheck != nil && !liveCheck(tx, addr) {
			p.order.Remove(el)
			delete(p.byHash, tx.Hash())
			el = next
			continue
		}

		if tx.Quota > remaining {
			el = next
			continue
		}
		budget, seeded := perSigner[addr]
		if !seeded {
			budget = p.cfg.AccountQuotaLimitBase
			if l, ok := p.cfg.PerAccountLimit[addr]; ok {
				budget = l
			}
		}
		if p.cfg.CheckQuota && tx.Quota > budget {
			el = next
			continue
		}

		remaining -= tx.Quota
		if p.cfg.CheckQuota {
			perSigner[addr] = budget - tx.Quota
		}
		picked = append(picked, tx)
		el = next
	}

	return picked
}
