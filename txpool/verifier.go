package txpool

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/permachain/core/common"
	"github.com/permachain/core/core/types"
)

// sigResult mirrors a sender-cache worker request/response shape:
// a batch item plus the slot its answer is written back to, so ordering
// survives a worker pool that finishes out of order.
type sigResult struct {
	index  int
	signer common.Address
	reason Reason
}

// VerifyBatch parallelises signature recovery across txs, then serially runs the remaining
// stateful admission checks in submission order.
func (p *TxPool) VerifyBatch(ctx context.Context, txs []*types.Transaction, workers int) ([]common.Address, []Reason) {
	results := make([]sigResult, len(txs))
	g, _ := errgroup.WithContext(ctx)

	sem := make(chan struct{}, workers)
	for i, tx := range txs {
		i, tx := i, tx
		sem <- struct{}{}
		g.Go(func() error {
			defer func() { <-sem }()
			signer, reason := p.checkStateless(tx)
			results[i] = sigResult{index: i, signer: signer, reason: reason}
			return nil
		})
	}
	_ = g.Wait()

	signers := make([]common.Address, len(txs))
	reasons := make([]Reason, len(txs))
	for i, tx := range txs {
		r := results[i]
		if r.reason != ReasonOK {
			signers[i], reasons[i] = common.Address{}, r.reason
			continue
		}
		p.mu.Lock()
		reason := ReasonOK
		if p.isBlacklisted(r.signer) {
			reason = ReasonForbidden
		} else if p.cfg.Admin != nil && r.signer != *p.cfg.Admin {
			reason = ReasonForbidden
		} else if tx.ValidUntilBlock < p.nextHeight || tx.ValidUntilBlock >= p.nextHeight+BlockLimit {
			reason = ReasonExpired
		} else if p.inHistory(tx.Hash()) {
			reason = ReasonDup
		} else if q := p.checkQuota(tx, r.signer); q != ReasonOK {
			reason = q
		} else {
			p.insertLocked(tx, tx.Hash())
		}
		p.mu.Unlock()

		signers[i], reasons[i] = r.signer, reason
	}
	return signers, reasons
}
