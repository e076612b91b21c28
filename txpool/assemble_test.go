package txpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permachain/core/common"
	"github.com/permachain/core/core/types"
)

func TestAssembleDrainsInFIFOOrderWithinBudget(t *testing.T) {
	p := newTestPool(t)
	tx1, _ := newSignedTx(t, 50, 100)
	tx2, _ := newSignedTx(t, 50, 100)
	_, r1 := p.Verify(tx1)
	_, r2 := p.Verify(tx2)
	require.Equal(t, ReasonOK, r1)
	require.Equal(t, ReasonOK, r2)

	picked := p.Assemble(nil)
	require.Len(t, picked, 2)
	assert.Equal(t, tx1.Hash(), picked[0].Hash())
	assert.Equal(t, tx2.Hash(), picked[1].Hash())
}

func TestAssembleStopsAtBlockQuota(t *testing.T) {
	p := newTestPool(t)
	p.cfg.BlockQuotaLimit = 150
	tx1, _ := newSignedTx(t, 50, 100)
	tx2, _ := newSignedTx(t, 50, 100)
	p.Verify(tx1)
	p.Verify(tx2)

	picked := p.Assemble(nil)
	require.Len(t, picked, 1)
	assert.Equal(t, tx1.Hash(), picked[0].Hash())
}

func TestAssembleDropsFailingLiveCheck(t *testing.T) {
	p := newTestPool(t)
	tx1, addr1 := newSignedTx(t, 50, 100)
	tx2, _ := newSignedTx(t, 50, 100)
	p.Verify(tx1)
	p.Verify(tx2)
	require.Equal(t, 2, p.Len())

	rejectFirst := func(tx *types.Transaction, signer common.Address) bool {
		return signer != addr1
	}

	picked := p.Assemble(rejectFirst)
	require.Len(t, picked, 1)
	assert.Equal(t, tx2.Hash(), picked[0].Hash())
	// the failing tx must be evicted from the pool outright, not just skipped
	assert.Equal(t, 1, p.Len())
}
