package txpool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permachain/core/common"
	"github.com/permachain/core/core/types"
)

func TestVerifyBatchInsertsAllValid(t *testing.T) {
	p := newTestPool(t)
	tx1, addr1 := newSignedTx(t, 50, 100)
	tx2, addr2 := newSignedTx(t, 50, 100)

	signers, reasons := p.VerifyBatch(context.Background(), []*types.Transaction{tx1, tx2}, 4)
	require.Len(t, signers, 2)
	require.Len(t, reasons, 2)
	assert.Equal(t, ReasonOK, reasons[0])
	assert.Equal(t, ReasonOK, reasons[1])
	assert.Equal(t, addr1, signers[0])
	assert.Equal(t, addr2, signers[1])
	assert.Equal(t, 2, p.Len())
}

func TestVerifyBatchRejectsOneOfMany(t *testing.T) {
	p := newTestPool(t)
	tx1, _ := newSignedTx(t, 50, 100)
	tx2, _ := newSignedTx(t, 5, 100) // already expired against nextHeight=10

	signers, reasons := p.VerifyBatch(context.Background(), []*types.Transaction{tx1, tx2}, 4)
	require.Len(t, reasons, 2)
	assert.Equal(t, ReasonOK, reasons[0])
	assert.Equal(t, ReasonExpired, reasons[1])
	assert.NotEqual(t, common.Address{}, signers[1]) // signature still recovered even though admission failed
	assert.Equal(t, 1, p.Len())
}

func TestVerifyBatchResubmissionIsIdempotent(t *testing.T) {
	p := newTestPool(t)
	tx, _ := newSignedTx(t, 50, 100)

	_, reasons := p.VerifyBatch(context.Background(), []*types.Transaction{tx, tx}, 4)
	require.Len(t, reasons, 2)
	assert.Equal(t, ReasonOK, reasons[0])
	assert.Equal(t, ReasonOK, reasons[1])
	// insertLocked no-ops on an already-pooled hash, so the pool only ever
	// holds one copy even though both admission checks passed.
	assert.Equal(t, 1, p.Len())
}
