package txpool

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permachain/core/common"
	"github.com/permachain/core/core/types"
	"github.com/permachain/core/crypto"
)

var testChainID = big.NewInt(1)

func newSignedTx(t *testing.T, validUntil, quota uint64) (*types.Transaction, common.Address) {
	t.Helper()
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	key := crypto.NewKey(priv)

	to := common.HexToAddress("0x00000000000000000000000000000000000001")
	tx := &types.Transaction{
		Nonce:           []byte("n"),
		To:              &to,
		ValidUntilBlock: validUntil,
		Quota:           quota,
		ChainID:         testChainID,
		Version:         types.VersionV1,
	}
	addr, err := tx.SignWith(key)
	require.NoError(t, err)
	return tx, addr
}

func newTestPool(t *testing.T) *TxPool {
	t.Helper()
	cfg := Config{
		BlockQuotaLimit:       1_000_000,
		AccountQuotaLimitBase: 500_000,
		CheckQuota:            true,
		Version:               types.VersionV1,
		ChainID:               testChainID,
	}
	p := New(cfg, 256)
	p.SetNextHeight(10)
	return p
}

func TestVerifyAcceptsWellFormedTx(t *testing.T) {
	p := newTestPool(t)
	tx, addr := newSignedTx(t, 50, 1000)

	signer, reason := p.Verify(tx)
	assert.Equal(t, ReasonOK, reason)
	assert.Equal(t, addr, signer)
	assert.Equal(t, 1, p.Len())
}

func TestVerifyRejectsWrongChainID(t *testing.T) {
	p := newTestPool(t)
	tx, _ := newSignedTx(t, 50, 1000)
	tx.ChainID = big.NewInt(999)

	_, reason := p.Verify(tx)
	assert.Equal(t, ReasonWrongChainID, reason)
}

func TestVerifyRejectsExpired(t *testing.T) {
	p := newTestPool(t)
	tx, _ := newSignedTx(t, 5, 1000) // below nextHeight=10

	_, reason := p.Verify(tx)
	assert.Equal(t, ReasonExpired, reason)
}

func TestVerifyRejectsFarFutureExpiry(t *testing.T) {
	p := newTestPool(t)
	tx, _ := newSignedTx(t, 10+BlockLimit, 1000)

	_, reason := p.Verify(tx)
	assert.Equal(t, ReasonExpired, reason)
}

func TestVerifyRejectsDuplicate(t *testing.T) {
	p := newTestPool(t)
	tx, _ := newSignedTx(t, 50, 1000)

	_, reason := p.Verify(tx)
	require.Equal(t, ReasonOK, reason)

	p.OnBlockCommitted(10, []common.Hash{tx.Hash()})

	_, reason = p.Verify(tx)
	assert.Equal(t, ReasonDup, reason)
}

func TestVerifyRejectsQuotaTooLarge(t *testing.T) {
	p := newTestPool(t)
	tx, _ := newSignedTx(t, 50, 2_000_000)

	_, reason := p.Verify(tx)
	assert.Equal(t, ReasonQuotaTooLarge, reason)
}

func TestVerifyRejectsBlacklistedSender(t *testing.T) {
	p := newTestPool(t)
	tx, addr := newSignedTx(t, 50, 1000)
	p.Blacklist(addr)

	_, reason := p.Verify(tx)
	assert.Equal(t, ReasonForbidden, reason)
}

func TestClearLiftsBlacklist(t *testing.T) {
	p := newTestPool(t)
	tx, addr := newSignedTx(t, 50, 1000)
	p.Blacklist(addr)
	p.Clear(addr)

	_, reason := p.Verify(tx)
	assert.Equal(t, ReasonOK, reason)
}

func TestOnBlockCommittedPrunesAndAdvancesHeight(t *testing.T) {
	p := newTestPool(t)
	tx1, _ := newSignedTx(t, 50, 1000)
	tx2, _ := newSignedTx(t, 50, 1000)
	_, r1 := p.Verify(tx1)
	_, r2 := p.Verify(tx2)
	require.Equal(t, ReasonOK, r1)
	require.Equal(t, ReasonOK, r2)
	require.Equal(t, 2, p.Len())

	p.OnBlockCommitted(10, []common.Hash{tx1.Hash()})
	assert.Equal(t, 1, p.Len())
	assert.Equal(t, uint64(11), p.nextHeight)
}

func TestVerifyBlockAggregateQuota(t *testing.T) {
	p := newTestPool(t)
	tx1, _ := newSignedTx(t, 50, 600_000)
	tx2, _ := newSignedTx(t, 50, 600_000)

	_, reason := p.VerifyBlock([]*types.Transaction{tx1, tx2})
	assert.Equal(t, ReasonQuotaNotEnough, reason)
}

func TestVerifyBlockAcceptsWithinBudget(t *testing.T) {
	p := newTestPool(t)
	tx1, _ := newSignedTx(t, 50, 1000)
	tx2, _ := newSignedTx(t, 50, 1000)

	signers, reason := p.VerifyBlock([]*types.Transaction{tx1, tx2})
	require.Equal(t, ReasonOK, reason)
	assert.Len(t, signers, 2)
}
