package core

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permachain/core/common"
	"github.com/permachain/core/core/state"
	"github.com/permachain/core/core/types"
	"github.com/permachain/core/crypto"
)

func newTestState(t *testing.T) *state.State {
	t.Helper()
	return state.New(state.NewTrie(), 0)
}

func newSignedCallTx(t *testing.T, to common.Address, quota uint64, chainID *big.Int) (*types.Transaction, common.Address) {
	t.Helper()
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	key := crypto.NewKey(priv)
	tx := &types.Transaction{
		Nonce:           []byte{0},
		To:              &to,
		ValidUntilBlock: 100,
		Quota:           quota,
		ChainID:         chainID,
		Version:         types.VersionV1,
	}
	addr, err := tx.SignWith(key)
	require.NoError(t, err)
	return tx, addr
}

func baseConfig() Config {
	return Config{
		ChainID:           big.NewInt(1),
		Version:           types.VersionV1,
		BlockQuotaLimit:   1_000_000,
		AccountQuotaLimit: 500_000,
		GasPrice:          big.NewInt(1),
	}
}

func TestApplyTransactionSuccessPath(t *testing.T) {
	st := newTestState(t)
	to := common.HexToAddress("0x00000000000000000000000000000000000002")
	tx, sender := newSignedCallTx(t, to, 1000, big.NewInt(1))

	st.AddBalance(sender, big.NewInt(10_000))

	ex := &stubExecutor{callQuota: 500}
	cfg := baseConfig()
	budget := NewQuotaBudget(cfg)

	receipt, err := ApplyTransaction(ex, st, Env{Number: 1}, cfg, budget, tx, 0, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, types.ErrNone, receipt.Error)
	assert.Equal(t, uint64(500), receipt.QuotaUsed)
	assert.Equal(t, uint64(1), st.Nonce(sender))
	// refunded 500 unused quota at gas price 1
	assert.Equal(t, big.NewInt(9500), st.Balance(sender))
}

func TestApplyTransactionRejectsWrongChainID(t *testing.T) {
	st := newTestState(t)
	to := common.HexToAddress("0x00000000000000000000000000000000000002")
	tx, sender := newSignedCallTx(t, to, 1000, big.NewInt(999))
	st.AddBalance(sender, big.NewInt(10_000))

	ex := &stubExecutor{}
	cfg := baseConfig()
	budget := NewQuotaBudget(cfg)

	receipt, err := ApplyTransaction(ex, st, Env{Number: 1}, cfg, budget, tx, 0, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, types.ErrNoTransactionPermission, receipt.Error)
	assert.Equal(t, uint64(0), st.Nonce(sender)) // rejected before debit
}

func TestApplyTransactionRejectsBadNonce(t *testing.T) {
	st := newTestState(t)
	to := common.HexToAddress("0x00000000000000000000000000000000000002")
	tx, sender := newSignedCallTx(t, to, 1000, big.NewInt(1))
	st.AddBalance(sender, big.NewInt(10_000))
	st.IncNonce(sender) // live nonce is now 1, tx still claims 0

	ex := &stubExecutor{}
	cfg := baseConfig()
	budget := NewQuotaBudget(cfg)

	receipt, err := ApplyTransaction(ex, st, Env{Number: 1}, cfg, budget, tx, 0, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, types.ErrInvalidNonce, receipt.Error)
}

func TestApplyTransactionRejectsInsufficientBalance(t *testing.T) {
	st := newTestState(t)
	to := common.HexToAddress("0x00000000000000000000000000000000000002")
	tx, _ := newSignedCallTx(t, to, 1000, big.NewInt(1))
	// sender left with zero balance

	ex := &stubExecutor{}
	cfg := baseConfig()
	budget := NewQuotaBudget(cfg)

	receipt, err := ApplyTransaction(ex, st, Env{Number: 1}, cfg, budget, tx, 0, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, types.ErrNotEnoughCash, receipt.Error)
}

func TestApplyTransactionRevertsStateOnException(t *testing.T) {
	st := newTestState(t)
	to := common.HexToAddress("0x00000000000000000000000000000000000002")
	tx, sender := newSignedCallTx(t, to, 1000, big.NewInt(1))
	st.AddBalance(sender, big.NewInt(10_000))

	ex := &stubExecutor{callQuota: 1000, callException: types.ErrReverted, mutate: true}
	cfg := baseConfig()
	budget := NewQuotaBudget(cfg)

	receipt, err := ApplyTransaction(ex, st, Env{Number: 1}, cfg, budget, tx, 0, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, types.ErrReverted, receipt.Error)
	// the executor's nonce mutation on `to` must be rolled back by RevertToCheckpoint
	assert.Equal(t, uint64(0), st.Nonce(to))
	// debit/nonce increment on sender happened before the checkpoint and is not reverted
	assert.Equal(t, uint64(1), st.Nonce(sender))
}

// stubExecutor is a narrow Executor test double: it optionally touches
// state (IncNonce on `to`) so revert-on-exception can be observed.
type stubExecutor struct {
	callQuota     uint64
	callException types.ReceiptError
	mutate        bool
}

func (e *stubExecutor) Call(st *state.State, env Env, sender, to common.Address, data []byte, quota uint64) (uint64, []*types.Log, types.ReceiptError) {
	if e.mutate {
		st.IncNonce(to)
	}
	return e.callQuota, nil, e.callException
}

func (e *stubExecutor) Create(st *state.State, env Env, sender common.Address, data []byte, quota uint64) (common.Address, uint64, []*types.Log, types.ReceiptError) {
	addr, _ := CreateAddress(sender, st.Nonce(sender))
	return addr, e.callQuota, nil, e.callException
}
