package core

import (
	"math/big"

	"github.com/permachain/core/common"
	"github.com/permachain/core/core/state"
	"github.com/permachain/core/core/types"
	"github.com/permachain/core/crypto"
	"github.com/permachain/core/rlp"
)

// Env is the execution environment a block's transactions run against
//: `{ number, timestamp, last_256_hashes, quota_limit, author }`.
type Env struct {
	Number         uint64
	Timestamp      uint64
	Last256Hashes  [256]common.Hash
	QuotaLimit     uint64
	Author         common.Address
}

// Executor is the pluggable pure-function collaborator this package needs:
// `exec(state, env, tx) -> (new_state, receipt)`. The concrete EVM/VM is
// out of scope; this core only needs the narrow contract a call dispatches
// through.
type Executor interface {
	// Call executes a Call/Store action against to, returning quota
	// consumed, emitted logs, and an exception classification.
	Call(st *state.State, env Env, sender, to common.Address, data []byte, quota uint64) (quotaUsed uint64, logs []*types.Log, exception types.ReceiptError)
	// Create executes a Create action, additionally returning the new
	// contract address.
	Create(st *state.State, env Env, sender common.Address, data []byte, quota uint64) (contractAddr common.Address, quotaUsed uint64, logs []*types.Log, exception types.ReceiptError)
}

// Config is the admission/charge-model snapshot re-checked per
// transaction.
type Config struct {
	ChainID            *big.Int
	Version            types.Version
	BlockQuotaLimit    uint64
	AccountQuotaLimit  uint64
	CheckQuota         bool
	GasPrice           *big.Int
	FeeBackPlatform    bool
	ChainOwner         *common.Address
}

// QuotaBudget tracks the remaining block-wide and per-sender quota while a
// block's transactions are applied in order.
type QuotaBudget struct {
	Block   uint64
	PerAcct map[common.Address]uint64
}

func NewQuotaBudget(cfg Config) *QuotaBudget {
	return &QuotaBudget{Block: cfg.BlockQuotaLimit, PerAcct: make(map[common.Address]uint64)}
}

// ApplyTransaction runs one transaction end to end.
func ApplyTransaction(
	ex Executor,
	st *state.State,
	env Env,
	cfg Config,
	budget *QuotaBudget,
	tx *types.Transaction,
	cumulativeQuotaUsed uint64,
	nextHeight uint64,
	blockLimit uint64,
) (*types.Receipt, error) {
	sender, err := tx.Sender()
	if err != nil {
		return failReceipt(tx, types.ErrTransactionMalformed, cumulativeQuotaUsed), nil
	}

	// Step 1: redundant admission preconditions.
	if tx.ChainID == nil || cfg.ChainID == nil || tx.ChainID.Cmp(cfg.ChainID) != 0 {
		return failReceipt(tx, types.ErrNoTransactionPermission, cumulativeQuotaUsed), nil
	}
	if tx.Version != cfg.Version {
		return failReceipt(tx, types.ErrTransactionMalformed, cumulativeQuotaUsed), nil
	}
	if tx.ValidUntilBlock < nextHeight || tx.ValidUntilBlock >= nextHeight+blockLimit {
		return failReceipt(tx, types.ErrTransactionMalformed, cumulativeQuotaUsed), nil
	}
	wantNonce := nonceFromBytes(tx.Nonce)
	if wantNonce != st.Nonce(sender) {
		return failReceipt(tx, types.ErrInvalidNonce, cumulativeQuotaUsed), nil
	}
	if tx.Quota > cfg.BlockQuotaLimit {
		return failReceipt(tx, types.ErrBlockQuotaLimitReached, cumulativeQuotaUsed), nil
	}
	if tx.Quota > budget.Block {
		return failReceipt(tx, types.ErrBlockQuotaLimitReached, cumulativeQuotaUsed), nil
	}
	if cfg.CheckQuota {
		limit := budget.PerAcct[sender]
		if limit == 0 {
			limit = cfg.AccountQuotaLimit
		}
		if tx.Quota > limit {
			return failReceipt(tx, types.ErrAccountQuotaLimitReached, cumulativeQuotaUsed), nil
		}
		budget.PerAcct[sender] = limit - tx.Quota
	}

	cost := new(big.Int).Mul(cfg.GasPrice, new(big.Int).SetUint64(tx.Quota))
	if st.Balance(sender).Cmp(cost) < 0 {
		return failReceipt(tx, types.ErrNotEnoughCash, cumulativeQuotaUsed), nil
	}

	// Step 2: debit charge, increment nonce. These are never rolled back by
	// a call exception — only the dispatch below is checkpointed.
	st.SubBalance(sender, cost)
	st.IncNonce(sender)
	budget.Block -= tx.Quota

	// Step 3/4: dispatch by action, invoke executor.
	st.Checkpoint()
	var (
		quotaUsed    uint64
		logs         []*types.Log
		exception    types.ReceiptError
		contractAddr *common.Address
	)
	switch tx.Action() {
	case types.ActionCreate:
		var addr common.Address
		addr, quotaUsed, logs, exception = ex.Create(st, env, sender, tx.Data, tx.Quota)
		contractAddr = &addr
	case types.ActionStore:
		quotaUsed, logs, exception = ex.Call(st, env, sender, common.StoreAddress, tx.Data, tx.Quota)
	default:
		quotaUsed, logs, exception = ex.Call(st, env, sender, *tx.To, tx.Data, tx.Quota)
	}

	// Step 5: on exception, revert to the pre-call checkpoint.
	if exception != types.ErrNone {
		st.RevertToCheckpoint()
	} else {
		st.DiscardCheckpoint()
	}

	// Step 6: refund unused quota, or fee back the platform.
	used := quotaUsed
	if used > tx.Quota {
		used = tx.Quota
	}
	refund := new(big.Int).Mul(cfg.GasPrice, new(big.Int).SetUint64(tx.Quota-used))
	if cfg.FeeBackPlatform && cfg.ChainOwner != nil {
		st.AddBalance(*cfg.ChainOwner, refund)
	} else {
		st.AddBalance(sender, refund)
	}

	// Step 7: emit receipt.
	r := &types.Receipt{
		TxHash:              tx.Hash(),
		CumulativeQuotaUsed: cumulativeQuotaUsed + used,
		Logs:                logs,
		Error:               exception,
		ContractAddress:     contractAddr,
		QuotaUsed:           used,
	}
	assignLogIndices(r, logs)
	var bloom types.Bloom
	for _, l := range logs {
		bloom.Add(l.Address.Bytes())
		for _, t := range l.Topics {
			bloom.Add(t.Bytes())
		}
	}
	r.LogBloom = bloom
	root, err := st.Commit()
	if err != nil {
		return nil, err
	}
	r.StateRootAfter = root
	return r, nil
}

// assignLogIndices fills Log.TxLogIndex (per-transaction, in execution
// order) and Log.TxHash. The block-wide Log.Index is assigned later by
// ChainCore.ApplyBlock across all of the block's logs.
func assignLogIndices(r *types.Receipt, logs []*types.Log) {
	for i, l := range logs {
		l.TxLogIndex = uint(i)
		l.TxHash = r.TxHash
	}
}

func failReceipt(tx *types.Transaction, reason types.ReceiptError, cumulative uint64) *types.Receipt {
	return &types.Receipt{
		TxHash:              tx.Hash(),
		CumulativeQuotaUsed: cumulative,
		Error:               reason,
	}
}

func nonceFromBytes(b []byte) uint64 {
	var n uint64
	for _, c := range b {
		n = n<<8 | uint64(c)
	}
	return n
}

// CreateAddress computes a Create action's new address, `keccak(rlp([sender,
// nonce]))`.
func CreateAddress(sender common.Address, nonce uint64) (common.Address, error) {
	b, err := rlp.EncodeToBytes([]interface{}{sender, nonce})
	if err != nil {
		return common.Address{}, err
	}
	h := crypto.Keccak256(b)
	var addr common.Address
	copy(addr[:], h[12:])
	return addr, nil
}
