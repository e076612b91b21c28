package types

import "github.com/permachain/core/common"

// ReceiptError is the closed error taxonomy execution exceptions classify
// into.
type ReceiptError uint8

const (
	ErrNone ReceiptError = iota
	ErrOutOfQuota
	ErrBadJumpDestination
	ErrBadInstruction
	ErrStackUnderflow
	ErrOutOfStack
	ErrMutableCallInStaticContext
	ErrOutOfBounds
	ErrReverted
	ErrInternal
	ErrNotEnoughBase
	ErrBlockQuotaLimitReached
	ErrAccountQuotaLimitReached
	ErrInvalidNonce
	ErrNotEnoughCash
	ErrNoTransactionPermission
	ErrNoContractPermission
	ErrNoCallPermission
	ErrTransactionMalformed
)

func (e ReceiptError) String() string {
	switch e {
	case ErrNone:
		return ""
	case ErrOutOfQuota:
		return "OutOfQuota"
	case ErrBadJumpDestination:
		return "BadJumpDestination"
	case ErrBadInstruction:
		return "BadInstruction"
	case ErrStackUnderflow:
		return "StackUnderflow"
	case ErrOutOfStack:
		return "OutOfStack"
	case ErrMutableCallInStaticContext:
		return "MutableCallInStaticContext"
	case ErrOutOfBounds:
		return "OutOfBounds"
	case ErrReverted:
		return "Reverted"
	case ErrInternal:
		return "Internal"
	case ErrNotEnoughBase:
		return "NotEnoughBase"
	case ErrBlockQuotaLimitReached:
		return "BlockQuotaLimitReached"
	case ErrAccountQuotaLimitReached:
		return "AccountQuotaLimitReached"
	case ErrInvalidNonce:
		return "InvalidNonce"
	case ErrNotEnoughCash:
		return "NotEnoughCash"
	case ErrNoTransactionPermission:
		return "NoTransactionPermission"
	case ErrNoContractPermission:
		return "NoContractPermission"
	case ErrNoCallPermission:
		return "NoCallPermission"
	case ErrTransactionMalformed:
		return "TransactionMalformed"
	default:
		return "Unknown"
	}
}

// Log is one execution log entry; Index is block-wide, TxLogIndex restarts
// at 0 per transaction.
type Log struct {
	Address     common.Address
	Topics      []common.Hash
	Data        []byte
	BlockNumber uint64
	TxHash      common.Hash
	TxIndex     uint
	BlockHash   common.Hash
	Index       uint // log_index, block-wide
	TxLogIndex  uint // transaction_log_index, per-transaction
	Removed     bool
}

// Receipt is the per-transaction execution result.
type Receipt struct {
	TxHash              common.Hash
	CumulativeQuotaUsed uint64
	Logs                []*Log
	Error               ReceiptError
	StateRootAfter      common.Hash
	ContractAddress     *common.Address
	LogBloom            Bloom
	QuotaUsed           uint64
}

// Receipts is an ordered list of receipts for one block.
type Receipts []*Receipt

// Bloom ORs every receipt's LogBloom, the source of a header's log_bloom.
func (rs Receipts) Bloom() Bloom {
	var b Bloom
	for _, r := range rs {
		b.OrInto(r.LogBloom)
	}
	return b
}
