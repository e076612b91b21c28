package types

import "github.com/permachain/core/common"

// Committee is the validator set `V` taken from committed state,
// ordered deterministically so round-robin proposer selection is stable
// across nodes.
type Committee []common.Address

// Len is N in the quorum formula Q = ⌊2N/3⌋ + 1.
func (c Committee) Len() int { return len(c) }

// Quorum returns Q, the number of votes needed for a BFT quorum.
func (c Committee) Quorum() int {
	n := len(c)
	return 2*n/3 + 1
}

// Proposer implements proposer(H, R) = V[(H + R) mod N].
func (c Committee) Proposer(height uint64, round int64) common.Address {
	if len(c) == 0 {
		return common.Address{}
	}
	idx := (int64(height) + round) % int64(len(c))
	if idx < 0 {
		idx += int64(len(c))
	}
	return c[idx]
}

// Contains reports whether addr is a member of the committee.
func (c Committee) Contains(addr common.Address) bool {
	for _, m := range c {
		if m == addr {
			return true
		}
	}
	return false
}

// ChainStatus is the status digest the chain advertises to consensus and
// external observers.
type ChainStatus struct {
	Height        uint64
	Hash          common.Hash
	Nodes         []common.Address
	Validators    Committee
	BlockInterval uint64
	Version       uint32
	Timestamp     uint64
}

// TxIndexEntry is the `tx_hash → { block_hash, index_in_block }` mapping of
// types, unified on the v1 presence-checked semantics.
type TxIndexEntry struct {
	BlockHash common.Hash
	Index     uint32
}
