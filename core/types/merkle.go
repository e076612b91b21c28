package types

import (
	"github.com/permachain/core/common"
	"github.com/permachain/core/crypto"
)

// MerkleRoot computes a simple binary Merkle root over leaf hashes,
// `transactions_root = merkle(body.transactions)`. An empty list
// roots to EmptyRoot, a leaf list of one roots to that leaf.
func MerkleRoot(leaves []common.Hash) common.Hash {
	if len(leaves) == 0 {
		return EmptyRoot
	}
	level := append([]common.Hash(nil), leaves...)
	for len(level) > 1 {
		var next []common.Hash
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				next = append(next, hashPair(level[i], level[i]))
			}
		}
		level = next
	}
	return level[0]
}

func hashPair(a, b common.Hash) common.Hash {
	return crypto.Keccak256(a.Bytes(), b.Bytes())
}
