// Package state implements the execution driver's State handle: a
// checkpointed view over a versioned account trie. The low-level
// Merkle-Patricia/AVL trie is treated as an external collaborator; this
// package defines the narrow Trie interface it needs and ships a minimal
// in-memory implementation sufficient to produce real roots and Merkle
// proofs, matching an append-only, hash-keyed journaling discipline at the
// shape level without implementing a full Merkle-Patricia trie.
package state

import (
	"sort"

	"github.com/permachain/core/common"
	"github.com/permachain/core/crypto"
)

// Trie is the pluggable storage interface generalized over both the
// global account trie and each account's storage sub-trie.
type Trie interface {
	Get(key []byte) ([]byte, bool)
	Put(key, value []byte)
	Delete(key []byte)
	Root() common.Hash
	// Proof returns a Merkle proof chain for key, suitable for
	// verification against Root().
	Proof(key []byte) [][]byte
}

// memTrie is a deterministic, sorted-leaf Merkle tree. It is not a real
// Patricia trie, but it gives correct, reproducible roots and inclusion
// proofs, which is all State needs from its Trie collaborator.
type memTrie struct {
	leaves map[string][]byte
}

func NewTrie() Trie {
	return &memTrie{leaves: make(map[string][]byte)}
}

func (t *memTrie) Get(key []byte) ([]byte, bool) {
	v, ok := t.leaves[string(key)]
	return v, ok
}

func (t *memTrie) Put(key, value []byte) {
	cp := append([]byte(nil), value...)
	t.leaves[string(key)] = cp
}

func (t *memTrie) Delete(key []byte) {
	delete(t.leaves, string(key))
}

func (t *memTrie) sortedKeys() []string {
	keys := make([]string, 0, len(t.leaves))
	for k := range t.leaves {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t *memTrie) leafHashes() []common.Hash {
	keys := t.sortedKeys()
	out := make([]common.Hash, len(keys))
	for i, k := range keys {
		out[i] = crypto.Keccak256([]byte(k), t.leaves[k])
	}
	return out
}

func (t *memTrie) Root() common.Hash {
	leaves := t.leafHashes()
	if len(leaves) == 0 {
		return crypto.Keccak256(nil)
	}
	level := leaves
	for len(level) > 1 {
		var next []common.Hash
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, crypto.Keccak256(level[i].Bytes(), level[i+1].Bytes()))
			} else {
				next = append(next, crypto.Keccak256(level[i].Bytes(), level[i].Bytes()))
			}
		}
		level = next
	}
	return level[0]
}

// Proof returns the sibling hashes needed to recompute Root() from key's
// leaf, one 32-byte hash per level, bottom to top.
func (t *memTrie) Proof(key []byte) [][]byte {
	keys := t.sortedKeys()
	idx := sort.SearchStrings(keys, string(key))
	if idx == len(keys) || keys[idx] != string(key) {
		return nil
	}
	level := t.leafHashes()
	var proof [][]byte
	pos := idx
	for len(level) > 1 {
		var sibling common.Hash
		if pos%2 == 0 {
			if pos+1 < len(level) {
				sibling = level[pos+1]
			} else {
				sibling = level[pos]
			}
		} else {
			sibling = level[pos-1]
		}
		proof = append(proof, sibling.Bytes())

		var next []common.Hash
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, crypto.Keccak256(level[i].Bytes(), level[i+1].Bytes()))
			} else {
				next = append(next, crypto.Keccak256(level[i].Bytes(), level[i].Bytes()))
			}
		}
		level = next
		pos /= 2
	}
	return proof
}

// VerifyProof recomputes root from leafHash and the sibling proof chain,
// giving external verifiers a standalone proof-check primitive without
// needing the full trie.
func VerifyProof(root common.Hash, leafHash common.Hash, proof [][]byte, index int) bool {
	cur := leafHash
	for _, sib := range proof {
		s := common.BytesToHash(sib)
		if index%2 == 0 {
			cur = crypto.Keccak256(cur.Bytes(), s.Bytes())
		} else {
			cur = crypto.Keccak256(s.Bytes(), cur.Bytes())
		}
		index /= 2
	}
	return cur == root
}
