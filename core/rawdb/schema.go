// Package rawdb implements the persisted state layout: an ordered
// key-value store with the HEADERS/BODIES/EXTRA column namespaces,
// each a byte-prefixed keyspace over a single physical LevelDB instance —
// goleveldb gives us one real atomic write batch across all of them, which
// is what the chain's apply-block commit requires. State trie nodes are
// not stored here; core/state keeps its trie in memory.
package rawdb

import (
	"encoding/binary"

	"github.com/permachain/core/common"
)

var (
	headerPrefix  = []byte("H") // HEADERS: height -> header
	bodyPrefix    = []byte("B") // BODIES: height -> body
	heightByHash  = []byte("n") // EXTRA: hash -> height
	receiptPrefix = []byte("r") // EXTRA: hash -> BlockReceipts
	txIndexPrefix = []byte("t") // EXTRA: tx hash -> TransactionIndex
	bloomGroupKey = []byte("g") // EXTRA: BloomGroupPosition -> LogBloomGroup

	currentHashKey   = []byte("LastHash")
	currentHeightKey = []byte("LastHeight")
	currentProofKey  = []byte("LastProof")
)

func encodeHeight(height uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, height)
	return b
}

func HeaderKey(height uint64) []byte { return append(append([]byte{}, headerPrefix...), encodeHeight(height)...) }
func BodyKey(height uint64) []byte   { return append(append([]byte{}, bodyPrefix...), encodeHeight(height)...) }

func HeightByHashKey(hash common.Hash) []byte {
	return append(append([]byte{}, heightByHash...), hash.Bytes()...)
}

func ReceiptsKey(hash common.Hash) []byte {
	return append(append([]byte{}, receiptPrefix...), hash.Bytes()...)
}

func TxIndexKey(txHash common.Hash) []byte {
	return append(append([]byte{}, txIndexPrefix...), txHash.Bytes()...)
}

// BloomGroupKey encodes the (level, index) position of a bloom-group chain
// node into a column key.
func BloomGroupKey(level uint, index uint64) []byte {
	k := append([]byte{}, bloomGroupKey...)
	k = append(k, byte(level))
	return append(k, encodeHeight(index)...)
}
