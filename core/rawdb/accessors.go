package rawdb

import (
	"github.com/pkg/errors"

	"github.com/permachain/core/common"
	"github.com/permachain/core/core/types"
	"github.com/permachain/core/rlp"
)

// WriteBlockBatch stages every write for one applied block into a single
// Batch, so ChainCore.ApplyBlock can commit them atomically.
func WriteBlockBatch(
	b Batch,
	block *types.Block,
	receipts types.Receipts,
	bloomGroupWrites map[string][]byte,
) error {
	height := block.Header().Height.Uint64()

	headerBytes, err := rlp.EncodeToBytes(block.Header())
	if err != nil {
		return errors.Wrap(err, "rawdb: encode header")
	}
	b.Put(HeaderKey(height), headerBytes)

	bodyBytes, err := rlp.EncodeToBytes(block.Body().Transactions)
	if err != nil {
		return errors.Wrap(err, "rawdb: encode body")
	}
	b.Put(BodyKey(height), bodyBytes)

	hash := block.Hash()
	b.Put(HeightByHashKey(hash), encodeHeight(height))

	receiptBytes, err := rlp.EncodeToBytes(receipts)
	if err != nil {
		return errors.Wrap(err, "rawdb: encode receipts")
	}
	b.Put(ReceiptsKey(hash), receiptBytes)

	for i, tx := range block.Body().Transactions {
		entry := types.TxIndexEntry{BlockHash: hash, Index: uint32(i)}
		eb, err := rlp.EncodeToBytes(entry)
		if err != nil {
			return errors.Wrap(err, "rawdb: encode tx index")
		}
		b.Put(TxIndexKey(tx.Hash()), eb)
	}

	for k, v := range bloomGroupWrites {
		b.Put([]byte(k), v)
	}

	b.Put(currentHashKey, hash.Bytes())
	b.Put(currentHeightKey, encodeHeight(height))
	if block.Header().Proof != nil {
		proofBytes, err := rlp.EncodeToBytes(block.Header().Proof)
		if err != nil {
			return errors.Wrap(err, "rawdb: encode proof")
		}
		b.Put(currentProofKey, proofBytes)
	}
	return nil
}

func ReadHeader(db KvStore, height uint64) (*types.Header, error) {
	v, err := db.Get(HeaderKey(height))
	if err != nil {
		return nil, err
	}
	h := new(types.Header)
	if err := rlp.DecodeBytes(v, h); err != nil {
		return nil, errors.Wrap(err, "rawdb: decode header")
	}
	return h, nil
}

func ReadBody(db KvStore, height uint64) (types.Transactions, error) {
	v, err := db.Get(BodyKey(height))
	if err != nil {
		return nil, err
	}
	var txs types.Transactions
	if err := rlp.DecodeBytes(v, &txs); err != nil {
		return nil, errors.Wrap(err, "rawdb: decode body")
	}
	return txs, nil
}

func ReadHeightByHash(db KvStore, hash common.Hash) (uint64, bool) {
	v, err := db.Get(HeightByHashKey(hash))
	if err != nil {
		return 0, false
	}
	return decodeHeight(v), true
}

func ReadReceipts(db KvStore, hash common.Hash) (types.Receipts, error) {
	v, err := db.Get(ReceiptsKey(hash))
	if err != nil {
		return nil, err
	}
	var rs types.Receipts
	if err := rlp.DecodeBytes(v, &rs); err != nil {
		return nil, errors.Wrap(err, "rawdb: decode receipts")
	}
	return rs, nil
}

// ReadTxIndex returns the tx index entry and whether it is present,
// unifying on the v1 presence-checked semantics (REDESIGN FLAGS).
func ReadTxIndex(db KvStore, txHash common.Hash) (types.TxIndexEntry, bool) {
	v, err := db.Get(TxIndexKey(txHash))
	if err != nil {
		return types.TxIndexEntry{}, false
	}
	var entry types.TxIndexEntry
	if err := rlp.DecodeBytes(v, &entry); err != nil {
		return types.TxIndexEntry{}, false
	}
	return entry, true
}

func ReadCurrentHash(db KvStore) (common.Hash, bool) {
	v, err := db.Get(currentHashKey)
	if err != nil {
		return common.Hash{}, false
	}
	return common.BytesToHash(v), true
}

func ReadCurrentHeight(db KvStore) (uint64, bool) {
	v, err := db.Get(currentHeightKey)
	if err != nil {
		return 0, false
	}
	return decodeHeight(v), true
}

func decodeHeight(b []byte) uint64 {
	var n uint64
	for _, c := range b {
		n = n<<8 | uint64(c)
	}
	return n
}
