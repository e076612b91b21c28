package types

import (
	"io"
	"math/big"
	"sync"

	"github.com/permachain/core/common"
	"github.com/permachain/core/crypto"
	"github.com/permachain/core/rlp"
)

// EmptyRoot/EmptyCodeHash are the sentinel hashes an account with no
// storage/code reads as.
var (
	EmptyRoot     = crypto.Keccak256(nil)
	EmptyCodeHash = crypto.Keccak256(nil)
)

// GenesisProof is the sentinel proof value the height-1 header carries
//.
var GenesisProof = &Proof{}

// Header is the block header.
type Header struct {
	Height           *big.Int
	ParentHash       common.Hash
	Timestamp        uint64
	Proposer         common.Address
	TransactionsRoot common.Hash
	StateRoot        common.Hash
	ReceiptsRoot     common.Hash
	LogBloom         Bloom
	QuotaUsed        uint64
	Proof            *Proof

	hash hashCache
}

type hashCache struct {
	mu sync.Mutex
	v  *common.Hash
}

// Hash returns (and caches) hash(header), `parent_hash` of the child block.
func (h *Header) Hash() common.Hash {
	h.hash.mu.Lock()
	defer h.hash.mu.Unlock()
	if h.hash.v != nil {
		return *h.hash.v
	}
	b, err := rlp.EncodeToBytes(h)
	if err != nil {
		return common.Hash{}
	}
	v := crypto.Keccak256(b)
	h.hash.v = &v
	return v
}

// Body holds a block's transaction list.
type Body struct {
	Transactions Transactions
}

// Block pairs a header and body and is immutable once past the precommit
// quorum.
type Block struct {
	header *Header
	body   *Body
}

func NewBlock(header *Header, txs Transactions) *Block {
	return &Block{header: header, body: &Body{Transactions: txs}}
}

func (b *Block) Header() *Header             { return b.header }
func (b *Block) Body() *Body                 { return b.body }
func (b *Block) Transactions() Transactions  { return b.body.Transactions }
func (b *Block) Number() *big.Int            { return new(big.Int).Set(b.header.Height) }
func (b *Block) ParentHash() common.Hash     { return b.header.ParentHash }
func (b *Block) Hash() common.Hash           { return b.header.Hash() }
func (b *Block) WithBody(txs Transactions) *Block {
	return &Block{header: b.header, body: &Body{Transactions: txs}}
}

// EncodeRLP implements rlp.Encoder for Block, encoding header and body as
// a single list.
func (b *Block) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, []interface{}{b.header, b.body.Transactions})
}

// DecodeRLP implements rlp.Decoder for Block.
func (b *Block) DecodeRLP(s *rlp.Stream) error {
	var enc struct {
		Header *Header
		Txs    Transactions
	}
	if err := s.Decode(&enc); err != nil {
		return err
	}
	b.header = enc.Header
	b.body = &Body{Transactions: enc.Txs}
	return nil
}
