package types

import (
	"io"
	"math/big"

	"github.com/permachain/core/common"
	"github.com/permachain/core/crypto"
	"github.com/permachain/core/rlp"
)

// Version tags the protocol version a transaction targets. Every version
// uses the same field shapes (a fixed 20-byte `to` and a big.Int chain id);
// no legacy hex-string `to` or 32-bit chain id encoding is implemented.
type Version uint32

const (
	VersionLegacy Version = 0
	VersionV1     Version = 1
)

// Transaction is the signed transaction. Nonce is kept as a byte
// slice (not a counter) — admission checks its length rather than its
// numeric value.
type Transaction struct {
	Nonce           []byte
	To              *common.Address // nil for a Create action
	Value           [32]byte
	Data            []byte
	ValidUntilBlock uint64
	Quota           uint64
	ChainID         *big.Int
	Version         Version
	Signature       []byte

	// cache, not part of the wire encoding
	hash   *common.Hash
	sender *common.Address
}

// Action classifies how a transaction is dispatched.
type Action int

const (
	ActionCall Action = iota
	ActionCreate
	ActionStore
)

func (tx *Transaction) Action() Action {
	switch {
	case tx.To == nil:
		return ActionCreate
	case *tx.To == common.StoreAddress:
		return ActionStore
	default:
		return ActionCall
	}
}

// txWire mirrors the Proposal encoding trick (consensus/tendermint/message) of passing an
// explicit "is nil" flag alongside a field RLP cannot natively represent as
// absent — here `to` being unset for a Create action, rather
// than the zero address.
type txWire struct {
	Nonce           []byte
	HasTo           bool
	To              common.Address
	Value           [32]byte
	Data            []byte
	ValidUntilBlock uint64
	Quota           uint64
	ChainID         *big.Int
	Version         uint32
	Signature       []byte
}

// EncodeRLP implements rlp.Encoder for Transaction.
func (tx *Transaction) EncodeRLP(w io.Writer) error {
	enc := txWire{
		Nonce:           tx.Nonce,
		Value:           tx.Value,
		Data:            tx.Data,
		ValidUntilBlock: tx.ValidUntilBlock,
		Quota:           tx.Quota,
		ChainID:         tx.ChainID,
		Version:         uint32(tx.Version),
		Signature:       tx.Signature,
	}
	if enc.ChainID == nil {
		enc.ChainID = new(big.Int)
	}
	if tx.To != nil {
		enc.HasTo = true
		enc.To = *tx.To
	}
	return rlp.Encode(w, enc)
}

// DecodeRLP implements rlp.Decoder for Transaction.
func (tx *Transaction) DecodeRLP(s *rlp.Stream) error {
	var enc txWire
	if err := s.Decode(&enc); err != nil {
		return err
	}
	tx.Nonce = enc.Nonce
	if enc.HasTo {
		to := enc.To
		tx.To = &to
	} else {
		tx.To = nil
	}
	tx.Value = enc.Value
	tx.Data = enc.Data
	tx.ValidUntilBlock = enc.ValidUntilBlock
	tx.Quota = enc.Quota
	tx.ChainID = enc.ChainID
	tx.Version = Version(enc.Version)
	tx.Signature = enc.Signature
	tx.hash = nil
	tx.sender = nil
	return nil
}

// unsignedPayload returns the RLP encoding of every field except the
// signature, the payload that is both signed and hashed for recovery.
func (tx *Transaction) unsignedPayload() ([]byte, error) {
	type unsigned struct {
		Nonce           []byte
		To              []byte
		Value           []byte
		Data            []byte
		ValidUntilBlock uint64
		Quota           uint64
		ChainID         *big.Int
		Version         uint32
	}
	to := []byte{}
	if tx.To != nil {
		to = tx.To.Bytes()
	}
	chainID := tx.ChainID
	if chainID == nil {
		chainID = new(big.Int)
	}
	return rlp.EncodeToBytes(unsigned{
		Nonce:           tx.Nonce,
		To:              to,
		Value:           tx.Value[:],
		Data:            tx.Data,
		ValidUntilBlock: tx.ValidUntilBlock,
		Quota:           tx.Quota,
		ChainID:         chainID,
		Version:         uint32(tx.Version),
	})
}

// HashOfUnsigned is the digest that Signature is computed (and recovered)
// over, `hash_of_unsigned`.
func (tx *Transaction) HashOfUnsigned() (common.Hash, error) {
	b, err := tx.unsignedPayload()
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256(b), nil
}

// SignedBytes is the full RLP encoding including the signature, whose hash
// is the transaction's tx_hash.
func (tx *Transaction) SignedBytes() ([]byte, error) {
	return rlp.EncodeToBytes(tx)
}

// Hash returns (and caches) tx_hash = hash(signed_bytes).
func (tx *Transaction) Hash() common.Hash {
	if tx.hash != nil {
		return *tx.hash
	}
	b, err := tx.SignedBytes()
	if err != nil {
		return common.Hash{}
	}
	h := crypto.Keccak256(b)
	tx.hash = &h
	return h
}

// Sender recovers and caches sender = recover(signature, hash_of_unsigned).
func (tx *Transaction) Sender() (common.Address, error) {
	if tx.sender != nil {
		return *tx.sender, nil
	}
	digest, err := tx.HashOfUnsigned()
	if err != nil {
		return common.Address{}, err
	}
	addr, err := crypto.RecoverAddress(digest, tx.Signature)
	if err != nil {
		return common.Address{}, err
	}
	tx.sender = &addr
	return addr, nil
}

// Signer is the narrow signing capability SignWith needs; crypto.Key
// satisfies it.
type Signer interface {
	Sign(digest common.Hash) ([]byte, error)
}

// SignWith signs the transaction with signer and returns the sender address.
func (tx *Transaction) SignWith(signer Signer) (common.Address, error) {
	digest, err := tx.HashOfUnsigned()
	if err != nil {
		return common.Address{}, err
	}
	sig, err := signer.Sign(digest)
	if err != nil {
		return common.Address{}, err
	}
	tx.Signature = sig
	tx.hash = nil
	tx.sender = nil
	return tx.Sender()
}

// Transactions is a list of transactions, the unit the merkle root over
// body.transactions is computed from.
type Transactions []*Transaction

func (txs Transactions) Hashes() []common.Hash {
	out := make([]common.Hash, len(txs))
	for i, tx := range txs {
		out[i] = tx.Hash()
	}
	return out
}
