// Package crypto provides the primitives the rest of the core needs:
// Keccak256 hashing plus secp256k1 sign/recover, as package-level
// functions and the Key type.
package crypto

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	ecdsabtc "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/permachain/core/common"
)

const SignatureLength = 65 // R || S || V

var (
	ErrInvalidSignatureLen = errors.New("crypto: invalid signature length")
	ErrInvalidRecoveryID   = errors.New("crypto: invalid recovery id")
	secp256k1N             = btcec.S256().N
)

// Keccak256 computes the legacy (pre-NIST) Keccak256 digest used for
// block/transaction/account hashing throughout the core.
func Keccak256(data ...[]byte) common.Hash {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	var out common.Hash
	h.Sum(out[:0])
	return out
}

// PubkeyToAddress derives the 20-byte address from an uncompressed
// secp256k1 public key, matching the sender/recover flow.
func PubkeyToAddress(pub *ecdsa.PublicKey) common.Address {
	buf := elliptic.Marshal(btcec.S256(), pub.X, pub.Y)
	return common.BytesToAddress(Keccak256(buf[1:]).Bytes()[12:])
}

// GenerateKey creates a new secp256k1 keypair.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	key, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return key.ToECDSA(), nil
}

// Sign produces a 65 byte [R || S || V] signature over a 32 byte digest,
// the `signature` embedded in a signed transaction and in consensus votes.
func Sign(digest common.Hash, priv *ecdsa.PrivateKey) ([]byte, error) {
	if len(digest) != 32 {
		return nil, fmt.Errorf("crypto: digest must be 32 bytes, got %d", len(digest))
	}
	key := btcec.PrivKeyFromBytes(priv.D.Bytes())
	sig := ecdsabtc.SignCompact(key, digest[:], false)
	// SignCompact returns [V || R || S]; re-pack as [R || S || V] and
	// normalize V to {0,1} as used by the rest of the corpus.
	out := make([]byte, SignatureLength)
	copy(out, sig[1:])
	out[64] = sig[0] - 27
	return out, nil
}

// Recover recovers the public key that produced sig over digest.
func Recover(digest common.Hash, sig []byte) (*ecdsa.PublicKey, error) {
	if len(sig) != SignatureLength {
		return nil, ErrInvalidSignatureLen
	}
	if sig[64] >= 4 {
		return nil, ErrInvalidRecoveryID
	}
	compact := make([]byte, SignatureLength)
	compact[0] = sig[64] + 27
	copy(compact[1:], sig[:64])
	pub, _, err := ecdsabtc.RecoverCompact(compact, digest[:])
	if err != nil {
		return nil, err
	}
	return pub.ToECDSA(), nil
}

// RecoverAddress is the `recover(signature, hash)` primitive used to
// derive a transaction's sender or a vote's signer.
func RecoverAddress(digest common.Hash, sig []byte) (common.Address, error) {
	pub, err := Recover(digest, sig)
	if err != nil {
		return common.Address{}, err
	}
	return PubkeyToAddress(pub), nil
}

// VerifySignature reports whether sig is a valid signature over digest by
// the holder of pub, without recovery.
func VerifySignature(pub *ecdsa.PublicKey, digest, sig []byte) bool {
	if len(sig) < 64 {
		return false
	}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:64])
	if r.Sign() <= 0 || s.Sign() <= 0 || r.Cmp(secp256k1N) >= 0 || s.Cmp(secp256k1N) >= 0 {
		return false
	}
	return ecdsa.Verify(pub, digest, r, s)
}
