package crypto

import (
	"crypto/ecdsa"

	"github.com/permachain/core/common"
)

// Key wraps a private key with the Sign(digest) capability that
// core/types.Transaction.SignWith and the consensus vote signer expect.
type Key struct {
	Priv *ecdsa.PrivateKey
}

func NewKey(priv *ecdsa.PrivateKey) Key { return Key{Priv: priv} }

func (k Key) Sign(digest common.Hash) ([]byte, error) { return Sign(digest, k.Priv) }

func (k Key) Address() common.Address { return PubkeyToAddress(&k.Priv.PublicKey) }
