package types

import "math/big"

// Account is the data stored at an address key in the global state trie
//. StorageRoot/CodeHash/AbiHash are empty-hash sentinels until set.
type Account struct {
	Balance     *big.Int
	Nonce       uint64
	StorageRoot [32]byte
	CodeHash    [32]byte
	AbiHash     [32]byte
}

// NewAccount returns the default account an unseen address reads as
//.
func NewAccount(startNonce uint64) *Account {
	return &Account{
		Balance:     new(big.Int),
		Nonce:       startNonce,
		StorageRoot: EmptyRoot,
		CodeHash:    EmptyCodeHash,
		AbiHash:     EmptyCodeHash,
	}
}

func (a *Account) Copy() *Account {
	cp := *a
	cp.Balance = new(big.Int).Set(a.Balance)
	return &cp
}
