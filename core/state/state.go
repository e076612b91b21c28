package state

import (
	"math/big"

	"github.com/permachain/core/common"
	"github.com/permachain/core/core/types"
	"github.com/permachain/core/crypto"
	"github.com/permachain/core/rlp"
)

type storageKey = [32]byte

// checkpoint snapshots every account/storage slot the instant before its
// first mutation since the checkpoint was opened.
type checkpoint struct {
	accounts map[common.Address]*types.Account
	storage  map[common.Address]map[storageKey]storageKey
	created  map[common.Address]bool // allocated per frame; no State method writes or reads it
}

func newCheckpoint() *checkpoint {
	return &checkpoint{
		accounts: make(map[common.Address]*types.Account),
		storage:  make(map[common.Address]map[storageKey]storageKey),
		created:  make(map[common.Address]bool),
	}
}

// State is the execution driver's handle onto the account trie. It
// is used by exactly one thread per block and offers no separate
// read-only view.
type State struct {
	trie        Trie
	startNonce  uint64
	accounts    map[common.Address]*types.Account
	storage     map[common.Address]map[storageKey]storageKey
	storageTrie map[common.Address]Trie
	code        map[common.Address][]byte
	abi         map[common.Address][]byte
	dirty       map[common.Address]bool
	checkpoints []*checkpoint
}

func New(trie Trie, startNonce uint64) *State {
	return &State{
		trie:        trie,
		startNonce:  startNonce,
		accounts:    make(map[common.Address]*types.Account),
		storage:     make(map[common.Address]map[storageKey]storageKey),
		storageTrie: make(map[common.Address]Trie),
		code:        make(map[common.Address][]byte),
		abi:         make(map[common.Address][]byte),
		dirty:       make(map[common.Address]bool),
	}
}

func (s *State) getAccount(addr common.Address) *types.Account {
	if acc, ok := s.accounts[addr]; ok {
		return acc
	}
	if raw, ok := s.trie.Get(addr.Bytes()); ok {
		acc := new(types.Account)
		if err := rlp.DecodeBytes(raw, acc); err == nil {
			s.accounts[addr] = acc
			return acc
		}
	}
	acc := types.NewAccount(s.startNonce)
	s.accounts[addr] = acc
	return acc
}

// require snapshots addr's current account (and, if key != nil, its
// storage slot) into the open checkpoint the first time it is touched,
// then returns the live account for mutation — the single
// require-then-mutate path every caller goes through.
func (s *State) require(addr common.Address, key *storageKey) *types.Account {
	acc := s.getAccount(addr)
	if len(s.checkpoints) > 0 {
		cp := s.checkpoints[len(s.checkpoints)-1]
		if _, ok := cp.accounts[addr]; !ok {
			cp.accounts[addr] = acc.Copy()
		}
		if key != nil {
			if cp.storage[addr] == nil {
				cp.storage[addr] = make(map[storageKey]storageKey)
			}
			if _, ok := cp.storage[addr][*key]; !ok {
				cp.storage[addr][*key] = s.storageAt(addr, *key)
			}
		}
	}
	s.dirty[addr] = true
	return acc
}

func (s *State) storageAt(addr common.Address, key storageKey) storageKey {
	if m, ok := s.storage[addr]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	var out storageKey
	if tr, ok := s.storageTrie[addr]; ok {
		if raw, ok := tr.Get(key[:]); ok {
			copy(out[:], raw)
		}
	}
	return out
}

// Balance reads addr's balance, defaulting to 0 for an unseen address.
func (s *State) Balance(addr common.Address) *big.Int {
	return new(big.Int).Set(s.getAccount(addr).Balance)
}

func (s *State) Nonce(addr common.Address) uint64 { return s.getAccount(addr).Nonce }

func (s *State) Code(addr common.Address) []byte { return s.code[addr] }

func (s *State) Abi(addr common.Address) []byte { return s.abi[addr] }

func (s *State) StorageAt(addr common.Address, key storageKey) storageKey {
	return s.storageAt(addr, key)
}

func (s *State) AddBalance(addr common.Address, amount *big.Int) {
	acc := s.require(addr, nil)
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
}

// SubBalance debits amount from addr; callers must have checked sufficient
// balance beforehand.
func (s *State) SubBalance(addr common.Address, amount *big.Int) {
	acc := s.require(addr, nil)
	acc.Balance = new(big.Int).Sub(acc.Balance, amount)
}

func (s *State) IncNonce(addr common.Address) {
	acc := s.require(addr, nil)
	acc.Nonce++
}

func (s *State) SetStorage(addr common.Address, key, value storageKey) {
	s.require(addr, &key)
	if s.storage[addr] == nil {
		s.storage[addr] = make(map[storageKey]storageKey)
	}
	s.storage[addr][key] = value
}

func (s *State) InitCode(addr common.Address, code []byte) {
	s.require(addr, nil)
	s.code[addr] = code
}

func (s *State) InitAbi(addr common.Address, abi []byte) {
	s.require(addr, nil)
	s.abi[addr] = abi
}

// Checkpoint opens a new nested transactional layer.
func (s *State) Checkpoint() int {
	s.checkpoints = append(s.checkpoints, newCheckpoint())
	return len(s.checkpoints) - 1
}

// DiscardCheckpoint merges the top checkpoint's snapshot into its parent
// (a successful call frame), so an outer revert still sees the inner
// frame's pre-state.
func (s *State) DiscardCheckpoint() {
	n := len(s.checkpoints)
	if n == 0 {
		return
	}
	top := s.checkpoints[n-1]
	s.checkpoints = s.checkpoints[:n-1]
	if n == 1 {
		return
	}
	parent := s.checkpoints[n-2]
	for addr, acc := range top.accounts {
		if _, ok := parent.accounts[addr]; !ok {
			parent.accounts[addr] = acc
		}
	}
	for addr, slots := range top.storage {
		if parent.storage[addr] == nil {
			parent.storage[addr] = make(map[storageKey]storageKey)
		}
		for k, v := range slots {
			if _, ok := parent.storage[addr][k]; !ok {
				parent.storage[addr][k] = v
			}
		}
	}
}

// RevertToCheckpoint restores every account/storage slot snapshotted since
// the top checkpoint was opened. Reverting never rolls back reads into
// cache, only account data.
func (s *State) RevertToCheckpoint() {
	n := len(s.checkpoints)
	if n == 0 {
		return
	}
	top := s.checkpoints[n-1]
	s.checkpoints = s.checkpoints[:n-1]
	for addr, acc := range top.accounts {
		s.accounts[addr] = acc
	}
	for addr, slots := range top.storage {
		if s.storage[addr] == nil {
			s.storage[addr] = make(map[storageKey]storageKey)
		}
		for k, v := range slots {
			s.storage[addr][k] = v
		}
	}
}

// Commit flushes every dirty account to the trie and returns the new
// state_root. Must be called exactly once per block.
func (s *State) Commit() (common.Hash, error) {
	for addr := range s.dirty {
		acc := s.accounts[addr]
		if slots, ok := s.storage[addr]; ok && len(slots) > 0 {
			tr, ok := s.storageTrie[addr]
			if !ok {
				tr = NewTrie()
				s.storageTrie[addr] = tr
			}
			for k, v := range slots {
				tr.Put(k[:], v[:])
			}
			root := tr.Root()
			acc.StorageRoot = root
		}
		if code, ok := s.code[addr]; ok {
			acc.CodeHash = crypto.Keccak256(code)
		}
		if abi, ok := s.abi[addr]; ok {
			acc.AbiHash = crypto.Keccak256(abi)
		}
		enc, err := rlp.EncodeToBytes(acc)
		if err != nil {
			return common.Hash{}, err
		}
		s.trie.Put(addr.Bytes(), enc)
	}
	s.dirty = make(map[common.Address]bool)
	return s.trie.Root(), nil
}

// StateProof is the Merkle proof chain get_state_proof returns,
// verified with VerifyProof against the account trie's root for the
// account leaf, and against the storage trie's root for the slot leaf.
type StateProof struct {
	AccountProof [][]byte
	ValueProof   [][]byte
	AccountRoot  common.Hash
	StorageRoot  common.Hash
}

func (s *State) GetStateProof(addr common.Address, key storageKey) StateProof {
	accProof := s.trie.Proof(addr.Bytes())
	var valProof [][]byte
	storageRoot := s.getAccount(addr).StorageRoot
	if tr, ok := s.storageTrie[addr]; ok {
		valProof = tr.Proof(key[:])
	}
	return StateProof{
		AccountProof: accProof,
		ValueProof:   valProof,
		AccountRoot:  s.trie.Root(),
		StorageRoot:  storageRoot,
	}
}
