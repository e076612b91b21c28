package core

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permachain/core/common"
	"github.com/permachain/core/core/rawdb"
	"github.com/permachain/core/core/state"
	"github.com/permachain/core/core/types"
	"github.com/permachain/core/crypto"
	"github.com/permachain/core/log"
	"github.com/permachain/core/rlp"
)

var testValidatorKey, _ = crypto.GenerateKey()
var testValidator = crypto.PubkeyToAddress(&testValidatorKey.PublicKey)

func newTestChainCore(t *testing.T) (*ChainCore, rawdb.KvStore) {
	t.Helper()
	db, err := rawdb.Open("")
	require.NoError(t, err)

	genesis := &types.Header{Height: big.NewInt(1), Proof: types.GenesisProof}
	committee := types.Committee{testValidator}
	cc := NewChainCore(db, NewCacheManager(32), log.New(), genesis, committee)
	return cc, db
}

// precommitWire mirrors core/types/proof.go's unexported wire layout a
// commit's signature is computed over, so a test-built Proof is one
// Proof.Verify actually accepts.
type precommitWire struct {
	Height       uint64
	Round        uint64
	Step         uint8
	Sender       common.Address
	ProposalHash common.Hash
}

const precommitStep = 2

func signCommit(t *testing.T, height uint64, round int64, proposalHash common.Hash, sender common.Address) []byte {
	t.Helper()
	w := precommitWire{Height: height, Round: uint64(round), Step: precommitStep, Sender: sender, ProposalHash: proposalHash}
	b, err := rlp.EncodeToBytes(w)
	require.NoError(t, err)
	sig, err := crypto.Sign(crypto.Keccak256(b), testValidatorKey)
	require.NoError(t, err)
	return sig
}

// quorumProof builds a Proof with real, recoverable commit signatures from
// committee's leading members, enough to satisfy committee.Quorum().
func quorumProof(t *testing.T, height uint64, proposalHash common.Hash, committee types.Committee) *types.Proof {
	t.Helper()
	commits := make(map[common.Address][]byte, committee.Quorum())
	for i := 0; i < committee.Quorum() && i < len(committee); i++ {
		addr := committee[i]
		commits[addr] = signCommit(t, height, 0, proposalHash, addr)
	}
	return types.NewProof(height, 0, proposalHash, commits)
}

func TestApplyBlockAdvancesHeightAndPersists(t *testing.T) {
	cc, db := newTestChainCore(t)
	defer db.Close()

	committee := types.Committee{testValidator}
	parent := cc.CurrentHeader()
	header := &types.Header{Height: big.NewInt(2), ParentHash: parent.Hash()}
	header.Proof = quorumProof(t, 2, header.Hash(), committee)
	block := types.NewBlock(header, nil)

	st := state.New(state.NewTrie(), 0)
	cfg := baseConfig()

	receipts, err := cc.ApplyBlock(&stubExecutor{}, st, cfg, block, committee)
	require.NoError(t, err)
	assert.Len(t, receipts, 0)
	assert.Equal(t, uint64(2), cc.CurrentHeight())
	assert.Equal(t, block.Hash(), cc.CurrentHash())

	stored, err := cc.HeaderByHeight(2)
	require.NoError(t, err)
	assert.Equal(t, block.Hash(), stored.Hash())
}

func TestApplyBlockRejectsWrongHeight(t *testing.T) {
	cc, db := newTestChainCore(t)
	defer db.Close()

	header := &types.Header{Height: big.NewInt(5), ParentHash: cc.CurrentHeader().Hash()}
	block := types.NewBlock(header, nil)

	st := state.New(state.NewTrie(), 0)
	_, err := cc.ApplyBlock(&stubExecutor{}, st, baseConfig(), block, types.Committee{testValidator})
	assert.Error(t, err)
}

func TestApplyBlockRejectsParentMismatch(t *testing.T) {
	cc, db := newTestChainCore(t)
	defer db.Close()

	committee := types.Committee{testValidator}
	header := &types.Header{Height: big.NewInt(2), ParentHash: common.HexToHash("0xdead")}
	header.Proof = quorumProof(t, 2, header.Hash(), committee)
	block := types.NewBlock(header, nil)

	st := state.New(state.NewTrie(), 0)
	_, err := cc.ApplyBlock(&stubExecutor{}, st, baseConfig(), block, committee)
	assert.Error(t, err)
}

func TestApplyBlockRejectsMissingQuorumProof(t *testing.T) {
	cc, db := newTestChainCore(t)
	defer db.Close()

	committee := types.Committee{testValidator}
	parent := cc.CurrentHeader()
	header := &types.Header{Height: big.NewInt(2), ParentHash: parent.Hash()}
	header.Proof = quorumProof(t, 2, header.Hash(), committee)
	block := types.NewBlock(header, nil)

	st := state.New(state.NewTrie(), 0)
	_, err := cc.ApplyBlock(&stubExecutor{}, st, baseConfig(), block, committee)
	require.NoError(t, err)

	// height 3 now requires a quorum-witnessing proof; this header carries none.
	header3 := &types.Header{Height: big.NewInt(3), ParentHash: block.Hash()}
	block3 := types.NewBlock(header3, nil)
	_, err = cc.ApplyBlock(&stubExecutor{}, st, baseConfig(), block3, committee)
	assert.Error(t, err)
}

func TestApplyBlockRejectsProofFromNonMember(t *testing.T) {
	cc, db := newTestChainCore(t)
	defer db.Close()

	committee := types.Committee{testValidator}
	parent := cc.CurrentHeader()
	header := &types.Header{Height: big.NewInt(2), ParentHash: parent.Hash()}

	outsiderKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	outsider := crypto.PubkeyToAddress(&outsiderKey.PublicKey)
	w := precommitWire{Height: 2, Round: 0, Step: precommitStep, Sender: outsider, ProposalHash: header.Hash()}
	b, err := rlp.EncodeToBytes(w)
	require.NoError(t, err)
	sig, err := crypto.Sign(crypto.Keccak256(b), outsiderKey)
	require.NoError(t, err)
	header.Proof = types.NewProof(2, 0, header.Hash(), map[common.Address][]byte{outsider: sig})
	block := types.NewBlock(header, nil)

	st := state.New(state.NewTrie(), 0)
	_, err = cc.ApplyBlock(&stubExecutor{}, st, baseConfig(), block, committee)
	assert.Error(t, err)
}

func TestApplyBlockRejectsForgedSignature(t *testing.T) {
	cc, db := newTestChainCore(t)
	defer db.Close()

	committee := types.Committee{testValidator}
	parent := cc.CurrentHeader()
	header := &types.Header{Height: big.NewInt(2), ParentHash: parent.Hash()}
	header.Proof = types.NewProof(2, 0, header.Hash(), map[common.Address][]byte{
		testValidator: make([]byte, 65),
	})
	block := types.NewBlock(header, nil)

	st := state.New(state.NewTrie(), 0)
	_, err := cc.ApplyBlock(&stubExecutor{}, st, baseConfig(), block, committee)
	assert.Error(t, err)
}

func TestApplyBlockEmitsBlockTxHashesBeforeRichStatus(t *testing.T) {
	cc, db := newTestChainCore(t)
	defer db.Close()

	sub := cc.Subscribe(BlockTxHashes{}, RichStatus{})

	committee := types.Committee{testValidator}
	parent := cc.CurrentHeader()
	header := &types.Header{Height: big.NewInt(2), ParentHash: parent.Hash()}
	header.Proof = quorumProof(t, 2, header.Hash(), committee)
	block := types.NewBlock(header, nil)
	st := state.New(state.NewTrie(), 0)

	_, err := cc.ApplyBlock(&stubExecutor{}, st, baseConfig(), block, committee)
	require.NoError(t, err)

	first := <-sub.Chan()
	_, isTxHashes := first.Data.(BlockTxHashes)
	assert.True(t, isTxHashes, "BlockTxHashes must be posted before RichStatus")

	second := <-sub.Chan()
	_, isStatus := second.Data.(RichStatus)
	assert.True(t, isStatus)
}
