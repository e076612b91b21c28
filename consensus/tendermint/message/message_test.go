package message

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permachain/core/common"
	"github.com/permachain/core/core/types"
	"github.com/permachain/core/crypto"
	"github.com/permachain/core/rlp"
)

func newTestKey(t *testing.T) *crypto.Key {
	t.Helper()
	priv, err := crypto.GenerateKey()
	require.NoError(t, err)
	k := crypto.NewKey(priv)
	return &k
}

func newTestBlock() *types.Block {
	h := &types.Header{Height: big.NewInt(1), ParentHash: common.Hash{}}
	return types.NewBlock(h, nil)
}

func TestVoteSignAndVerify(t *testing.T) {
	key := newTestKey(t)
	v := &Vote{Height: 10, Round: 2, Step: StepPrevote, ProposalHash: common.HexToHash("0x01")}
	require.NoError(t, v.Sign(key))
	assert.Equal(t, key.Address(), v.Sender)
	assert.NoError(t, v.VerifySignature())
}

func TestVoteVerifyRejectsTamperedSender(t *testing.T) {
	key := newTestKey(t)
	v := &Vote{Height: 10, Round: 2, Step: StepPrevote, ProposalHash: common.HexToHash("0x01")}
	require.NoError(t, v.Sign(key))

	other := newTestKey(t)
	v.Sender = other.Address()
	assert.Error(t, v.VerifySignature())
}

func TestVoteRLPRoundTrip(t *testing.T) {
	key := newTestKey(t)
	v := &Vote{Height: 10, Round: 2, Step: StepPrecommit, ProposalHash: common.HexToHash("0x02")}
	require.NoError(t, v.Sign(key))

	b, err := v.UnsignedBytes()
	require.NoError(t, err)
	assert.NotEmpty(t, b)

	var decoded Vote
	require.NoError(t, rlp.DecodeBytes(b, &decoded))
	assert.Equal(t, v.Height, decoded.Height)
	assert.Equal(t, v.Round, decoded.Round)
	assert.Equal(t, v.Step, decoded.Step)
	assert.Equal(t, v.Sender, decoded.Sender)
	assert.Equal(t, v.ProposalHash, decoded.ProposalHash)
}

func TestVoteRejectsOversizedRound(t *testing.T) {
	oversized := &Vote{Height: 1, Round: MaxRound + 1, Step: StepPrevote}
	b, err := oversized.UnsignedBytes()
	require.NoError(t, err)

	var decoded Vote
	err = rlp.DecodeBytes(b, &decoded)
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestProposalSignAndVerify(t *testing.T) {
	key := newTestKey(t)
	p := &Proposal{Height: 5, Round: 0, Block: newTestBlock(), LockRound: -1}
	require.NoError(t, p.Sign(key))
	assert.Equal(t, key.Address(), p.Sender)
	assert.NoError(t, p.VerifySignature())
}

func TestProposalWireNilBlockFails(t *testing.T) {
	p := &Proposal{Height: 5, Round: 0, Block: nil, LockRound: -1}
	_, err := p.wire()
	assert.ErrorIs(t, err, ErrNilBlock)
}

func TestNewVoteMessageRoundTrip(t *testing.T) {
	key := newTestKey(t)
	v := &Vote{Height: 1, Round: 0, Step: StepPrevote, ProposalHash: common.HexToHash("0x03")}
	msg, err := NewVoteMessage(v, CodePrevote, key)
	require.NoError(t, err)
	require.NoError(t, msg.VerifySignature())

	decoded, err := msg.DecodeVote()
	require.NoError(t, err)
	assert.Equal(t, v.ProposalHash, decoded.ProposalHash)
	assert.Equal(t, key.Address(), decoded.Sender)
}

func TestNewProposalMessageRoundTrip(t *testing.T) {
	key := newTestKey(t)
	p := &Proposal{Height: 1, Round: 0, Block: newTestBlock(), LockRound: -1}
	msg, err := NewProposalMessage(p, key)
	require.NoError(t, err)
	require.NoError(t, msg.VerifySignature())

	decoded, err := msg.DecodeProposal()
	require.NoError(t, err)
	assert.Equal(t, int64(-1), decoded.LockRound)
	assert.Equal(t, p.Block.Hash(), decoded.Block.Hash())
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "propose", StepPropose.String())
	assert.Equal(t, "prevote", StepPrevote.String())
	assert.Equal(t, "precommit", StepPrecommit.String())
}
