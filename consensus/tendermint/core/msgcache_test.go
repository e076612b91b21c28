package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permachain/core/common"
	"github.com/permachain/core/consensus/tendermint/message"
)

func newVote(height uint64, round int64, step message.Step, sender byte, hash common.Hash) *message.Vote {
	var addr common.Address
	addr[19] = sender
	return &message.Vote{Height: height, Round: round, Step: step, Sender: addr, ProposalHash: hash}
}

func TestMsgCacheAddVoteRejectsDuplicateSender(t *testing.T) {
	c := newMsgCache()
	hash := common.HexToHash("0x01")
	v1 := newVote(1, 0, message.StepPrevote, 1, hash)
	v2 := newVote(1, 0, message.StepPrevote, 1, common.HexToHash("0x02"))

	assert.True(t, c.addVote(common.HexToHash("0xa1"), v1, message.CodePrevote))
	assert.False(t, c.addVote(common.HexToHash("0xa2"), v2, message.CodePrevote))
}

func TestMsgCacheTallyCountsDistinctSenders(t *testing.T) {
	c := newMsgCache()
	hash := common.HexToHash("0x01")
	for i := byte(1); i <= 3; i++ {
		v := newVote(1, 0, message.StepPrevote, i, hash)
		require.True(t, c.addVote(common.BytesToHash([]byte{i}), v, message.CodePrevote))
	}

	winner, n, ok := c.tally(1, 0, message.CodePrevote, 3, nil)
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	assert.Equal(t, hash, winner)

	_, n2, ok2 := c.tally(1, 0, message.CodePrevote, 4, nil)
	assert.False(t, ok2)
	assert.Equal(t, 3, n2)
}

func TestMsgCacheAddProposalAndLookup(t *testing.T) {
	c := newMsgCache()
	p := &message.Proposal{Height: 1, Round: 0, LockRound: -1}
	msgHash := common.HexToHash("0xbb")
	assert.True(t, c.addProposal(msgHash, p))
	assert.False(t, c.addProposal(common.HexToHash("0xcc"), p)) // same (height,round,sender) dup

	got := c.proposalAt(1, 0)
	require.NotNil(t, got)
	assert.Equal(t, p, got)
}

func TestMsgCacheSetValidAndIsValid(t *testing.T) {
	c := newMsgCache()
	hash := common.HexToHash("0xdd")
	assert.False(t, c.isValid(hash))
	c.setValid(hash)
	assert.True(t, c.isValid(hash))
	assert.True(t, c.isValid(common.Hash{})) // the null hash is always acceptable
}

func TestMsgCacheDeleteBeforeDropsOldHeights(t *testing.T) {
	c := newMsgCache()
	v := newVote(1, 0, message.StepPrevote, 1, common.Hash{})
	require.True(t, c.addVote(common.HexToHash("0x01"), v, message.CodePrevote))

	c.deleteBefore(1)
	assert.Nil(t, c.votesFor(1, 0, message.CodePrevote))
}

func TestMsgCacheFirstHeightBuffered(t *testing.T) {
	c := newMsgCache()
	assert.Equal(t, uint64(0), c.FirstHeightBuffered())

	v := newVote(5, 0, message.StepPrevote, 1, common.Hash{})
	c.addVote(common.HexToHash("0x01"), v, message.CodePrevote)
	assert.Equal(t, uint64(5), c.FirstHeightBuffered())
}
