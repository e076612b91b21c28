package core

import (
	"github.com/permachain/core/common"
	"github.com/permachain/core/consensus/tendermint/message"
	"github.com/permachain/core/core/types"
	"github.com/permachain/core/wal"
)

// startRound enters a new round at the current height, broadcasting a
// Proposal if this node is proposer.
func (c *Core) startRound(round int64) {
	c.mu.Lock()
	c.round = round
	c.step = message.StepPropose
	c.line34Executed, c.line36Executed, c.line47Executed = false, false, false
	height, lockedRound, lockedValue := c.height, c.lockedRound, c.lockedValue
	c.mu.Unlock()

	_ = c.wal.Append(height, round, wal.KindStateTransition, stateTransitionRecord{Height: height, Round: round, Step: message.StepPropose})

	if !c.isProposer(round) {
		c.proposeTimer.schedule(proposeTimeout(round), func() { c.onProposeTimeout(height, round) })
		return
	}

	var block *types.Block
	var err error
	if lockedRound != -1 && lockedValue != nil {
		// (a) re-broadcast the locked block.
		block = lockedValue
	} else {
		// (b) assemble a fresh candidate.
		block, err = c.backend.AssembleBlock(height)
		if err != nil {
			c.logger.Error("startRound: assemble block failed", "err", err)
			c.proposeTimer.schedule(proposeTimeout(round), func() { c.onProposeTimeout(height, round) })
			return
		}
	}

	proposal := &message.Proposal{Height: height, Round: round, Block: block, LockRound: lockedRound}
	msg, err := message.NewProposalMessage(proposal, c.backend.Key())
	if err != nil {
		c.logger.Error("startRound: sign proposal failed", "err", err)
		return
	}
	_ = c.wal.Append(height, round, wal.KindProposal, proposal)
	c.cache.addProposal(msg.Hash, proposal)
	c.backend.Broadcast(msg)
	c.proposeTimer.schedule(proposeTimeout(round), func() { c.onProposeTimeout(height, round) })
}

type stateTransitionRecord struct {
	Height uint64
	Round  int64
	Step   message.Step
}

func (c *Core) onProposeTimeout(height uint64, round int64) {
	c.mu.Lock()
	stale := height != c.height || round != c.round || c.step != message.StepPropose
	c.mu.Unlock()
	if stale {
		return
	}
	c.sendPrevote(common.Hash{})
}

// sendPrevote broadcasts a prevote for hash (the null hash if nothing is
// acceptable), then enters PrevoteWait.
func (c *Core) sendPrevote(hash common.Hash) {
	c.mu.Lock()
	height, round := c.height, c.round
	c.step = message.StepPrevote
	c.mu.Unlock()

	v := &message.Vote{Height: height, Round: round, Step: message.StepPrevote, ProposalHash: hash}
	msg, err := message.NewVoteMessage(v, message.CodePrevote, c.backend.Key())
	if err != nil {
		c.logger.Error("sendPrevote: sign failed", "err", err)
		return
	}
	_ = c.wal.Append(height, round, wal.KindVote, v)
	c.cache.addVote(msg.Hash, v, message.CodePrevote)
	c.backend.Broadcast(msg)
	c.prevoteTimer.schedule(prevoteTimeout(round), func() { c.onPrevoteTimeout(height, round) })
}

func (c *Core) onPrevoteTimeout(height uint64, round int64) {
	c.mu.Lock()
	stale := height != c.height || round != c.round || c.step != message.StepPrevote
	c.mu.Unlock()
	if stale {
		return
	}
	// (c) PrevoteWait timer fired without a single hash reaching quorum:
	// precommit null.
	c.sendPrecommit(common.Hash{})
}

// sendPrecommit broadcasts the precommit, then enters PrecommitWait.
func (c *Core) sendPrecommit(hash common.Hash) {
	c.mu.Lock()
	height, round := c.height, c.round
	c.step = message.StepPrecommit
	c.mu.Unlock()

	v := &message.Vote{Height: height, Round: round, Step: message.StepPrecommit, ProposalHash: hash}
	msg, err := message.NewVoteMessage(v, message.CodePrecommit, c.backend.Key())
	if err != nil {
		c.logger.Error("sendPrecommit: sign failed", "err", err)
		return
	}
	_ = c.wal.Append(height, round, wal.KindVote, v)
	c.cache.addVote(msg.Hash, v, message.CodePrecommit)
	c.backend.Broadcast(msg)
	c.precommitTimer.schedule(precommitTimeout(round), func() { c.onPrecommitTimeout(height, round) })
}

func (c *Core) onPrecommitTimeout(height uint64, round int64) {
	c.mu.Lock()
	stale := height != c.height || round != c.round
	c.mu.Unlock()
	if stale {
		return
	}
	// PrecommitWait timeout without quorum: advance to the next round
	// retaining any lock, then advances to the next round's Propose step.
	c.startRound(round + 1)
}

// commit assembles the Proof from collected precommit signatures and
// hands the block to the chain.
func (c *Core) commit(block *types.Block, round int64) {
	votes := c.cache.votesFor(block.Header().Height.Uint64(), round, message.CodePrecommit)
	commits := make(map[common.Address][]byte, len(votes))
	for _, v := range votes {
		if v.ProposalHash == block.Hash() {
			commits[v.Sender] = v.Signature
		}
	}
	proof := types.NewProof(block.Header().Height.Uint64(), round, block.Hash(), commits)
	_ = c.wal.Append(block.Header().Height.Uint64(), round, wal.KindProof, proof)
	if err := c.backend.Commit(block, proof); err != nil {
		c.logger.Error("commit: backend commit failed", "err", err)
	}
}
