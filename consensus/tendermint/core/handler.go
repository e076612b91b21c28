package core

import (
	"context"

	"github.com/permachain/core/common"
	"github.com/permachain/core/consensus/tendermint/message"
	"github.com/permachain/core/rlp"
)

// MessageEvent and CommitEvent are the two event.TypeMux payloads the
// state machine subscribes to; transport-level message framing and block
// availability are Backend's responsibility.
type MessageEvent struct {
	Payload []byte
}

type CommitEvent struct{}

// Start launches the discrete event loop: one round is entered
// immediately at the node's current height, then mainEventLoop blocks on
// inbound messages and timeouts.
func (c *Core) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.messageSub = c.backend.Subscribe(MessageEvent{})
	c.commitSub = c.backend.Subscribe(CommitEvent{})

	c.startRound(0)
	go c.mainEventLoop(ctx)
}

func (c *Core) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.proposeTimer.stop()
	c.prevoteTimer.stop()
	c.precommitTimer.stop()
	if c.messageSub != nil {
		c.messageSub.Unsubscribe()
	}
	if c.commitSub != nil {
		c.commitSub.Unsubscribe()
	}
	<-c.done
}

func (c *Core) mainEventLoop(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case ev, ok := <-c.messageSub.Chan():
			if !ok {
				return
			}
			if me, ok := ev.Data.(MessageEvent); ok {
				if err := c.handleMsg(me.Payload); err != nil {
					c.logger.Debug("mainEventLoop: handleMsg failed", "err", err)
				}
			}
		case _, ok := <-c.commitSub.Chan():
			if !ok {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// handleMsg applies basic validity checks: decode the envelope, reject
// duplicates and malformed payloads, dispatch by code.
func (c *Core) handleMsg(payload []byte) error {
	m := new(message.Message)
	if err := rlp.DecodeBytes(payload, m); err != nil {
		return err
	}

	if err := m.VerifySignature(); err != nil {
		return err
	}
	if !c.committee().Contains(m.Address) {
		return errNotCommitteeMember
	}

	switch m.Code {
	case message.CodeProposal:
		p, err := m.DecodeProposal()
		if err != nil {
			return err
		}
		if !c.isProposerAt(p.Round, m.Address) {
			return errNotFromProposer
		}
		if !c.cache.addProposal(proposalHash(p), p) {
			return nil // duplicate, already processed
		}
		if err := c.backend.VerifyProposal(p.Block); err == nil {
			c.cache.setValid(p.Block.Hash())
		}
		return c.onMessage(p.Height, p.Round, message.CodeProposal, p.Block.Hash(), -1)

	case message.CodePrevote, message.CodePrecommit:
		v, err := m.DecodeVote()
		if err != nil {
			return err
		}
		if err := v.VerifySignature(); err != nil {
			return err
		}
		if !c.cache.addVote(voteHash(v), v, m.Code) {
			return nil
		}
		c.cache.setValid(v.ProposalHash)
		return c.onMessage(v.Height, v.Round, m.Code, v.ProposalHash, -1)

	default:
		return errUnrecognisedMessage
	}
}

func (c *Core) isProposerAt(round int64, addr common.Address) bool {
	return c.committee().Proposer(c.height, round) == addr
}

func proposalHash(p *message.Proposal) common.Hash {
	b, _ := rlp.EncodeToBytes(p)
	return common.BytesToHash(b) // distinct per (round,block); adequate for dedup indexing
}

func voteHash(v *message.Vote) common.Hash { return v.Hash() }

// onMessage runs checkUponConditions if the message is for our current
// height; future-height messages are buffered in cache for later, past-
// height messages are dropped.
func (c *Core) onMessage(height uint64, round int64, code message.Code, value common.Hash, validRound int64) error {
	if height != c.Height() {
		return nil
	}
	c.checkUponConditions(round, code, value, validRound)
	return nil
}

// checkUponConditions evaluates the per-round upon-rules, numbered to
// match the Tendermint paper's pseudocode line numbers (22/28/34/36/44/47/49/55).
func (c *Core) checkUponConditions(msgRound int64, code message.Code, value common.Hash, validRound int64) {
	c.mu.Lock()
	r, h, s := c.round, c.height, c.step
	c.mu.Unlock()
	q := c.quorum()

	p := c.cache.proposalAt(h, r)

	// Line 22: proposal for current round, no valid-round claim, still
	// proposing: prevote for it if acceptable, else prevote nil.
	if code == message.CodeProposal && msgRound == r && validRound == -1 && s == message.StepPropose {
		if c.acceptable(value) {
			c.sendPrevote(value)
		} else {
			c.sendPrevote(common.Hash{})
		}
	}

	// Line 28: proposal carries an older valid round with >=Q prevotes for
	// its value: adopt the same prevote decision.
	if p != nil && p.Round == r && s == message.StepPropose && p.LockRound >= 0 && p.LockRound < r {
		propVal := p.Block.Hash()
		if _, n, ok := c.cache.tally(h, p.LockRound, message.CodePrevote, q, &propVal); ok && n >= q {
			if c.acceptable(p.Block.Hash()) {
				c.sendPrevote(p.Block.Hash())
			} else {
				c.sendPrevote(common.Hash{})
			}
		}
	}

	// Line 34: >=Q prevotes in the current round for any value (including
	// nil) while still prevoting: arm the PrevoteWait-exhaustion path once.
	c.mu.Lock()
	line34 := c.line34Executed
	c.mu.Unlock()
	if code == message.CodePrevote && msgRound == r && s == message.StepPrevote && !line34 {
		if _, total, _ := c.cache.tally(h, r, message.CodePrevote, q, nil); total >= q {
			c.mu.Lock()
			c.line34Executed = true
			c.mu.Unlock()
			c.prevoteTimer.schedule(prevoteTimeout(r), func() { c.onPrevoteTimeout(h, r) })
		}
	}

	// Line 36: >=Q prevotes for proposal's value, value valid, still at or
	// past prevote: lock and precommit.
	c.mu.Lock()
	line36 := c.line36Executed
	c.mu.Unlock()
	if p != nil && p.Round == r && !line36 {
		target := p.Block.Hash()
		if _, n, _ := c.cache.tally(h, r, message.CodePrevote, q, &target); n >= q && c.cache.isValid(target) {
			c.mu.Lock()
			c.line36Executed = true
			wasPrevote := c.step == message.StepPrevote
			if wasPrevote {
				c.lockedValue = p.Block
				c.lockedRound = r
			}
			c.validValue = p.Block
			c.validRound = r
			c.mu.Unlock()
			if wasPrevote {
				c.sendPrecommit(target)
			}
		}
	}

	// Line 44: >=Q prevotes for nil while prevoting: precommit nil.
	if code == message.CodePrevote && msgRound == r && s == message.StepPrevote {
		nilHash := common.Hash{}
		if _, n, _ := c.cache.tally(h, r, message.CodePrevote, q, &nilHash); n >= q {
			c.sendPrecommit(common.Hash{})
		}
	}

	// Line 47: >=Q precommits in the current round for any value: arm the
	// PrecommitWait-exhaustion path once.
	c.mu.Lock()
	line47 := c.line47Executed
	c.mu.Unlock()
	if code == message.CodePrecommit && msgRound == r && !line47 {
		if _, total, _ := c.cache.tally(h, r, message.CodePrecommit, q, nil); total >= q {
			c.mu.Lock()
			c.line47Executed = true
			c.mu.Unlock()
			c.precommitTimer.schedule(precommitTimeout(r), func() { c.onPrecommitTimeout(h, r) })
		}
	}

	// Line 49: >=Q precommits for the current round's proposal: commit
	// and advance height. Precommits for a proposal of an earlier round are
	// not checked here.
	if p != nil {
		target := p.Block.Hash()
		if _, n, _ := c.cache.tally(h, p.Round, message.CodePrecommit, q, &target); n >= q && c.cache.isValid(target) {
			c.commit(p.Block, p.Round)
			c.mu.Lock()
			c.height++
			c.lockedRound, c.lockedValue = -1, nil
			c.validRound, c.validValue = -1, nil
			c.cache.deleteBefore(h)
			c.mu.Unlock()
			c.startRound(0)
			return
		}
	}

	// Line 55: a later round has already reached quorum somewhere (f+1
	// evidence of being behind): fast-forward.
	if msgRound > r {
		if _, total, _ := c.cache.tally(h, msgRound, code, 1, nil); total >= 1 && failQuorumReached(c, h, msgRound, q) {
			c.startRound(msgRound)
		}
	}
}

// acceptable implements the lock-compatibility check: a value is fine to
// prevote for when unlocked, or when it matches the local lock.
func (c *Core) acceptable(value common.Hash) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.cache.isValid(value) {
		return value.IsZero()
	}
	return c.lockedRound == -1 || (c.lockedValue != nil && c.lockedValue.Hash() == value)
}

// failQuorumReached reports whether enough distinct senders have voted at
// msgRound across any code to justify jumping ahead (a conservative stand-
// in for "f+1 of the committee is already past our round").
func failQuorumReached(c *Core, height uint64, round int64, quorum int) bool {
	prevotes := c.cache.votesFor(height, round, message.CodePrevote)
	precommits := c.cache.votesFor(height, round, message.CodePrecommit)
	seen := map[common.Address]struct{}{}
	for _, v := range prevotes {
		seen[v.Sender] = struct{}{}
	}
	for _, v := range precommits {
		seen[v.Sender] = struct{}{}
	}
	f := quorum - 1 // committee size N satisfies quorum = floor(2N/3)+1, so f = N - quorum works out <= quorum-1 for N>=1
	return len(seen) > f
}

var (
	errNotCommitteeMember  = newConsensusErr("message from non-committee member")
	errNotFromProposer     = newConsensusErr("proposal from non-proposer")
	errUnrecognisedMessage = newConsensusErr("unrecognised consensus message code")
)

type consensusErr struct{ msg string }

func (e *consensusErr) Error() string { return e.msg }

func newConsensusErr(msg string) error { return &consensusErr{msg: msg} }
