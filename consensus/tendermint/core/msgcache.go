// Package core implements the BFT consensus state machine: the
// Propose/Prevote/Precommit round loop, vote and proposal bookkeeping,
// and lock/unlock safety rules.
package core

import (
	"sync"

	mapset "github.com/deckarep/golang-set"

	"github.com/permachain/core/common"
	"github.com/permachain/core/consensus/tendermint/message"
)

// msgCache indexes every Message this node has seen by height/round/step,
// exactly as a height/round/type/sender nested index would (`map[Height]map[Round]map[Type]
// map[Address][]*Message`), plus the value/validity bookkeeping
// mainEventLoop's checkUponConditions needs to evaluate the upon-rules.
type msgCache struct {
	mu sync.RWMutex

	// seen[height][round][code][sender] = message hash already seen,
	// guarding the "duplicate votes from the same sender... discarded" rule.
	seen map[uint64]map[int64]map[message.Code]map[common.Address]common.Hash

	votes map[common.Hash]*message.Vote
	props map[common.Hash]*message.Proposal

	valid mapset.Set // set of common.Hash deemed valid

	firstHeight uint64
}

func newMsgCache() *msgCache {
	return &msgCache{
		seen:  make(map[uint64]map[int64]map[message.Code]map[common.Address]common.Hash),
		votes: make(map[common.Hash]*message.Vote),
		props: make(map[common.Hash]*message.Proposal),
		valid: mapset.NewSet(),
	}
}

// FirstHeightBuffered returns the lowest height this cache still holds
// messages for, or 0 if empty.
func (c *msgCache) FirstHeightBuffered() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var first uint64
	for h := range c.seen {
		if first == 0 || h < first {
			first = h
		}
	}
	return first
}

// addVote records a prevote/precommit, rejecting a second distinct vote
// from the same sender in the same (height, round, step): first wins.
func (c *msgCache) addVote(msgHash common.Hash, v *message.Vote, code message.Code) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.firstHeight == 0 {
		c.firstHeight = v.Height
	}
	if !c.markSeen(v.Height, v.Round, code, v.Sender, msgHash) {
		return false
	}
	c.votes[msgHash] = v
	return true
}

func (c *msgCache) addProposal(msgHash common.Hash, p *message.Proposal) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.firstHeight == 0 {
		c.firstHeight = p.Height
	}
	if !c.markSeen(p.Height, p.Round, message.CodeProposal, p.Sender, msgHash) {
		return false
	}
	c.props[msgHash] = p
	return true
}

// markSeen must be called with mu held.
func (c *msgCache) markSeen(height uint64, round int64, code message.Code, sender common.Address, hash common.Hash) bool {
	byRound, ok := c.seen[height]
	if !ok {
		byRound = make(map[int64]map[message.Code]map[common.Address]common.Hash)
		c.seen[height] = byRound
	}
	byCode, ok := byRound[round]
	if !ok {
		byCode = make(map[message.Code]map[common.Address]common.Hash)
		byRound[round] = byCode
	}
	bySender, ok := byCode[code]
	if !ok {
		bySender = make(map[common.Address]common.Hash)
		byCode[code] = bySender
	}
	if _, dup := bySender[sender]; dup {
		return false
	}
	bySender[sender] = hash
	return true
}

func (c *msgCache) setValid(hash common.Hash)    { c.mu.Lock(); defer c.mu.Unlock(); c.valid.Add(hash) }
func (c *msgCache) isValid(hash common.Hash) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return hash.IsZero() || c.valid.Contains(hash)
}

// votesFor returns every accepted vote of code at (height, round).
func (c *msgCache) votesFor(height uint64, round int64, code message.Code) []*message.Vote {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*message.Vote
	byRound, ok := c.seen[height]
	if !ok {
		return nil
	}
	byCode, ok := byRound[round]
	if !ok {
		return nil
	}
	for _, hash := range byCode[code] {
		if v, ok := c.votes[hash]; ok {
			out = append(out, v)
		}
	}
	return out
}

// tally counts votesFor grouped by ProposalHash, returning the quorum
// winner (or the null hash) once total >= quorum.
func (c *msgCache) tally(height uint64, round int64, code message.Code, quorum int, want *common.Hash) (common.Hash, int, bool) {
	votes := c.votesFor(height, round, code)
	counts := make(map[common.Hash]int)
	for _, v := range votes {
		counts[v.ProposalHash]++
	}
	if want != nil {
		n := counts[*want]
		return *want, n, n >= quorum
	}
	for hash, n := range counts {
		if n >= quorum {
			return hash, n, true
		}
	}
	return common.Hash{}, len(votes), false
}

// proposalAt returns the proposal for (height, round), if any.
func (c *msgCache) proposalAt(height uint64, round int64) *message.Proposal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	byRound, ok := c.seen[height]
	if !ok {
		return nil
	}
	byCode, ok := byRound[round]
	if !ok {
		return nil
	}
	for _, hash := range byCode[message.CodeProposal] {
		if p, ok := c.props[hash]; ok {
			return p
		}
	}
	return nil
}

// deleteBefore drops every height at or below height, as the pending
// buffer advances.
func (c *msgCache) deleteBefore(height uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for h := range c.seen {
		if h <= height {
			delete(c.seen, h)
		}
	}
}
