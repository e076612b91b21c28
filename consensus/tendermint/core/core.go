package core

import (
	"context"
	"sync"
	"time"

	"github.com/permachain/core/common"
	"github.com/permachain/core/consensus/tendermint/message"
	"github.com/permachain/core/core/types"
	"github.com/permachain/core/event"
	"github.com/permachain/core/log"
	"github.com/permachain/core/wal"
)

// timeout base durations, each scaled by (R+1) for the current round.
const (
	proposeTimeoutBase   = 3 * time.Second
	prevoteTimeoutBase   = 1 * time.Second
	precommitTimeoutBase = 1 * time.Second
)

// Core drives height/round/step. Exactly one instance runs per
// node; it owns no network transport, only Backend.
type Core struct {
	mu sync.Mutex

	backend Backend
	wal     *wal.WAL
	logger  log.Logger

	address common.Address

	height uint64
	round  int64
	step   message.Step

	lockedValue *types.Block
	lockedRound int64
	validValue  *types.Block
	validRound  int64

	lastHeader *types.Header

	cache *msgCache

	proposeTimer   roundTimer
	prevoteTimer   roundTimer
	precommitTimer roundTimer

	// line34/line36/line47Executed guard the one-shot upon-conditions of
	// the per-round algorithm from re-firing every time a matching
	// message arrives within the same round.
	line34Executed bool
	line36Executed bool
	line47Executed bool

	messageSub *event.TypeMuxSubscription
	commitSub  *event.TypeMuxSubscription

	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a Core ready to Start driving consensus from lastHeader's
// successor height.
func New(backend Backend, w *wal.WAL, lastHeader *types.Header, logger log.Logger) *Core {
	return &Core{
		backend:     backend,
		wal:         w,
		logger:      logger,
		address:     backend.Address(),
		height:      lastHeader.Height.Uint64() + 1,
		lastHeader:  lastHeader,
		lockedRound: -1,
		validRound:  -1,
		cache:       newMsgCache(),
		done:        make(chan struct{}),
	}
}

func (c *Core) Height() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

func (c *Core) Round() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.round
}

func (c *Core) committee() types.Committee {
	return c.backend.Committee(c.height)
}

func (c *Core) quorum() int {
	return c.committee().Quorum()
}

func (c *Core) isProposer(round int64) bool {
	return c.committee().Proposer(c.height, round) == c.address
}

func proposeTimeout(round int64) time.Duration {
	return proposeTimeoutBase * time.Duration(round+1)
}

func prevoteTimeout(round int64) time.Duration {
	return prevoteTimeoutBase * time.Duration(round+1)
}

func precommitTimeout(round int64) time.Duration {
	return precommitTimeoutBase * time.Duration(round+1)
}
