package core

import (
	"sync"
	"time"

	"github.com/permachain/core/consensus/tendermint/message"
)

// timeoutEvent carries (H, R, S) so a stale timer firing after the state
// machine has already moved on is discarded at delivery: every timer
// arrival is checked against current state before it can act.
type timeoutEvent struct {
	step   message.Step
	height uint64
	round  int64
}

// roundTimer wraps time.Timer with the stop/reset discipline a
// retired handler.go Start/Stop methods rely on (proposeTimeout,
// prevoteTimeout, precommitTimeout).
type roundTimer struct {
	mu    sync.Mutex
	timer *time.Timer
}

func (t *roundTimer) schedule(d time.Duration, fire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(d, fire)
}

func (t *roundTimer) stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer == nil {
		return false
	}
	return t.timer.Stop()
}
