// Package router implements the typed message envelope and topic routing:
// every inter-module message carries an origin, an operate_type,
// a structured topic ("Sender >> Kind"), and a payload. It is built on
// event.TypeMux the way a node's backend layers message
// routing over go-ethereum's event.Feed/TypeMux — one Router owns one
// TypeMux per topic so Subscribe(topic) only ever wakes subscribers of
// that exact topic.
package router

import (
	"fmt"
	"sync"

	"github.com/permachain/core/event"
)

// OperateType selects the routing discipline for an envelope.
type OperateType uint8

const (
	Broadcast OperateType = iota
	Single
	Subscribe
)

// Topic is "Sender >> Kind", e.g. "Chain >> Status", "Auth >> VerifyBlockReq".
type Topic struct {
	Sender string
	Kind   string
}

func (t Topic) String() string { return fmt.Sprintf("%s >> %s", t.Sender, t.Kind) }

// Envelope is the typed message every subsystem posts/receives.
type Envelope struct {
	Origin      uint64 // peer id, or 0 for local
	OperateType OperateType
	Topic       Topic
	Payload     interface{}
}

// Router guarantees at-most-once local delivery per subscriber for a given
// topic, best-effort broadcast, and unicast Single replies targeted at an
// origin.
type Router struct {
	mu    sync.RWMutex
	muxes map[Topic]*event.TypeMux
	// singleTargets tracks, per topic, a reply channel a unicast Single
	// envelope is delivered to directly rather than through the mux.
	singleTargets map[Topic]map[uint64]chan Envelope
}

func New() *Router {
	return &Router{
		muxes:         make(map[Topic]*event.TypeMux),
		singleTargets: make(map[Topic]map[uint64]chan Envelope),
	}
}

func (r *Router) muxFor(topic Topic) *event.TypeMux {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.muxes[topic]
	if !ok {
		m = event.NewTypeMux()
		r.muxes[topic] = m
	}
	return m
}

// Subscribe registers interest in every envelope posted to topic.
func (r *Router) Subscribe(topic Topic) *event.TypeMuxSubscription {
	return r.muxFor(topic).Subscribe(Envelope{})
}

// RegisterSingleTarget opens a unicast reply channel for origin on topic,
// used by request/response exchanges like Auth >> VerifyBlockReq.
func (r *Router) RegisterSingleTarget(topic Topic, origin uint64) <-chan Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	targets, ok := r.singleTargets[topic]
	if !ok {
		targets = make(map[uint64]chan Envelope)
		r.singleTargets[topic] = targets
	}
	ch := make(chan Envelope, 1)
	targets[origin] = ch
	return ch
}

// Send routes env according to its OperateType.
func (r *Router) Send(env Envelope) {
	switch env.OperateType {
	case Single:
		r.mu.RLock()
		ch, ok := r.singleTargets[env.Topic][env.Origin]
		r.mu.RUnlock()
		if ok {
			select {
			case ch <- env:
			default:
			}
		}
	default: // Broadcast, Subscribe
		_ = r.muxFor(env.Topic).Post(env)
	}
}
