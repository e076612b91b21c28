// Package event is the internal publish/subscribe bus every subsystem
// posts typed events onto: consensus subscribes to message and commit
// events, the chain posts RichStatus and BlockTxHashes. It
// mirrors go-ethereum's event.TypeMux — subscribe by the event's Go type,
// post a value, every live subscriber of that type receives it.
package event

import (
	"errors"
	"reflect"
	"sync"
)

var ErrMuxClosed = errors.New("event: mux closed")

// TypeMuxEvent wraps a posted value the way handler.go expects to unwrap
// it: `ev.Data.(MessageEvent)`.
type TypeMuxEvent struct {
	Data interface{}
}

type TypeMuxSubscription struct {
	mux     *TypeMux
	created chan struct{}
	ch      chan *TypeMuxEvent
	closed  chan struct{}
	once    sync.Once
	postMu  sync.RWMutex // held by deliver; Unsubscribe takes it to close ch
}

func newSub(mux *TypeMux) *TypeMuxSubscription {
	return &TypeMuxSubscription{
		mux:    mux,
		ch:     make(chan *TypeMuxEvent, 64),
		closed: make(chan struct{}),
	}
}

func (s *TypeMuxSubscription) Chan() <-chan *TypeMuxEvent { return s.ch }

func (s *TypeMuxSubscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.closed)
		s.postMu.Lock()
		s.mux.unsubscribe(s)
		s.postMu.Unlock()
	})
}

func (s *TypeMuxSubscription) deliver(ev *TypeMuxEvent) bool {
	s.postMu.RLock()
	defer s.postMu.RUnlock()
	select {
	case <-s.closed:
		return false
	default:
	}
	select {
	case s.ch <- ev:
		return true
	case <-s.closed:
		return false
	}
}

// TypeMux routes Post(v) to every subscriber registered for reflect.TypeOf(v).
type TypeMux struct {
	mu     sync.RWMutex
	subs   map[reflect.Type][]*TypeMuxSubscription
	closed bool
}

func NewTypeMux() *TypeMux {
	return &TypeMux{subs: make(map[reflect.Type][]*TypeMuxSubscription)}
}

// Subscribe returns a subscription delivering every future Post of any of
// the given sample types (only the type of each sample is used).
func (m *TypeMux) Subscribe(types ...interface{}) *TypeMuxSubscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub := newSub(m)
	if m.closed {
		close(sub.ch)
		return sub
	}
	for _, t := range types {
		rt := reflect.TypeOf(t)
		m.subs[rt] = append(m.subs[rt], sub)
	}
	return sub
}

// Post delivers ev to every live subscriber of its dynamic type. At-most-
// once local delivery per subscriber.
func (m *TypeMux) Post(ev interface{}) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrMuxClosed
	}
	subs := append([]*TypeMuxSubscription(nil), m.subs[reflect.TypeOf(ev)]...)
	m.mu.RUnlock()

	wrapped := &TypeMuxEvent{Data: ev}
	for _, sub := range subs {
		sub.deliver(wrapped)
	}
	return nil
}

func (m *TypeMux) unsubscribe(sub *TypeMuxSubscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for t, subs := range m.subs {
		for i, s := range subs {
			if s == sub {
				m.subs[t] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
	if !m.closed { // Stop has already closed ch otherwise
		close(sub.ch)
	}
}

// Stop closes every subscription and rejects further posts.
func (m *TypeMux) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	for _, subs := range m.subs {
		for _, s := range subs {
			close(s.ch)
		}
	}
	m.subs = nil
}
