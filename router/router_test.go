package router

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var statusTopic = Topic{Sender: "Chain", Kind: "Status"}

func TestRouterBroadcastDeliversToSubscribers(t *testing.T) {
	r := New()
	sub := r.Subscribe(statusTopic)

	r.Send(Envelope{OperateType: Broadcast, Topic: statusTopic, Payload: "height=1"})

	select {
	case ev := <-sub.Chan():
		env := ev.Data.(Envelope)
		assert.Equal(t, "height=1", env.Payload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast envelope")
	}
}

func TestRouterBroadcastIsTopicScoped(t *testing.T) {
	r := New()
	other := Topic{Sender: "Auth", Kind: "VerifyBlockReq"}
	sub := r.Subscribe(other)

	r.Send(Envelope{OperateType: Broadcast, Topic: statusTopic, Payload: "noise"})

	select {
	case <-sub.Chan():
		t.Fatal("subscriber of a different topic should not receive this envelope")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRouterSingleUnicastsToOrigin(t *testing.T) {
	r := New()
	ch := r.RegisterSingleTarget(statusTopic, 42)

	r.Send(Envelope{Origin: 42, OperateType: Single, Topic: statusTopic, Payload: "reply"})
	r.Send(Envelope{Origin: 7, OperateType: Single, Topic: statusTopic, Payload: "not-for-42"})

	select {
	case env := <-ch:
		assert.Equal(t, "reply", env.Payload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for single-target envelope")
	}

	select {
	case env := <-ch:
		t.Fatalf("unexpected second envelope delivered: %v", env)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRouterSingleWithNoRegisteredTargetIsDropped(t *testing.T) {
	r := New()
	require.NotPanics(t, func() {
		r.Send(Envelope{Origin: 99, OperateType: Single, Topic: statusTopic, Payload: "nobody home"})
	})
}
