package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fooEvent struct{ N int }
type barEvent struct{}

func TestTypeMuxDeliversByType(t *testing.T) {
	mux := NewTypeMux()
	fooSub := mux.Subscribe(fooEvent{})
	barSub := mux.Subscribe(barEvent{})

	require.NoError(t, mux.Post(fooEvent{N: 7}))

	select {
	case ev := <-fooSub.Chan():
		assert.Equal(t, fooEvent{N: 7}, ev.Data)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for fooEvent")
	}

	select {
	case <-barSub.Chan():
		t.Fatal("barSub should not have received a fooEvent")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTypeMuxMultiSubscribe(t *testing.T) {
	mux := NewTypeMux()
	sub := mux.Subscribe(fooEvent{}, barEvent{})

	require.NoError(t, mux.Post(fooEvent{}))
	require.NoError(t, mux.Post(barEvent{}))

	for i := 0; i < 2; i++ {
		select {
		case <-sub.Chan():
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestTypeMuxUnsubscribeStopsDelivery(t *testing.T) {
	mux := NewTypeMux()
	sub := mux.Subscribe(fooEvent{})
	sub.Unsubscribe()

	require.NoError(t, mux.Post(fooEvent{}))

	_, ok := <-sub.Chan()
	assert.False(t, ok, "channel should be closed after Unsubscribe")
}

func TestTypeMuxStopClosesSubsAndRejectsPost(t *testing.T) {
	mux := NewTypeMux()
	sub := mux.Subscribe(fooEvent{})
	mux.Stop()

	_, ok := <-sub.Chan()
	assert.False(t, ok)

	err := mux.Post(fooEvent{})
	assert.ErrorIs(t, err, ErrMuxClosed)
}
