package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeedSendFanOut(t *testing.T) {
	var f Feed
	sub1 := f.Subscribe()
	sub2 := f.Subscribe()

	n := f.Send("hello")
	assert.Equal(t, 2, n)

	assert.Equal(t, "hello", <-sub1.Chan())
	assert.Equal(t, "hello", <-sub2.Chan())
}

func TestFeedSendBestEffortDoesNotBlock(t *testing.T) {
	var f Feed
	sub := f.Subscribe()

	// fill the subscriber's buffer, then confirm Send never blocks.
	for i := 0; i < 32; i++ {
		f.Send(i)
	}

	_ = sub // the slow/full subscriber is simply skipped, not a test failure
}

func TestFeedUnsubscribeClosesChannel(t *testing.T) {
	var f Feed
	sub := f.Subscribe()
	sub.Unsubscribe()

	_, ok := <-sub.Chan()
	assert.False(t, ok)
}
