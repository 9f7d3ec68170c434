package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu   sync.Mutex
	got  []Record
	fail bool
}

func (s *recordingSink) Handle(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, rec)
	if s.fail {
		return errors.New("boom")
	}
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func TestFanoutDeliversToAllSinks(t *testing.T) {
	failing := &recordingSink{fail: true}
	ok := &recordingSink{}
	f := NewFanout(8, failing, ok)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	f.Publish(Record{Event: "newMessage", Room: "r1"})
	f.Publish(Record{Event: "messageDeleted", Room: "r1"})

	require.Eventually(t, func() bool { return ok.count() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, failing.count(), "a failing sink does not stop the others")

	cancel()
	require.NoError(t, <-done)
}

func TestFanoutPublishNeverBlocks(t *testing.T) {
	s := &recordingSink{}
	f := NewFanout(1, s)
	f.Publish(Record{Event: "a"})
	f.Publish(Record{Event: "b"})
	f.Publish(Record{Event: "c"})
	assert.Len(t, f.queue, 1)
}

func TestFanoutWithoutSinks(t *testing.T) {
	var nilFanout *Fanout
	nilFanout.Publish(Record{Event: "a"})

	f := NewFanout(0)
	f.Publish(Record{Event: "a"})
	assert.Empty(t, f.queue)
}
