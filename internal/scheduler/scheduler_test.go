package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed_triage/internal/domain"
)

type countingRanker struct {
	calls atomic.Int32
	err   error
	done  chan struct{}
	stop  int32
}

func (r *countingRanker) RankUnread(ctx context.Context) (*domain.Ranking, error) {
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("pass without deadline")
	}
	if n := r.calls.Add(1); n == r.stop {
		close(r.done)
	}
	if r.err != nil {
		return nil, r.err
	}
	return &domain.Ranking{Algo: "none"}, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduler_RunsImmediatelyAndOnTicks(t *testing.T) {
	ranker := &countingRanker{done: make(chan struct{}), stop: 3}
	s := NewScheduler(ranker, 10*time.Millisecond, time.Second, discard())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	select {
	case <-ranker.done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not run three passes")
	}
	cancel()

	require.ErrorIs(t, <-errCh, context.Canceled)
	assert.GreaterOrEqual(t, ranker.calls.Load(), int32(3))
}

func TestScheduler_KeepsGoingAfterFailure(t *testing.T) {
	ranker := &countingRanker{done: make(chan struct{}), stop: 2, err: errors.New("store down")}
	s := NewScheduler(ranker, 10*time.Millisecond, time.Second, discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	select {
	case <-ranker.done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler stopped after a failed pass")
	}
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}
