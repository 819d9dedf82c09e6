package scheduler

import (
	"context"
	"log/slog"
	"time"

	"feed_triage/internal/domain"
)

// Ranker runs one ranking pass over the unread entries.
type Ranker interface {
	RankUnread(ctx context.Context) (*domain.Ranking, error)
}

// Scheduler reruns the ranking on a fixed interval. Passes never overlap: the
// next tick is only taken once the current pass returns.
type Scheduler struct {
	ranker   Ranker
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

func NewScheduler(ranker Ranker, interval, timeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		ranker:   ranker,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runRank(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runRank(ctx)
		}
	}
}

func (s *Scheduler) runRank(ctx context.Context) {
	rankCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	r, err := s.ranker.RankUnread(rankCtx)
	if err != nil {
		s.logger.Error("ranking failed", "error", err)
		return
	}
	s.logger.Info("ranking finished",
		"algo", r.Algo,
		"high", len(r.High),
		"low", len(r.Low),
	)
}
