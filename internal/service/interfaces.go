package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"feed_triage/internal/config"
	"feed_triage/internal/domain"
)

type EntryStore interface {
	Upsert(ctx context.Context, r domain.Record) error
	Get(ctx context.Context, guid string) (*domain.Record, error)
	List(ctx context.Context) ([]domain.Record, error)
	UpdateStatus(ctx context.Context, guid string, status domain.Status, clicked []string) error
}

type TrainingRunStore interface {
	Record(ctx context.Context, run *domain.TrainingRun) error
	Latest(ctx context.Context, algo string) (*domain.TrainingRun, error)
}

type ArtifactStore interface {
	Put(ctx context.Context, ref string, data []byte) error
	Get(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, ref string) error
}

type SettingsStore interface {
	Load() (*config.Settings, error)
	Save(s *config.Settings) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, ranking *domain.Ranking) error
	Close() error
}
