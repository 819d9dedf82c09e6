package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"feed_triage/internal/domain"
	"feed_triage/internal/storage"
)

type TrainingRunStore struct {
	db *sqlx.DB
}

func NewTrainingRunStore(db *sqlx.DB) *TrainingRunStore {
	return &TrainingRunStore{db: db}
}

// Record stores run and fills in its ID.
func (s *TrainingRunStore) Record(ctx context.Context, run *domain.TrainingRun) error {
	query := `
		INSERT INTO training_runs (algo, precision, recall, accuracy, cutoff, entries, trained_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := storage.GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		run.Algo,
		run.Precision,
		run.Recall,
		run.Accuracy,
		run.Cutoff,
		run.Entries,
		run.TrainedAt,
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("record training run: %w", err)
	}
	return nil
}

// Latest returns the most recent run of algo.
func (s *TrainingRunStore) Latest(ctx context.Context, algo string) (*domain.TrainingRun, error) {
	var run domain.TrainingRun
	query := `
		SELECT id, algo, precision, recall, accuracy, cutoff, entries, trained_at
		FROM training_runs
		WHERE algo = $1
		ORDER BY trained_at DESC, id DESC
		LIMIT 1`

	err := sqlx.GetContext(ctx, storage.GetExecutor(ctx, s.db), &run, query, algo)
	if isNoRows(err) {
		return nil, fmt.Errorf("training run of %s: %w", algo, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get training run: %w", err)
	}
	return &run, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
