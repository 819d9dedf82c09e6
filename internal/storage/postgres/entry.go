package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"feed_triage/internal/domain"
	"feed_triage/internal/storage"
)

type EntryStore struct {
	db *sqlx.DB
}

func NewEntryStore(db *sqlx.DB) *EntryStore {
	return &EntryStore{db: db}
}

type entryRow struct {
	GUID         string         `db:"guid"`
	Title        string         `db:"title"`
	Summary      string         `db:"summary"`
	Author       string         `db:"author"`
	Link         string         `db:"link"`
	PublishedAt  int64          `db:"published_at"`
	Tags         pq.StringArray `db:"tags"`
	Status       string         `db:"status"`
	ClickedLinks pq.StringArray `db:"clicked_links"`
}

func (r entryRow) record() domain.Record {
	return domain.Record{
		Title:        r.Title,
		Summary:      r.Summary,
		Author:       r.Author,
		Link:         r.Link,
		GUID:         r.GUID,
		Timestamp:    r.PublishedAt,
		Tags:         []string(r.Tags),
		Status:       domain.Status(r.Status),
		ClickedLinks: []string(r.ClickedLinks),
	}
}

const entryColumns = `guid, title, summary, author, link, published_at, tags, status, clicked_links`

// Upsert stores r, replacing every field of an existing entry with the
// same GUID.
func (s *EntryStore) Upsert(ctx context.Context, r domain.Record) error {
	status := r.Status
	if status == "" {
		status = domain.StatusUnread
	}
	query := `
		INSERT INTO entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (guid) DO UPDATE SET
			title = EXCLUDED.title,
			summary = EXCLUDED.summary,
			author = EXCLUDED.author,
			link = EXCLUDED.link,
			published_at = EXCLUDED.published_at,
			tags = EXCLUDED.tags,
			status = EXCLUDED.status,
			clicked_links = EXCLUDED.clicked_links,
			updated_at = NOW()`

	_, err := storage.GetExecutor(ctx, s.db).ExecContext(ctx, query,
		r.GUID,
		r.Title,
		r.Summary,
		r.Author,
		r.Link,
		r.Timestamp,
		pq.Array(nonNil(r.Tags)),
		string(status),
		pq.Array(nonNil(r.ClickedLinks)),
	)
	if err != nil {
		return fmt.Errorf("upsert entry %s: %w", r.GUID, err)
	}
	return nil
}

func (s *EntryStore) Get(ctx context.Context, guid string) (*domain.Record, error) {
	var row entryRow
	query := `SELECT ` + entryColumns + ` FROM entries WHERE guid = $1`

	err := sqlx.GetContext(ctx, storage.GetExecutor(ctx, s.db), &row, query, guid)
	if isNoRows(err) {
		return nil, fmt.Errorf("entry %s: %w", guid, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %s: %w", guid, err)
	}
	r := row.record()
	return &r, nil
}

// List returns every entry, oldest first.
func (s *EntryStore) List(ctx context.Context) ([]domain.Record, error) {
	query := `SELECT ` + entryColumns + ` FROM entries ORDER BY published_at, guid`
	return s.list(ctx, query)
}

func (s *EntryStore) ListByStatus(ctx context.Context, status domain.Status) ([]domain.Record, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE status = $1 ORDER BY published_at, guid`
	return s.list(ctx, query, string(status))
}

func (s *EntryStore) list(ctx context.Context, query string, args ...any) ([]domain.Record, error) {
	var rows []entryRow
	if err := sqlx.SelectContext(ctx, storage.GetExecutor(ctx, s.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	records := make([]domain.Record, len(rows))
	for i, row := range rows {
		records[i] = row.record()
	}
	return records, nil
}

// UpdateStatus sets the triage status and the full clicked link list of an
// entry.
func (s *EntryStore) UpdateStatus(ctx context.Context, guid string, status domain.Status, clicked []string) error {
	query := `
		UPDATE entries
		SET status = $2, clicked_links = $3, updated_at = NOW()
		WHERE guid = $1`

	res, err := storage.GetExecutor(ctx, s.db).ExecContext(ctx, query, guid, string(status), pq.Array(nonNil(clicked)))
	if err != nil {
		return fmt.Errorf("update entry %s: %w", guid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entry %s: %w", guid, err)
	}
	if n == 0 {
		return fmt.Errorf("entry %s: %w", guid, storage.ErrNotFound)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
