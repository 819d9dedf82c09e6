package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"feed_triage/internal/domain"
	"feed_triage/internal/storage"
)

type EntryStore struct {
	db *sqlx.DB
}

func NewEntryStore(db *sqlx.DB) *EntryStore {
	return &EntryStore{db: db}
}

// stringList is a []string kept as a JSON array in a TEXT column.
type stringList []string

func (l stringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *stringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scan string list from %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan string list: %w", err)
	}
	*l = out
	return nil
}

type entryRow struct {
	GUID         string     `db:"guid"`
	Title        string     `db:"title"`
	Summary      string     `db:"summary"`
	Author       string     `db:"author"`
	Link         string     `db:"link"`
	PublishedAt  int64      `db:"published_at"`
	Tags         stringList `db:"tags"`
	Status       string     `db:"status"`
	ClickedLinks stringList `db:"clicked_links"`
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (guid) DO UPDATE SET
			title = excluded.title,
			summary = excluded.summary,
			author = excluded.author,
			link = excluded.link,
			published_at = excluded.published_at,
			tags = excluded.tags,
			status = excluded.status,
			clicked_links = excluded.clicked_links,
			updated_at = CURRENT_TIMESTAMP`

	_, err := storage.GetExecutor(ctx, s.db).ExecContext(ctx, query,
		r.GUID,
		r.Title,
		r.Summary,
		r.Author,
		r.Link,
		r.Timestamp,
		stringList(r.Tags),
		string(status),
		stringList(r.ClickedLinks),
	)
	if err != nil {
		return fmt.Errorf("upsert entry %s: %w", r.GUID, err)
	}
	return nil
}

func (s *EntryStore) Get(ctx context.Context, guid string) (*domain.Record, error) {
	var row entryRow
	query := `SELECT ` + entryColumns + ` FROM entries WHERE guid = ?`

	err := sqlx.GetContext(ctx, storage.GetExecutor(ctx, s.db), &row, query, guid)
	if errors.Is(err, sql.ErrNoRows) {
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
	return s.list(ctx, `SELECT `+entryColumns+` FROM entries ORDER BY published_at, guid`)
}

func (s *EntryStore) ListByStatus(ctx context.Context, status domain.Status) ([]domain.Record, error) {
	return s.list(ctx, `SELECT `+entryColumns+` FROM entries WHERE status = ? ORDER BY published_at, guid`, string(status))
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
		SET status = ?, clicked_links = ?, updated_at = CURRENT_TIMESTAMP
		WHERE guid = ?`

	res, err := storage.GetExecutor(ctx, s.db).ExecContext(ctx, query, string(status), stringList(clicked), guid)
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
