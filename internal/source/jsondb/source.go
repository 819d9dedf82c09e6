// Package jsondb reads an entry directory of the older file-based reader,
// which kept every entry as its own JSON document.
package jsondb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"feed_triage/internal/domain"
)

type Source struct {
	dir    string
	logger *slog.Logger
}

func New(dir string, logger *slog.Logger) *Source {
	return &Source{
		dir:    dir,
		logger: logger.With("source", dir),
	}
}

// FetchEntries decodes every *.json file of the directory in name order.
// Files that cannot be decoded or carry no guid are skipped with a warning.
func (s *Source) FetchEntries(ctx context.Context) ([]domain.Record, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list entry files: %w", err)
	}
	if len(paths) == 0 {
		if _, err := os.Stat(s.dir); err != nil {
			return nil, fmt.Errorf("open entry dir: %w", err)
		}
	}
	slices.Sort(paths)

	records := make([]domain.Record, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return records, err
		}
		f, err := s.readFile(path)
		if err != nil {
			s.logger.Warn("skipping entry file", "file", filepath.Base(path), "error", err)
			continue
		}
		r, err := s.transform(f)
		if err != nil {
			s.logger.Warn("skipping entry file", "file", filepath.Base(path), "error", err)
			continue
		}
		records = append(records, r)
	}

	s.logger.Debug("entry files read", "files", len(paths), "entries", len(records))
	return records, nil
}

func (s *Source) readFile(path string) (*entryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	var f entryFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &f, nil
}

func (s *Source) transform(f *entryFile) (domain.Record, error) {
	if f.GUID == nil || *f.GUID == "" {
		return domain.Record{}, fmt.Errorf("entry has no guid")
	}

	r := domain.Record{
		Title:        deref(f.Title),
		Summary:      deref(f.Summary),
		Author:       deref(f.Author),
		Link:         deref(f.Link),
		GUID:         *f.GUID,
		Tags:         f.Tags,
		ClickedLinks: f.ClickedLinks,
		Status:       domain.StatusUnread,
	}
	if f.Timestamp != nil {
		r.Timestamp = int64(*f.Timestamp)
	}
	if f.Status != nil && *f.Status != "" {
		status, err := domain.ParseStatus(*f.Status)
		if err != nil {
			return domain.Record{}, err
		}
		r.Status = status
	}
	return r, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
