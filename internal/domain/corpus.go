package domain

import (
	"errors"
	"slices"
)

// ErrNoSeenEntries is returned when a like ratio is requested before any
// entry has been triaged.
var ErrNoSeenEntries = errors.New("like ratio undefined: no entries have been triaged")

// Corpus partitions entries into liked, unseen and (implicitly) disliked.
// Entries are identified by GUID; adding one twice has no further effect.
type Corpus struct {
	entries map[string]*Entry
	liked   map[string]*Entry
	unseen  map[string]*Entry
}

func NewCorpus(entries ...*Entry) *Corpus {
	c := &Corpus{
		entries: make(map[string]*Entry),
		liked:   make(map[string]*Entry),
		unseen:  make(map[string]*Entry),
	}
	for _, e := range entries {
		c.Add(e)
	}
	return c
}

// Add classifies the entry by its current status.
func (c *Corpus) Add(e *Entry) {
	if _, ok := c.entries[e.GUID]; ok {
		return
	}
	c.entries[e.GUID] = e
	switch e.Status() {
	case StatusLiked:
		c.liked[e.GUID] = e
	case StatusUnread:
		c.unseen[e.GUID] = e
	}
}

func (c *Corpus) Len() int { return len(c.entries) }

func (c *Corpus) LikedCount() int { return len(c.liked) }

func (c *Corpus) UnseenCount() int { return len(c.unseen) }

// SeenCount is the number of triaged entries.
func (c *Corpus) SeenCount() int { return len(c.entries) - len(c.unseen) }

// DislikedCount counts disliked and skipped entries.
func (c *Corpus) DislikedCount() int { return c.SeenCount() - len(c.liked) }

func (c *Corpus) Entries() []*Entry { return chronological(c.entries, nil) }

func (c *Corpus) Liked() []*Entry { return chronological(c.liked, nil) }

func (c *Corpus) Unseen() []*Entry { return chronological(c.unseen, nil) }

// Disliked returns every triaged entry that was not liked.
func (c *Corpus) Disliked() []*Entry {
	return chronological(c.entries, func(e *Entry) bool {
		return !c.IsLiked(e) && !c.isUnseen(e)
	})
}

// Seen returns every triaged entry.
func (c *Corpus) Seen() []*Entry {
	return chronological(c.entries, func(e *Entry) bool {
		return !c.isUnseen(e)
	})
}

// IsLiked reports whether the entry was classified as liked when added.
func (c *Corpus) IsLiked(e *Entry) bool {
	_, ok := c.liked[e.GUID]
	return ok
}

func (c *Corpus) isUnseen(e *Entry) bool {
	_, ok := c.unseen[e.GUID]
	return ok
}

// LikeRatio returns liked / seen.
func (c *Corpus) LikeRatio() (float64, error) {
	seen := c.SeenCount()
	if seen == 0 {
		return 0, ErrNoSeenEntries
	}
	return float64(len(c.liked)) / float64(seen), nil
}

func chronological(set map[string]*Entry, keep func(*Entry) bool) []*Entry {
	out := make([]*Entry, 0, len(set))
	for _, e := range set {
		if keep == nil || keep(e) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, CompareEntries)
	return out
}

// CompareEntries orders entries by timestamp, then GUID so iteration is stable.
func CompareEntries(a, b *Entry) int {
	switch {
	case a.Timestamp < b.Timestamp:
		return -1
	case a.Timestamp > b.Timestamp:
		return 1
	}
	switch {
	case a.GUID < b.GUID:
		return -1
	case a.GUID > b.GUID:
		return 1
	}
	return 0
}
