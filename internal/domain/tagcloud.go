package domain

import (
	"slices"
	"strings"
)

// TagCloud maps a label (tag or link domain) to the entries carrying it and
// the subset of those that were liked.
type TagCloud struct {
	entries map[string]map[string]*Entry
	likes   map[string]map[string]*Entry
	tops    []string
}

func NewTagCloud() *TagCloud {
	return &TagCloud{
		entries: make(map[string]map[string]*Entry),
		likes:   make(map[string]map[string]*Entry),
	}
}

func (tc *TagCloud) AddLike(label string, e *Entry) {
	add(tc.entries, label, e)
	add(tc.likes, label, e)
}

func (tc *TagCloud) AddDislike(label string, e *Entry) {
	add(tc.entries, label, e)
}

func (tc *TagCloud) Occurrences(label string) int { return len(tc.entries[label]) }

func (tc *TagCloud) Likes(label string) int { return len(tc.likes[label]) }

// Ratio is likes over occurrences, zero for an unknown label.
func (tc *TagCloud) Ratio(label string) float64 {
	n := len(tc.entries[label])
	if n == 0 {
		return 0
	}
	return float64(len(tc.likes[label])) / float64(n)
}

// Top returns up to n labels with at least minLikes likes and a like ratio of
// at least minRatio, best ratio first. Equal ratios are ordered by label.
// A non-positive n means no cap. The result is remembered as Tops.
func (tc *TagCloud) Top(n, minLikes int, minRatio float64) []string {
	var out []string
	for label, liked := range tc.likes {
		if len(liked) >= minLikes && tc.Ratio(label) >= minRatio {
			out = append(out, label)
		}
	}
	slices.SortFunc(out, func(a, b string) int {
		ra, rb := tc.Ratio(a), tc.Ratio(b)
		switch {
		case ra > rb:
			return -1
		case ra < rb:
			return 1
		}
		return strings.Compare(a, b)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	tc.tops = out
	return slices.Clone(out)
}

// Tops returns the result of the last Top call.
func (tc *TagCloud) Tops() []string { return slices.Clone(tc.tops) }

// PostsWith returns the entries carrying any of the labels.
func (tc *TagCloud) PostsWith(labels []string) map[string]*Entry {
	return union(tc.entries, labels)
}

// LikedWith returns the liked entries carrying any of the labels.
func (tc *TagCloud) LikedWith(labels []string) map[string]*Entry {
	return union(tc.likes, labels)
}

// BuildTagClouds builds a tag cloud and a rating-domain cloud over the
// corpus's triaged entries.
func BuildTagClouds(c *Corpus) (tags, domains *TagCloud) {
	tags, domains = NewTagCloud(), NewTagCloud()
	for _, e := range c.Seen() {
		liked := c.IsLiked(e)
		for _, tag := range e.Tags {
			if liked {
				tags.AddLike(tag, e)
			} else {
				tags.AddDislike(tag, e)
			}
		}
		for _, d := range e.RatingDomains() {
			if liked {
				domains.AddLike(d, e)
			} else {
				domains.AddDislike(d, e)
			}
		}
	}
	return tags, domains
}

func add(m map[string]map[string]*Entry, label string, e *Entry) {
	set, ok := m[label]
	if !ok {
		set = make(map[string]*Entry)
		m[label] = set
	}
	set[e.GUID] = e
}

func union(m map[string]map[string]*Entry, labels []string) map[string]*Entry {
	out := make(map[string]*Entry)
	for _, l := range labels {
		for guid, e := range m[l] {
			out[guid] = e
		}
	}
	return out
}
