package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed_triage/internal/domain"
)

// spaceCorpus has 100 triaged entries, 60 liked. "space" is on 10 of them
// with 8 likes, "lonely" on a single liked one.
func spaceCorpus() *domain.Corpus {
	c := domain.NewCorpus()
	for i := 0; i < 100; i++ {
		status := domain.StatusDisliked
		if i < 60 {
			status = domain.StatusLiked
		}
		var tags []string
		switch {
		case i < 8 || i >= 98:
			tags = []string{"space"}
		case i == 10:
			tags = []string{"lonely"}
		}
		c.Add(entry(fmt.Sprintf("e%03d", i), int64(i), status, tags...))
	}
	c.Add(entry("unread", 200, domain.StatusUnread, "space"))
	return c
}

type stubSelector struct {
	keep    map[string][]string
	prompts []string
	offered [][]Choice
}

func (s *stubSelector) Select(prompt string, choices []Choice) ([]string, error) {
	s.prompts = append(s.prompts, prompt)
	s.offered = append(s.offered, choices)
	return s.keep[prompt], nil
}

func TestTagAffinity_Analyze(t *testing.T) {
	m, err := New(NameTags, spaceCorpus(), Options{})
	require.NoError(t, err)
	require.Equal(t, Unanalyzed, m.Status())

	require.NoError(t, m.Analyze())
	require.Equal(t, Analyzed, m.Status())

	p := m.Parameters()
	assert.Equal(t, []string{"space"}, p.Tags)
	assert.Empty(t, p.Domains)
	assert.InDelta(t, 0.8, m.Precision(), 1e-12)
	assert.InDelta(t, 8.0/60.0, m.Recall(), 1e-12)
	assert.Equal(t, p.Precision, m.Precision())
}

func TestTagAffinity_BinaryScore(t *testing.T) {
	m, err := New(NameTags, spaceCorpus(), Options{})
	require.NoError(t, err)
	require.NoError(t, m.Analyze())

	covered := entry("new1", 300, domain.StatusUnread, "politics", "space")
	plain := entry("new2", 301, domain.StatusUnread, "lonely")

	assert.Equal(t, 1.0, m.Score(covered))
	assert.Equal(t, 0.0, m.Score(plain))
	assert.Equal(t, 1.0, m.Cutoff())

	r := SplitAndRank(m, []*domain.Entry{plain, covered})
	assert.Equal(t, []*domain.Entry{covered}, r.HighEntries())
	assert.Equal(t, []*domain.Entry{plain}, r.LowEntries())
}

func TestTagAffinity_DomainsCount(t *testing.T) {
	c := domain.NewCorpus()
	link := func(host string) string {
		return fmt.Sprintf(`<a href="https://www.%s/post">post</a>`, host)
	}
	for i := 0; i < 6; i++ {
		status := domain.StatusDisliked
		summary := link("noise.com")
		if i < 3 {
			status = domain.StatusLiked
			summary = link("good.org")
		}
		c.Add(domain.NewEntry(domain.Record{
			GUID: fmt.Sprintf("d%d", i), Timestamp: int64(i), Summary: summary, Status: status,
		}))
	}

	m, err := New(NameTags, c, Options{})
	require.NoError(t, err)
	require.NoError(t, m.Analyze())

	assert.Equal(t, []string{"good.org"}, m.Parameters().Domains)
	assert.Equal(t, 1.0, m.Precision())
	assert.Equal(t, 1.0, m.Recall())

	candidate := domain.NewEntry(domain.Record{GUID: "n", Summary: link("good.org")})
	assert.Equal(t, 1.0, m.Score(candidate))
}

func TestTagAffinity_InvalidAtConstruction(t *testing.T) {
	c := domain.NewCorpus(
		entry("a", 1, domain.StatusLiked, "space"),
		entry("b", 2, domain.StatusDisliked, "space"),
	)
	m, err := New(NameTags, c, Options{})
	require.NoError(t, err)

	assert.Equal(t, Invalid, m.Status())
	assert.ErrorIs(t, m.Analyze(), ErrInsufficientData)
}

func TestTagAffinity_NoQualifyingLabel(t *testing.T) {
	c := domain.NewCorpus(
		entry("a", 1, domain.StatusLiked, "one"),
		entry("b", 2, domain.StatusLiked, "two"),
		entry("c", 3, domain.StatusDisliked, "one"),
	)
	m, err := New(NameTags, c, Options{})
	require.NoError(t, err)
	require.Equal(t, Unanalyzed, m.Status())

	assert.ErrorIs(t, m.Analyze(), ErrNoSignal)
	assert.Equal(t, Invalid, m.Status())
}

func TestTagAffinity_Refine(t *testing.T) {
	c := spaceCorpus()
	for i := 0; i < 4; i++ {
		c.Add(entry(fmt.Sprintf("r%d", i), int64(400+i), domain.StatusLiked, "rockets"))
	}
	m, err := New(NameTags, c, Options{})
	require.NoError(t, err)
	require.NoError(t, m.Analyze())
	require.True(t, m.Refinable())
	require.Equal(t, []string{"rockets", "space"}, m.Parameters().Tags)

	tagPrompt := "Select the tags you'd like to subscribe to:"
	sel := &stubSelector{keep: map[string][]string{tagPrompt: {"space", "unknown"}}}
	require.NoError(t, m.Refine(sel))

	require.Len(t, sel.offered, 1, "no domain cloud to offer")
	assert.Equal(t, "rockets", sel.offered[0][0].Label)
	assert.Equal(t, "4/4=100.0%", sel.offered[0][0].Detail)
	assert.True(t, sel.offered[0][0].Selected)

	assert.Equal(t, []string{"space"}, m.Parameters().Tags)
	assert.InDelta(t, 0.8, m.Precision(), 1e-12)
	assert.InDelta(t, 8.0/64.0, m.Recall(), 1e-12)
}

func TestTagAffinity_RefineToNothing(t *testing.T) {
	m, err := New(NameTags, spaceCorpus(), Options{})
	require.NoError(t, err)
	require.NoError(t, m.Analyze())

	require.NoError(t, m.Refine(&stubSelector{}))

	assert.Empty(t, m.Parameters().Tags)
	assert.Zero(t, m.Precision())
	assert.Zero(t, m.Recall())
}
