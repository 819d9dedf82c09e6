package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed_triage/internal/domain"
)

func TestEmpty_EverythingIsHighPriority(t *testing.T) {
	c := domain.NewCorpus(
		entry("a", 1, domain.StatusLiked),
		entry("b", 2, domain.StatusDisliked),
		entry("c", 3, domain.StatusSkipped),
		entry("d", 4, domain.StatusLiked),
	)
	m, err := New(NameNone, c, Options{})
	require.NoError(t, err)
	require.Equal(t, Analyzed, m.Status())

	candidates := []*domain.Entry{
		entry("z", 30, domain.StatusUnread),
		entry("x", 10, domain.StatusUnread),
		entry("y", 20, domain.StatusUnread),
	}
	r := SplitAndRank(m, candidates)

	var guids []string
	for _, e := range r.HighEntries() {
		guids = append(guids, e.GUID)
	}
	assert.Equal(t, []string{"x", "y", "z"}, guids)
	assert.Empty(t, r.Low)

	assert.InDelta(t, 0.5, m.Precision(), 1e-12)
	assert.Equal(t, 1.0, m.Recall())
}

func TestEmpty_NoCandidates(t *testing.T) {
	m, err := New(NameNone, domain.NewCorpus(), Options{})
	require.NoError(t, err)

	r := SplitAndRank(m, nil)

	assert.Equal(t, []domain.Scored{}, r.High)
	assert.Equal(t, []domain.Scored{}, r.Low)
}

func TestEmpty_NoSeenEntries(t *testing.T) {
	m, err := New(NameNone, domain.NewCorpus(entry("a", 1, domain.StatusUnread)), Options{})
	require.NoError(t, err)

	assert.Zero(t, m.Precision())
	assert.NoError(t, m.Analyze())
	assert.Equal(t, Parameters{}, m.Parameters())
}
