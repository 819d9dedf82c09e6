package model

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"feed_triage/internal/artifact"
	"feed_triage/internal/domain"
)

type memLoader map[string][]byte

func (l memLoader) Get(_ context.Context, ref string) ([]byte, error) {
	data, ok := l[ref]
	if !ok {
		return nil, fmt.Errorf("%w: %s", artifact.ErrNotFound, ref)
	}
	return data, nil
}

func spacePost(guid string, ts int64, status domain.Status) *domain.Entry {
	return domain.NewEntry(domain.Record{
		Title:     "Rocket launch reaches orbit",
		Summary:   fmt.Sprintf(`<p>The mission %s carried a lander.</p><a href="https://www.nasa.gov/missions/artemis">more</a>`, guid),
		GUID:      guid,
		Timestamp: ts,
		Tags:      []string{"space"},
		Status:    status,
	})
}

func politicsPost(guid string, ts int64, status domain.Status) *domain.Entry {
	return domain.NewEntry(domain.Record{
		Title:     "Senate vote on budget",
		Summary:   fmt.Sprintf(`<p>The ballot %s split the chamber.</p><a href="https://www.congress.gov/bill/budget">more</a>`, guid),
		GUID:      guid,
		Timestamp: ts,
		Tags:      []string{"politics"},
		Status:    status,
	})
}

type LinearModelTestSuite struct {
	suite.Suite
	corpus *domain.Corpus
	model  Model
}

func (s *LinearModelTestSuite) SetupTest() {
	s.corpus = domain.NewCorpus()
	for i := 0; i < 30; i++ {
		s.corpus.Add(spacePost(fmt.Sprintf("s%02d", i), int64(2*i), domain.StatusLiked))
		status := domain.StatusDisliked
		if i%3 == 0 {
			status = domain.StatusSkipped
		}
		s.corpus.Add(politicsPost(fmt.Sprintf("p%02d", i), int64(2*i+1), status))
	}

	m, err := New(NameLinear, s.corpus, Options{})
	s.Require().NoError(err)
	s.model = m
}

func (s *LinearModelTestSuite) TestAnalyze() {
	s.Require().Equal(Unanalyzed, s.model.Status())
	s.Require().NoError(s.model.Analyze())
	s.Require().Equal(Analyzed, s.model.Status())

	s.Equal(1.0, s.model.Precision())
	s.Equal(1.0, s.model.Recall())

	p := s.model.Parameters()
	s.NotEmpty(p.ModelArtifactRef)
	s.NotEmpty(p.VectorizerArtifactRef)
	s.Equal(s.model.Cutoff(), p.Cutoff)
	s.Zero(p.RMSE)

	cal := s.model.(*linear).Calibration()
	s.Require().NotNil(cal)
	s.Len(cal.Sorted, 60)
}

func (s *LinearModelTestSuite) TestRanksNewEntries() {
	s.Require().NoError(s.model.Analyze())

	space := spacePost("new-space", 100, domain.StatusUnread)
	politics := politicsPost("new-politics", 101, domain.StatusUnread)

	s.Greater(s.model.Score(space), s.model.Cutoff())
	s.Less(s.model.Score(politics), s.model.Cutoff())

	r := SplitAndRank(s.model, []*domain.Entry{politics, space})
	s.Equal([]*domain.Entry{space}, r.HighEntries())
	s.Equal([]*domain.Entry{politics}, r.LowEntries())
}

func (s *LinearModelTestSuite) TestArtifactRoundTrip() {
	s.Require().NoError(s.model.Analyze())

	artifacts, err := s.model.Artifacts()
	s.Require().NoError(err)
	s.Require().Len(artifacts, 2)
	loader := memLoader{}
	for _, a := range artifacts {
		loader[a.Ref] = a.Data
	}

	reloaded, err := FromParameters(context.Background(), "LinearModel", s.model.Parameters(), nil, loader, Options{})
	s.Require().NoError(err)
	s.Equal(Analyzed, reloaded.Status())
	s.Equal(s.model.Cutoff(), reloaded.Cutoff())
	s.Equal(s.model.Precision(), reloaded.Precision())

	for _, e := range []*domain.Entry{
		spacePost("x", 1, domain.StatusUnread),
		politicsPost("y", 2, domain.StatusUnread),
		domain.NewEntry(domain.Record{GUID: "z", Title: "Rocket vote"}),
	} {
		s.Equal(s.model.Score(e), reloaded.Score(e), e.GUID)
	}
}

// reloadWithRMSE reloads the analyzed model with its calibration error
// replaced by rmse.
func (s *LinearModelTestSuite) reloadWithRMSE(rmse float64, noise bool) *linear {
	s.Require().NoError(s.model.Analyze())
	artifacts, err := s.model.Artifacts()
	s.Require().NoError(err)
	loader := memLoader{}
	for _, a := range artifacts {
		loader[a.Ref] = a.Data
	}

	p := s.model.Parameters()
	p.RMSE = rmse
	m, err := FromParameters(context.Background(), NameLinear, p, s.corpus, loader, Options{Noise: noise})
	s.Require().NoError(err)
	return m.(*linear)
}

func (s *LinearModelTestSuite) TestScoreNoise() {
	m := s.reloadWithRMSE(0.5, true)
	e := spacePost("noisy", 100, domain.StatusUnread)
	decision := m.Decision(e)

	const n = 400
	var sum, sumSq float64
	distinct := map[float64]bool{}
	for i := 0; i < n; i++ {
		d := m.Score(e) - decision
		sum += d
		sumSq += d * d
		distinct[d] = true
	}
	mean := sum / n
	std := math.Sqrt(sumSq/n - mean*mean)

	s.Greater(len(distinct), n/2)
	s.InDelta(0, mean, 0.2)
	s.InDelta(0.5, std, 0.15)
}

func (s *LinearModelTestSuite) TestScoreWithoutNoise() {
	m := s.reloadWithRMSE(0.5, false)
	for _, e := range []*domain.Entry{
		spacePost("quiet", 100, domain.StatusUnread),
		politicsPost("calm", 101, domain.StatusUnread),
	} {
		decision := m.Decision(e)
		for i := 0; i < 10; i++ {
			s.Equal(decision, m.Score(e), e.GUID)
		}
	}
}

func (s *LinearModelTestSuite) TestMissingArtifact() {
	s.Require().NoError(s.model.Analyze())

	_, err := FromParameters(context.Background(), NameLinear, s.model.Parameters(), nil, memLoader{}, Options{})
	s.ErrorIs(err, artifact.ErrNotFound)
}

func TestLinearModelTestSuite(t *testing.T) {
	suite.Run(t, new(LinearModelTestSuite))
}

func TestLinear_InvalidAtConstruction(t *testing.T) {
	c := domain.NewCorpus()
	for i := 0; i < 30; i++ {
		c.Add(spacePost(fmt.Sprintf("s%02d", i), int64(i), domain.StatusLiked))
	}
	for i := 0; i < 24; i++ {
		c.Add(politicsPost(fmt.Sprintf("p%02d", i), int64(i), domain.StatusDisliked))
	}

	m, err := New(NameLinear, c, Options{})
	require.NoError(t, err)

	assert.Equal(t, Invalid, m.Status())
	assert.ErrorIs(t, m.Analyze(), ErrInsufficientData)
	assert.Equal(t, "Insufficient Data", Summary(m))
}
