// Package model holds the closed family of triage models: a baseline that
// lets everything through, a tag/domain affinity heuristic and a linear
// bag-of-words classifier. All of them rank candidates through one
// score/cutoff contract.
package model

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"feed_triage/internal/domain"
	"feed_triage/internal/ridge"
)

var (
	ErrUnknownModel     = errors.New("unknown model")
	ErrInsufficientData = errors.New("insufficient data")
	ErrNoSignal         = errors.New("no discriminating signal")
)

type Status int

const (
	Unanalyzed Status = iota
	Analyzed
	Invalid
)

func (s Status) String() string {
	switch s {
	case Unanalyzed:
		return "Unanalyzed"
	case Analyzed:
		return "Analyzed"
	case Invalid:
		return "Invalid"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Model is a triage predictor fitted from a corpus.
//
// Score, Cutoff, Parameters, Precision and Recall may only be called on an
// Analyzed model and panic otherwise.
type Model interface {
	Name() string
	Title() string
	Description() string
	// MinData describes the least a corpus must hold for the model to be valid.
	MinData() string
	Status() Status

	Analyze() error
	Score(e *domain.Entry) float64
	Cutoff() float64
	Parameters() Parameters
	// Artifacts returns the opaque blobs referenced from Parameters.
	Artifacts() ([]Artifact, error)

	Refinable() bool
	Refine(sel Selector) error

	Precision() float64
	Recall() float64

	sealed()
}

// Parameters is the persisted form of a fitted model.
type Parameters struct {
	Tags                  []string `yaml:"tags,omitempty"`
	Domains               []string `yaml:"domains,omitempty"`
	Cutoff                float64  `yaml:"cutoff,omitempty"`
	RMSE                  float64  `yaml:"rmse,omitempty"`
	ModelArtifactRef      string   `yaml:"model_artifact_ref,omitempty"`
	VectorizerArtifactRef string   `yaml:"vectorizer_artifact_ref,omitempty"`
	Precision             float64  `yaml:"precision,omitempty"`
	Recall                float64  `yaml:"recall,omitempty"`
}

type Artifact struct {
	Ref  string
	Data []byte
}

// Choice is one label offered during refinement.
type Choice struct {
	Label    string
	Detail   string
	Selected bool
}

// Selector lets a person narrow a list of labels. It returns the labels to
// keep.
type Selector interface {
	Select(prompt string, choices []Choice) ([]string, error)
}

type Options struct {
	Logger *slog.Logger
	// TopN caps the labels kept per cloud by the tag model.
	TopN       int
	MinDocFreq int
	// MinChi2 nil means the default; 0 keeps every term with a positive
	// chi-squared statistic.
	MinChi2    *float64
	Alphas     []float64
	// Noise perturbs linear scores with Gaussian noise scaled by the
	// calibration error.
	Noise bool
}

func DefaultOptions() Options {
	minChi2 := 0.02
	return Options{
		Logger:     slog.Default(),
		TopN:       30,
		MinDocFreq: 2,
		MinChi2:    &minChi2,
		Alphas:     slices.Clone(ridge.DefaultAlphas),
		Noise:      true,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	if o.TopN == 0 {
		o.TopN = d.TopN
	}
	if o.MinDocFreq == 0 {
		o.MinDocFreq = d.MinDocFreq
	}
	if o.MinChi2 == nil {
		o.MinChi2 = d.MinChi2
	}
	if len(o.Alphas) == 0 {
		o.Alphas = d.Alphas
	}
	return o
}

// Accuracy combines precision and recall into their geometric mean.
func Accuracy(precision, recall float64) float64 {
	return math.Sqrt(precision * recall)
}

// Summary renders a model's state for listings.
func Summary(m Model) string {
	switch m.Status() {
	case Analyzed:
		p, r := m.Precision(), m.Recall()
		return fmt.Sprintf("P=%.0f%% R=%.0f%% => %.0f%%", p*100, r*100, Accuracy(p, r)*100)
	case Invalid:
		return "Insufficient Data"
	default:
		return "Unanalyzed"
	}
}

// SplitAndRank scores every candidate and splits them around the model's
// cutoff. Both halves are ordered by descending score, oldest first on ties.
func SplitAndRank(m Model, candidates []*domain.Entry) *domain.Ranking {
	cutoff := m.Cutoff()
	r := &domain.Ranking{
		Algo:   m.Name(),
		Cutoff: cutoff,
		High:   []domain.Scored{},
		Low:    []domain.Scored{},
	}
	for _, e := range candidates {
		s := domain.Scored{Entry: e, Score: m.Score(e)}
		if s.Score >= cutoff {
			r.High = append(r.High, s)
		} else {
			r.Low = append(r.Low, s)
		}
	}
	slices.SortStableFunc(r.High, compareScored)
	slices.SortStableFunc(r.Low, compareScored)
	return r
}

func compareScored(a, b domain.Scored) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	}
	return domain.CompareEntries(a.Entry, b.Entry)
}

// base carries the state machine shared by every variant.
type base struct {
	status Status
	corpus *domain.Corpus
	opts   Options
	logger *slog.Logger
}

func newBase(name string, c *domain.Corpus, opts Options) base {
	opts = opts.withDefaults()
	return base{
		status: Unanalyzed,
		corpus: c,
		opts:   opts,
		logger: opts.Logger.With("algo", name),
	}
}

func (b *base) Status() Status { return b.status }

func (b *base) Refinable() bool { return false }

func (b *base) Refine(Selector) error {
	return errors.New("model cannot be refined")
}

func (b *base) Artifacts() ([]Artifact, error) { return nil, nil }

func (b *base) sealed() {}

func (b *base) mustBeAnalyzed(op string) {
	if b.status != Analyzed {
		panic(fmt.Sprintf("model: %s called on %s model", op, b.status))
	}
}

// checkAnalyzable reports why a model cannot be analyzed.
func (b *base) checkAnalyzable(minData string) error {
	if b.status == Invalid {
		return fmt.Errorf("%w: requires %s", ErrInsufficientData, minData)
	}
	if b.corpus == nil {
		return errors.New("model has no corpus to analyze")
	}
	return nil
}
