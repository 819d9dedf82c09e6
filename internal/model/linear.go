package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"feed_triage/internal/artifact"
	"feed_triage/internal/domain"
	"feed_triage/internal/ridge"
	"feed_triage/internal/textvec"
)

const NameLinear = "linear"

const (
	minLinearLikes    = 25
	minLinearDislikes = 25
)

// linear is a ridge classifier over L2-normalised TF-IDF vectors of each
// entry's training text, with a cutoff calibrated on leave-one-out decision
// values.
type linear struct {
	base
	vectorizer *textvec.Vectorizer
	classifier *ridge.Classifier

	cutoff    float64
	rmse      float64
	precision float64
	recall    float64

	modelRef      string
	vectorizerRef string

	calibration *Calibration
}

func newLinear(c *domain.Corpus, opts Options) *linear {
	m := &linear{base: newBase(NameLinear, c, opts)}
	if c == nil || c.LikedCount() < minLinearLikes || c.DislikedCount() < minLinearDislikes {
		m.status = Invalid
	}
	return m
}

func (m *linear) Name() string        { return NameLinear }
func (m *linear) Title() string       { return "Linear Regressor" }
func (m *linear) Description() string { return "A Ridge classifier over normalized Tf-Idf Vectors" }
func (m *linear) MinData() string     { return "25 likes and dislikes" }

func (m *linear) Analyze() error {
	if err := m.checkAnalyzable(m.MinData()); err != nil {
		return err
	}

	seen := m.corpus.Seen()
	liked := make([]bool, len(seen))
	texts := make([]string, len(seen))
	for i, e := range seen {
		liked[i] = m.corpus.IsLiked(e)
		texts[i] = e.TrainingText()
	}

	start := time.Now()
	m.logger.Info("compiling dictionary", "documents", len(seen))
	docs := textvec.TokenizeAll(texts)
	vocab := textvec.SelectVocabulary(textvec.Count(docs), liked, m.opts.MinDocFreq, *m.opts.MinChi2)
	if len(vocab) == 0 {
		m.status = Invalid
		return fmt.Errorf("analyze linear: %w: no term passed feature selection", ErrNoSignal)
	}

	m.logger.Info("extracting features", "terms", len(vocab))
	vectorizer := textvec.NewVectorizer(vocab)
	rows := vectorizer.FitTransform(docs)

	m.logger.Info("fitting a model")
	fit, err := ridge.FitCV(rows, vectorizer.Dim(), liked, m.opts.Alphas)
	if err != nil {
		if errors.Is(err, ridge.ErrSingleClass) {
			m.status = Invalid
		}
		return fmt.Errorf("analyze linear: %w", err)
	}

	cal := Calibrate(fit.Values, liked)
	m.vectorizer = vectorizer
	m.classifier = fit.Classifier
	m.calibration = cal
	m.cutoff = cal.Cutoff
	m.rmse = cal.RMSE
	m.precision = cal.BestPrecision()
	m.recall = cal.BestRecall()
	m.modelRef = artifact.NewRef(NameLinear, "classifier")
	m.vectorizerRef = artifact.NewRef(NameLinear, "vectorizer")
	m.status = Analyzed

	m.logger.Info("done fitting",
		"alpha", fit.Classifier.Alpha,
		"cutoff", m.cutoff,
		"rmse", m.rmse,
		"accuracy", cal.BestAccuracy(),
		"duration", time.Since(start),
	)
	return nil
}

// Decision is the classifier's unperturbed decision value for e.
func (m *linear) Decision(e *domain.Entry) float64 {
	m.mustBeAnalyzed("Decision")
	return m.classifier.Decision(m.vectorizer.TransformText(e.TrainingText()))
}

func (m *linear) Score(e *domain.Entry) float64 {
	score := m.Decision(e)
	if m.opts.Noise && m.rmse > 0 {
		score += distuv.Normal{Mu: 0, Sigma: m.rmse}.Rand()
	}
	return score
}

func (m *linear) Cutoff() float64 {
	m.mustBeAnalyzed("Cutoff")
	return m.cutoff
}

func (m *linear) Parameters() Parameters {
	m.mustBeAnalyzed("Parameters")
	return Parameters{
		Cutoff:                m.cutoff,
		RMSE:                  m.rmse,
		ModelArtifactRef:      m.modelRef,
		VectorizerArtifactRef: m.vectorizerRef,
		Precision:             m.precision,
		Recall:                m.recall,
	}
}

func (m *linear) Artifacts() ([]Artifact, error) {
	m.mustBeAnalyzed("Artifacts")
	classifier, err := m.classifier.MarshalBinary()
	if err != nil {
		return nil, err
	}
	vectorizer, err := m.vectorizer.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return []Artifact{
		{Ref: m.modelRef, Data: classifier},
		{Ref: m.vectorizerRef, Data: vectorizer},
	}, nil
}

func (m *linear) Precision() float64 {
	m.mustBeAnalyzed("Precision")
	return m.precision
}

func (m *linear) Recall() float64 {
	m.mustBeAnalyzed("Recall")
	return m.recall
}

// Calibration returns the cutoff search of the last Analyze, nil for a model
// loaded from parameters.
func (m *linear) Calibration() *Calibration { return m.calibration }

// ArtifactLoader fetches blobs referenced from Parameters.
type ArtifactLoader interface {
	Get(ctx context.Context, ref string) ([]byte, error)
}

// loadLinear rebuilds an analyzed linear model from stored parameters and
// its artifacts without refitting.
func loadLinear(ctx context.Context, c *domain.Corpus, p Parameters, loader ArtifactLoader, opts Options) (*linear, error) {
	if p.ModelArtifactRef == "" || p.VectorizerArtifactRef == "" {
		return nil, errors.New("load linear: parameters lack artifact refs")
	}
	if loader == nil {
		return nil, errors.New("load linear: no artifact loader")
	}

	data, err := loader.Get(ctx, p.ModelArtifactRef)
	if err != nil {
		return nil, fmt.Errorf("load linear classifier: %w", err)
	}
	var classifier ridge.Classifier
	if err := classifier.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("load linear classifier: %w", err)
	}

	data, err = loader.Get(ctx, p.VectorizerArtifactRef)
	if err != nil {
		return nil, fmt.Errorf("load linear vectorizer: %w", err)
	}
	var vectorizer textvec.Vectorizer
	if err := vectorizer.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("load linear vectorizer: %w", err)
	}
	if vectorizer.Dim() != len(classifier.Coef) {
		return nil, fmt.Errorf("load linear: vectorizer has %d terms, classifier %d weights",
			vectorizer.Dim(), len(classifier.Coef))
	}

	m := &linear{
		base:          newBase(NameLinear, c, opts),
		vectorizer:    &vectorizer,
		classifier:    &classifier,
		cutoff:        p.Cutoff,
		rmse:          p.RMSE,
		precision:     p.Precision,
		recall:        p.Recall,
		modelRef:      p.ModelArtifactRef,
		vectorizerRef: p.VectorizerArtifactRef,
	}
	m.status = Analyzed
	return m, nil
}
