package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"feed_triage/internal/config"
	"feed_triage/internal/domain"
	"feed_triage/internal/model"
	"feed_triage/internal/storage"
)

var ErrNoSelection = errors.New("no model selected yet")

// TriageService fits models over the stored history and ranks unread
// entries with the selected one. Every call reloads the full history and
// works on its own corpus.
type TriageService struct {
	entries   EntryStore
	runs      TrainingRunStore
	artifacts ArtifactStore
	settings  SettingsStore
	txManager TransactionManager
	publisher Publisher
	logger    *slog.Logger
	config    config.TriageConfig
}

func NewTriageService(
	entries EntryStore,
	runs TrainingRunStore,
	artifacts ArtifactStore,
	settings SettingsStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.TriageConfig,
) *TriageService {
	return &TriageService{
		entries:   entries,
		runs:      runs,
		artifacts: artifacts,
		settings:  settings,
		txManager: txManager,
		publisher: publisher,
		logger:    logger.With("component", "triage"),
		config:    cfg,
	}
}

func (s *TriageService) options() model.Options {
	return model.Options{
		Logger:     s.logger,
		TopN:       s.config.TagTopN,
		MinDocFreq: s.config.MinDocFreq,
		MinChi2:    s.config.MinChi2,
		Alphas:     s.config.Alphas,
		Noise:      s.config.Noise(),
	}
}

func (s *TriageService) loadCorpus(ctx context.Context) (*domain.Corpus, error) {
	records, err := s.entries.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	c := domain.NewCorpus()
	for _, r := range records {
		c.Add(domain.NewEntry(r))
	}
	s.logger.Debug("corpus loaded",
		"entries", c.Len(),
		"liked", c.LikedCount(),
		"unseen", c.UnseenCount(),
	)
	return c, nil
}

// Evaluation describes one model over the current corpus.
type Evaluation struct {
	Name        string
	Title       string
	Description string
	MinData     string
	Status      model.Status
	Summary     string
	// Err is why analysis failed, when it was attempted.
	Err     error
	LastRun *domain.TrainingRun
}

// Evaluate constructs every model over the stored history. With analyze set,
// valid models are fitted so their quality can be compared.
func (s *TriageService) Evaluate(ctx context.Context, analyze bool) ([]Evaluation, error) {
	c, err := s.loadCorpus(ctx)
	if err != nil {
		return nil, err
	}

	models := model.All(c, s.options())
	out := make([]Evaluation, 0, len(models))
	for _, m := range models {
		ev := Evaluation{
			Name:        m.Name(),
			Title:       m.Title(),
			Description: m.Description(),
			MinData:     m.MinData(),
		}
		if analyze && m.Status() == model.Unanalyzed {
			ev.Err = m.Analyze()
		}
		ev.Status = m.Status()
		ev.Summary = model.Summary(m)

		run, err := s.runs.Latest(ctx, m.Name())
		switch {
		case err == nil:
			ev.LastRun = run
		case !errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("latest run of %s: %w", m.Name(), err)
		}
		out = append(out, ev)
	}
	return out, nil
}

type TrainResult struct {
	Model model.Model
	Run   *domain.TrainingRun
}

// Train fits algo over the stored history, optionally lets sel narrow it,
// and makes it the selection used for ranking.
func (s *TriageService) Train(ctx context.Context, algo string, sel model.Selector) (*TrainResult, error) {
	c, err := s.loadCorpus(ctx)
	if err != nil {
		return nil, err
	}

	m, err := model.New(algo, c, s.options())
	if err != nil {
		return nil, err
	}
	if m.Status() != model.Analyzed {
		if err := m.Analyze(); err != nil {
			return nil, fmt.Errorf("train %s: %w", m.Name(), err)
		}
	}
	if sel != nil && m.Refinable() {
		if err := m.Refine(sel); err != nil {
			return nil, fmt.Errorf("train %s: %w", m.Name(), err)
		}
	}

	previous, err := s.settings.Load()
	if err != nil {
		return nil, fmt.Errorf("load selection: %w", err)
	}

	artifacts, err := m.Artifacts()
	if err != nil {
		return nil, fmt.Errorf("encode artifacts: %w", err)
	}
	for _, a := range artifacts {
		if err := s.artifacts.Put(ctx, a.Ref, a.Data); err != nil {
			return nil, fmt.Errorf("store artifact: %w", err)
		}
	}

	params := m.Parameters()
	if err := s.settings.Save(&config.Settings{Algo: m.Name(), AlgoParams: params}); err != nil {
		return nil, fmt.Errorf("save selection: %w", err)
	}
	if previous != nil {
		s.dropArtifacts(ctx, previous.AlgoParams, params)
	}

	run := &domain.TrainingRun{
		Algo:      m.Name(),
		Precision: m.Precision(),
		Recall:    m.Recall(),
		Accuracy:  model.Accuracy(m.Precision(), m.Recall()),
		Cutoff:    m.Cutoff(),
		Entries:   c.SeenCount(),
		TrainedAt: time.Now().UTC(),
	}
	if err := s.runs.Record(ctx, run); err != nil {
		return nil, fmt.Errorf("record training run: %w", err)
	}

	s.logger.Info("model trained",
		"algo", run.Algo,
		"summary", model.Summary(m),
		"entries", run.Entries,
	)
	return &TrainResult{Model: m, Run: run}, nil
}

// dropArtifacts removes the blobs of a replaced selection that the new one no
// longer references. Failures only leave stale files behind.
func (s *TriageService) dropArtifacts(ctx context.Context, old, current model.Parameters) {
	kept := map[string]bool{
		current.ModelArtifactRef:      true,
		current.VectorizerArtifactRef: true,
	}
	for _, ref := range []string{old.ModelArtifactRef, old.VectorizerArtifactRef} {
		if ref == "" || kept[ref] {
			continue
		}
		if err := s.artifacts.Delete(ctx, ref); err != nil {
			s.logger.Warn("delete replaced artifact failed", "ref", ref, "error", err)
			continue
		}
		s.logger.Debug("replaced artifact deleted", "ref", ref)
	}
}

// RankUnread ranks with the saved selection.
func (s *TriageService) RankUnread(ctx context.Context) (*domain.Ranking, error) {
	settings, err := s.settings.Load()
	if err != nil {
		return nil, fmt.Errorf("load selection: %w", err)
	}
	return s.Rank(ctx, settings)
}

// Rank splits the unread entries with the model described by settings. A
// selection naming a model this build does not know puts every entry in the
// low priority list.
func (s *TriageService) Rank(ctx context.Context, settings *config.Settings) (*domain.Ranking, error) {
	if settings == nil {
		return nil, ErrNoSelection
	}

	c, err := s.loadCorpus(ctx)
	if err != nil {
		return nil, err
	}
	unread := c.Unseen()

	var ranking *domain.Ranking
	m, err := model.FromParameters(ctx, settings.Algo, settings.AlgoParams, c, s.artifacts, s.options())
	switch {
	case errors.Is(err, model.ErrUnknownModel):
		s.logger.Warn("unknown model selected, treating everything as low priority",
			"algo", settings.Algo,
			"error", err,
		)
		ranking = allLow(settings.Algo, unread)
	case err != nil:
		return nil, fmt.Errorf("load model %s: %w", settings.Algo, err)
	default:
		ranking = model.SplitAndRank(m, unread)
	}

	s.logger.Info("unread entries ranked",
		"algo", ranking.Algo,
		"high", len(ranking.High),
		"low", len(ranking.Low),
	)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, ranking); err != nil {
			s.logger.Error("publish ranking failed", "error", err)
		}
	}
	return ranking, nil
}

func allLow(algo string, entries []*domain.Entry) *domain.Ranking {
	r := &domain.Ranking{
		Algo:   algo,
		Cutoff: 1,
		High:   []domain.Scored{},
		Low:    make([]domain.Scored, len(entries)),
	}
	for i, e := range entries {
		r.Low[i] = domain.Scored{Entry: e}
	}
	return r
}

// Import stores records in one transaction. Records without a status are
// unread.
func (s *TriageService) Import(ctx context.Context, records []domain.Record) (int, error) {
	for i := range records {
		if records[i].GUID == "" {
			return 0, fmt.Errorf("record %d has no guid", i)
		}
		if records[i].Status == "" {
			records[i].Status = domain.StatusUnread
			continue
		}
		status, err := domain.ParseStatus(string(records[i].Status))
		if err != nil {
			return 0, fmt.Errorf("record %s: %w", records[i].GUID, err)
		}
		records[i].Status = status
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, r := range records {
			if err := s.entries.Upsert(txCtx, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("import entries: %w", err)
	}

	s.logger.Info("entries imported", "count", len(records))
	return len(records), nil
}

// Mark records a triage decision on an entry and the links opened from it.
func (s *TriageService) Mark(ctx context.Context, guid string, status domain.Status, clicked []string) (*domain.Record, error) {
	var out domain.Record
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		r, err := s.entries.Get(txCtx, guid)
		if err != nil {
			return err
		}
		e := domain.NewEntry(*r)
		for _, link := range clicked {
			e.Click(link)
		}
		e.SetStatus(status)

		if err := s.entries.UpdateStatus(txCtx, guid, e.Status(), e.ClickedLinks()); err != nil {
			return err
		}
		out = e.Record()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mark %s: %w", guid, err)
	}

	s.logger.Debug("entry marked", "guid", guid, "status", status, "clicked", len(clicked))
	return &out, nil
}

// LabelStat is the like record of one tag or domain.
type LabelStat struct {
	Label       string
	Likes       int
	Occurrences int
	Ratio       float64
}

type Affinity struct {
	LikeRatio float64
	Tags      []LabelStat
	Domains   []LabelStat
}

// Affinity reports the best liked tags and domains of the stored history.
func (s *TriageService) Affinity(ctx context.Context) (*Affinity, error) {
	c, err := s.loadCorpus(ctx)
	if err != nil {
		return nil, err
	}
	ratio, err := c.LikeRatio()
	if err != nil {
		return nil, err
	}

	tags, domains := domain.BuildTagClouds(c)
	return &Affinity{
		LikeRatio: ratio,
		Tags:      labelStats(tags, s.config.TagTopN),
		Domains:   labelStats(domains, s.config.TagTopN),
	}, nil
}

func labelStats(cloud *domain.TagCloud, n int) []LabelStat {
	top := cloud.Top(n, 1, 0)
	out := make([]LabelStat, len(top))
	for i, label := range top {
		out[i] = LabelStat{
			Label:       label,
			Likes:       cloud.Likes(label),
			Occurrences: cloud.Occurrences(label),
			Ratio:       cloud.Ratio(label),
		}
	}
	return out
}
