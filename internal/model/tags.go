package model

import (
	"fmt"
	"slices"

	"feed_triage/internal/domain"
)

const NameTags = "tags"

// minTagLikes is how often a label must have been liked to qualify.
const minTagLikes = 2

// tagAffinity marks entries carrying a favourite tag or link domain as
// important. Favourites are the labels liked more often than the corpus as a
// whole.
type tagAffinity struct {
	base
	tags    []string
	domains []string

	tagCloud    *domain.TagCloud
	domainCloud *domain.TagCloud

	precision float64
	recall    float64
}

func newTagAffinity(c *domain.Corpus, opts Options) *tagAffinity {
	m := &tagAffinity{base: newBase(NameTags, c, opts)}
	if c == nil || c.LikedCount() < minTagLikes {
		m.status = Invalid
	}
	return m
}

func (m *tagAffinity) Name() string  { return NameTags }
func (m *tagAffinity) Title() string { return "Favorite Tags/Domains" }
func (m *tagAffinity) Description() string {
	return `Marks only posts containing favorited tags or link domains as "important"`
}
func (m *tagAffinity) MinData() string { return "one tag or domain with two likes" }

func (m *tagAffinity) Analyze() error {
	if err := m.checkAnalyzable(m.MinData()); err != nil {
		return err
	}
	ratio, err := m.corpus.LikeRatio()
	if err != nil {
		m.status = Invalid
		return fmt.Errorf("analyze tags: %w", err)
	}

	m.tagCloud, m.domainCloud = domain.BuildTagClouds(m.corpus)
	tags := m.tagCloud.Top(m.opts.TopN, minTagLikes, ratio)
	domains := m.domainCloud.Top(m.opts.TopN, minTagLikes, ratio)
	if len(tags)+len(domains) == 0 {
		m.status = Invalid
		return fmt.Errorf("analyze tags: %w: no tag or domain liked at least %d times above the %.2f like ratio",
			ErrNoSignal, minTagLikes, ratio)
	}

	m.tags, m.domains = tags, domains
	m.status = Analyzed
	m.measure()
	m.logger.Info("tag affinity analyzed",
		"tags", len(tags),
		"domains", len(domains),
		"precision", m.precision,
		"recall", m.recall,
	)
	return nil
}

// measure recomputes precision and recall of the selected labels against
// the corpus.
func (m *tagAffinity) measure() {
	liked := m.tagCloud.LikedWith(m.tags)
	for guid, e := range m.domainCloud.LikedWith(m.domains) {
		liked[guid] = e
	}
	covered := m.tagCloud.PostsWith(m.tags)
	for guid, e := range m.domainCloud.PostsWith(m.domains) {
		covered[guid] = e
	}

	m.precision, m.recall = 0, 0
	if len(covered) > 0 {
		m.precision = float64(len(liked)) / float64(len(covered))
	}
	if n := m.corpus.LikedCount(); n > 0 {
		m.recall = float64(len(liked)) / float64(n)
	}
}

// covers reports whether e carries a selected tag or rating domain.
func (m *tagAffinity) covers(e *domain.Entry) bool {
	for _, t := range e.Tags {
		if slices.Contains(m.tags, t) {
			return true
		}
	}
	for _, d := range e.RatingDomains() {
		if slices.Contains(m.domains, d) {
			return true
		}
	}
	return false
}

func (m *tagAffinity) Score(e *domain.Entry) float64 {
	m.mustBeAnalyzed("Score")
	if m.covers(e) {
		return 1
	}
	return 0
}

func (m *tagAffinity) Cutoff() float64 {
	m.mustBeAnalyzed("Cutoff")
	return 1
}

func (m *tagAffinity) Parameters() Parameters {
	m.mustBeAnalyzed("Parameters")
	return Parameters{
		Tags:      slices.Clone(m.tags),
		Domains:   slices.Clone(m.domains),
		Precision: m.precision,
		Recall:    m.recall,
	}
}

func (m *tagAffinity) Precision() float64 {
	m.mustBeAnalyzed("Precision")
	return m.precision
}

func (m *tagAffinity) Recall() float64 {
	m.mustBeAnalyzed("Recall")
	return m.recall
}

// Refinable is true once the clouds of this run are available.
func (m *tagAffinity) Refinable() bool {
	return m.status == Analyzed && m.tagCloud != nil
}

func (m *tagAffinity) Refine(sel Selector) error {
	if !m.Refinable() {
		return fmt.Errorf("refine tags: model is %s", m.status)
	}

	tags, err := narrow(sel, "Select the tags you'd like to subscribe to:", m.tagCloud, m.tags)
	if err != nil {
		return fmt.Errorf("refine tags: %w", err)
	}
	domains, err := narrow(sel, "Please select domains to subscribe to:", m.domainCloud, m.domains)
	if err != nil {
		return fmt.Errorf("refine domains: %w", err)
	}

	m.tags, m.domains = tags, domains
	m.measure()
	m.logger.Info("tag affinity refined",
		"tags", len(tags),
		"domains", len(domains),
		"precision", m.precision,
		"recall", m.recall,
	)
	return nil
}

// narrow offers the cloud's top labels and keeps, in their ranked order,
// those the selector returned.
func narrow(sel Selector, prompt string, cloud *domain.TagCloud, current []string) ([]string, error) {
	tops := cloud.Tops()
	if len(tops) == 0 {
		return nil, nil
	}
	choices := make([]Choice, len(tops))
	for i, label := range tops {
		choices[i] = Choice{
			Label: label,
			Detail: fmt.Sprintf("%d/%d=%.1f%%",
				cloud.Likes(label), cloud.Occurrences(label), cloud.Ratio(label)*100),
			Selected: slices.Contains(current, label),
		}
	}

	picked, err := sel.Select(prompt, choices)
	if err != nil {
		return nil, err
	}
	var kept []string
	for _, label := range tops {
		if slices.Contains(picked, label) {
			kept = append(kept, label)
		}
	}
	return kept, nil
}

// loadTagAffinity rebuilds an analyzed tag model from stored parameters.
func loadTagAffinity(c *domain.Corpus, p Parameters, opts Options) *tagAffinity {
	m := &tagAffinity{
		base:      newBase(NameTags, c, opts),
		tags:      slices.Clone(p.Tags),
		domains:   slices.Clone(p.Domains),
		precision: p.Precision,
		recall:    p.Recall,
	}
	m.status = Analyzed
	return m
}
