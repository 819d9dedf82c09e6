package model

import "feed_triage/internal/domain"

const NameNone = "none"

// empty lets every entry through. It has no discriminating power, so its
// precision is the corpus like ratio.
type empty struct {
	base
	precision float64
}

func newEmpty(c *domain.Corpus, opts Options) *empty {
	m := &empty{base: newBase(NameNone, c, opts)}
	m.status = Analyzed
	m.measure()
	return m
}

func (m *empty) measure() {
	m.precision = 0
	if m.corpus == nil {
		return
	}
	ratio, err := m.corpus.LikeRatio()
	if err != nil {
		m.logger.Debug("like ratio undefined, reporting zero precision", "error", err)
		return
	}
	m.precision = ratio
}

func (m *empty) Name() string        { return NameNone }
func (m *empty) Title() string       { return "No Filter" }
func (m *empty) Description() string { return `Marks all posts as "important"` }
func (m *empty) MinData() string     { return "installing this program" }

func (m *empty) Analyze() error {
	m.measure()
	return nil
}

func (m *empty) Score(*domain.Entry) float64 {
	m.mustBeAnalyzed("Score")
	return 1
}

func (m *empty) Cutoff() float64 {
	m.mustBeAnalyzed("Cutoff")
	return 1
}

func (m *empty) Parameters() Parameters {
	m.mustBeAnalyzed("Parameters")
	return Parameters{}
}

func (m *empty) Precision() float64 { return m.precision }

func (m *empty) Recall() float64 { return 1 }
