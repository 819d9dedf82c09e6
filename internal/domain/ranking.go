package domain

import "time"

// Ranking is the outcome of splitting candidates around a model's cutoff.
type Ranking struct {
	Algo   string
	Cutoff float64
	High   []Scored
	Low    []Scored
}

// Scored pairs an entry with the score it was ranked by.
type Scored struct {
	Entry *Entry
	Score float64
}

func (r *Ranking) HighEntries() []*Entry { return entriesOf(r.High) }

func (r *Ranking) LowEntries() []*Entry { return entriesOf(r.Low) }

func entriesOf(scored []Scored) []*Entry {
	out := make([]*Entry, len(scored))
	for i, s := range scored {
		out[i] = s.Entry
	}
	return out
}

// TrainingRun records the self-reported quality of one fitted model.
type TrainingRun struct {
	ID        int64     `db:"id"`
	Algo      string    `db:"algo"`
	Precision float64   `db:"precision"`
	Recall    float64   `db:"recall"`
	Accuracy  float64   `db:"accuracy"`
	Cutoff    float64   `db:"cutoff"`
	Entries   int       `db:"entries"`
	TrainedAt time.Time `db:"trained_at"`
}
