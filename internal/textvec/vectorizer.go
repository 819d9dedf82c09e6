package textvec

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Vectorizer maps tokenized documents to L2-normalised TF-IDF vectors over a
// fixed vocabulary.
type Vectorizer struct {
	Vocabulary []string
	IDF        []float64

	index map[string]int
}

func NewVectorizer(vocabulary []string) *Vectorizer {
	return &Vectorizer{
		Vocabulary: vocabulary,
		index:      indexOf(vocabulary),
	}
}

// Dim is the vector dimension.
func (v *Vectorizer) Dim() int { return len(v.Vocabulary) }

// Fit learns the inverse document frequencies from the training documents.
func (v *Vectorizer) Fit(docs [][]string) {
	df := make([]int, len(v.Vocabulary))
	for _, doc := range docs {
		for _, j := range countRow(doc, v.index).Indices {
			df[j]++
		}
	}
	v.IDF = smoothIDF(df, len(docs))
}

// FitTransform fits and returns the vectors of the training documents.
func (v *Vectorizer) FitTransform(docs [][]string) []Vector {
	v.Fit(docs)
	out := make([]Vector, len(docs))
	for i, doc := range docs {
		out[i] = v.Transform(doc)
	}
	return out
}

// Transform vectorizes one tokenized document. Terms outside the vocabulary
// are ignored.
func (v *Vectorizer) Transform(doc []string) Vector {
	return weigh(countRow(doc, v.index), v.IDF)
}

// TransformText tokenizes and vectorizes raw text.
func (v *Vectorizer) TransformText(text string) Vector {
	return v.Transform(Tokenize(text))
}

func (v *Vectorizer) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(vectorizerState{Vocabulary: v.Vocabulary, IDF: v.IDF}); err != nil {
		return nil, fmt.Errorf("encode vectorizer: %w", err)
	}
	return buf.Bytes(), nil
}

func (v *Vectorizer) UnmarshalBinary(data []byte) error {
	var state vectorizerState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return fmt.Errorf("decode vectorizer: %w", err)
	}
	if len(state.IDF) != len(state.Vocabulary) {
		return fmt.Errorf("decode vectorizer: %d idf weights for %d terms", len(state.IDF), len(state.Vocabulary))
	}
	v.Vocabulary = state.Vocabulary
	v.IDF = state.IDF
	v.index = indexOf(state.Vocabulary)
	return nil
}

type vectorizerState struct {
	Vocabulary []string
	IDF        []float64
}
