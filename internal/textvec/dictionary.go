package textvec

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// CountMatrix holds raw term counts of tokenized documents over a sorted
// vocabulary.
type CountMatrix struct {
	Vocabulary []string
	Rows       []Vector
	DocFreq    []int
}

// Count builds the term count matrix of the documents.
func Count(docs [][]string) *CountMatrix {
	seen := make(map[string]struct{})
	for _, doc := range docs {
		for _, tok := range doc {
			seen[tok] = struct{}{}
		}
	}
	vocab := make([]string, 0, len(seen))
	for tok := range seen {
		vocab = append(vocab, tok)
	}
	slices.Sort(vocab)

	index := indexOf(vocab)
	m := &CountMatrix{
		Vocabulary: vocab,
		Rows:       make([]Vector, len(docs)),
		DocFreq:    make([]int, len(vocab)),
	}
	for i, doc := range docs {
		m.Rows[i] = countRow(doc, index)
		for _, j := range m.Rows[i].Indices {
			m.DocFreq[j]++
		}
	}
	return m
}

// ChiSquared scores every term of the matrix against the binary label using
// the smoothed, L2-normalised TF-IDF weighting of the counts.
func (m *CountMatrix) ChiSquared(liked []bool) []float64 {
	idf := smoothIDF(m.DocFreq, len(m.Rows))

	n := float64(len(m.Rows))
	var nLiked float64
	for _, l := range liked {
		if l {
			nLiked++
		}
	}
	classProb := [2]float64{(n - nLiked) / n, nLiked / n}

	observed := [2][]float64{make([]float64, len(m.Vocabulary)), make([]float64, len(m.Vocabulary))}
	for i, row := range m.Rows {
		w := weigh(row, idf)
		class := 0
		if liked[i] {
			class = 1
		}
		for k, j := range w.Indices {
			observed[class][j] += w.Values[k]
		}
	}

	scores := make([]float64, len(m.Vocabulary))
	for j := range m.Vocabulary {
		total := observed[0][j] + observed[1][j]
		obs := []float64{observed[0][j], observed[1][j]}
		exp := []float64{classProb[0] * total, classProb[1] * total}
		scores[j] = stat.ChiSquare(obs, exp)
	}
	return scores
}

// SelectVocabulary keeps the terms found in at least minDocFreq documents
// whose chi-squared statistic exceeds minChi2. The result is sorted.
func SelectVocabulary(m *CountMatrix, liked []bool, minDocFreq int, minChi2 float64) []string {
	chi2 := m.ChiSquared(liked)
	var vocab []string
	for j, term := range m.Vocabulary {
		if m.DocFreq[j] >= minDocFreq && chi2[j] > minChi2 {
			vocab = append(vocab, term)
		}
	}
	return vocab
}

func smoothIDF(docFreq []int, n int) []float64 {
	idf := make([]float64, len(docFreq))
	for j, df := range docFreq {
		idf[j] = math.Log(float64(1+n)/float64(1+df)) + 1
	}
	return idf
}

// weigh returns a normalised TF-IDF copy of a count row.
func weigh(counts Vector, idf []float64) Vector {
	v := Vector{
		Indices: slices.Clone(counts.Indices),
		Values:  make([]float64, len(counts.Values)),
	}
	for k, j := range counts.Indices {
		v.Values[k] = counts.Values[k] * idf[j]
	}
	v.normalize()
	return v
}

func countRow(doc []string, index map[string]int) Vector {
	counts := make(map[int]float64)
	for _, tok := range doc {
		if j, ok := index[tok]; ok {
			counts[j]++
		}
	}
	v := Vector{Indices: make([]int, 0, len(counts))}
	for j := range counts {
		v.Indices = append(v.Indices, j)
	}
	slices.Sort(v.Indices)
	v.Values = make([]float64, len(v.Indices))
	for k, j := range v.Indices {
		v.Values[k] = counts[j]
	}
	return v
}

func indexOf(vocab []string) map[string]int {
	index := make(map[string]int, len(vocab))
	for j, term := range vocab {
		index[term] = j
	}
	return index
}
