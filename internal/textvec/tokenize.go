// Package textvec turns training documents into TF-IDF vectors over a
// vocabulary selected for its correlation with the like/dislike label.
package textvec

import (
	"strings"

	"github.com/jdkato/prose/tokenize"
	"github.com/kljensen/snowball/english"
)

var treebank = tokenize.NewTreebankWordTokenizer()

// Tokenize splits text into Treebank word tokens, strips one trailing period
// from each and reduces it to its English Snowball stem. The stemmer is the
// only case normalisation applied.
func Tokenize(text string) []string {
	raw := treebank.Tokenize(text)
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		tok = strings.TrimSuffix(tok, ".")
		if tok == "" {
			continue
		}
		if stem := english.Stem(tok, true); stem != "" {
			out = append(out, stem)
		}
	}
	return out
}

// TokenizeAll tokenizes every document.
func TokenizeAll(docs []string) [][]string {
	out := make([][]string, len(docs))
	for i, d := range docs {
		out[i] = Tokenize(d)
	}
	return out
}
