package engine

import "fmt"

// Vocabulary is the fixed term space the model was trained against. Each
// term (a unigram or bigram of normalized tokens) maps to a column index,
// and every column carries the inverse document frequency learned during
// training. The vocabulary is immutable after construction.
type Vocabulary struct {
	index map[string]int
	idf   []float64
}

// NewVocabulary builds a vocabulary from a term-to-column mapping and the
// per-column idf weights. Every index must fall inside [0, len(idf)) and no
// two terms may share a column.
func NewVocabulary(terms map[string]int, idf []float64) (*Vocabulary, error) {
	if len(terms) != len(idf) {
		return nil, fmt.Errorf("vocabulary has %d terms but %d idf weights", len(terms), len(idf))
	}
	index := make(map[string]int, len(terms))
	seen := make([]bool, len(idf))
	for term, col := range terms {
		if col < 0 || col >= len(idf) {
			return nil, fmt.Errorf("term %q has column %d outside [0, %d)", term, col, len(idf))
		}
		if seen[col] {
			return nil, fmt.Errorf("column %d is assigned to more than one term", col)
		}
		seen[col] = true
		index[term] = col
	}
	return &Vocabulary{index: index, idf: idf}, nil
}

// Size returns the dimensionality of the feature space.
func (v *Vocabulary) Size() int {
	return len(v.idf)
}

// Lookup returns the column index for term. Terms outside the vocabulary
// report ok=false and are ignored by projection.
func (v *Vocabulary) Lookup(term string) (int, bool) {
	col, ok := v.index[term]
	return col, ok
}

// IDF returns the inverse document frequency weight for a column.
func (v *Vocabulary) IDF(col int) float64 {
	return v.idf[col]
}
