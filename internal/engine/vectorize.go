package engine

import (
	"math"
	"sort"
)

// minTokenLen mirrors the training tokenizer, which only keeps tokens of
// two or more characters before n-grams are formed.
const minTokenLen = 2

// FeatureVector is a sparse tf-idf vector over the vocabulary's column
// space. Indices are sorted ascending and hold no duplicates; Dim is the
// full dimensionality of the space, including columns that are zero here.
type FeatureVector struct {
	Indices []int
	Values  []float64
	Dim     int
}

// NNZ returns the number of non-zero components.
func (v FeatureVector) NNZ() int {
	return len(v.Indices)
}

// Norm returns the Euclidean length of the vector.
func (v FeatureVector) Norm() float64 {
	var sum float64
	for _, val := range v.Values {
		sum += val * val
	}
	return math.Sqrt(sum)
}

// Terms expands normalized text into the unigrams and bigrams the model
// scores on. Tokens shorter than two characters are discarded first, which
// matches the training tokenizer, so "a b" yields no terms at all.
func Terms(normalized string) []string {
	tokens := Tokens(normalized)
	kept := tokens[:0]
	for _, tok := range tokens {
		if len(tok) >= minTokenLen {
			kept = append(kept, tok)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	terms := make([]string, 0, 2*len(kept)-1)
	terms = append(terms, kept...)
	for i := 0; i+1 < len(kept); i++ {
		terms = append(terms, kept[i]+" "+kept[i+1])
	}
	return terms
}

// Project maps normalized text onto the vocabulary's feature space.
// Term counts are dampened sublinearly (1 + ln count), scaled by idf and
// the vector is L2-normalized. Terms outside the vocabulary contribute
// nothing, and text with no in-vocabulary terms projects to the zero
// vector rather than an error.
func Project(normalized string, vocab *Vocabulary) FeatureVector {
	counts := make(map[int]int)
	for _, term := range Terms(normalized) {
		if col, ok := vocab.Lookup(term); ok {
			counts[col]++
		}
	}

	vec := FeatureVector{Dim: vocab.Size()}
	if len(counts) == 0 {
		return vec
	}

	vec.Indices = make([]int, 0, len(counts))
	for col := range counts {
		vec.Indices = append(vec.Indices, col)
	}
	sort.Ints(vec.Indices)

	vec.Values = make([]float64, len(vec.Indices))
	var sumSq float64
	for i, col := range vec.Indices {
		w := (1 + math.Log(float64(counts[col]))) * vocab.IDF(col)
		vec.Values[i] = w
		sumSq += w * w
	}

	// L2 normalization; an all-zero vector is left untouched.
	if norm := math.Sqrt(sumSq); norm > 0 {
		for i := range vec.Values {
			vec.Values[i] /= norm
		}
	}
	return vec
}
