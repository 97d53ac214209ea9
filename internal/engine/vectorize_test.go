package engine

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			"unigrams then bigrams",
			"free money now",
			[]string{"free", "money", "now", "free money", "money now"},
		},
		{
			"single token has no bigrams",
			"free",
			[]string{"free"},
		},
		{
			"short tokens dropped before bigrams form",
			"i won 10 m",
			[]string{"won", "10", "won 10"},
		},
		{"only short tokens", "a b c", nil},
		{"empty", "", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Terms(tc.input))
		})
	}
}

func testVocabulary(t *testing.T, terms map[string]int, idf []float64) *Vocabulary {
	t.Helper()
	vocab, err := NewVocabulary(terms, idf)
	require.NoError(t, err)
	return vocab
}

func TestNewVocabularyValidation(t *testing.T) {
	_, err := NewVocabulary(map[string]int{"free": 0}, []float64{1, 2})
	assert.Error(t, err, "term and idf counts must agree")

	_, err = NewVocabulary(map[string]int{"free": 2}, []float64{1, 2})
	assert.Error(t, err, "column index out of range")

	_, err = NewVocabulary(map[string]int{"free": 0, "cash": 0}, []float64{1, 2})
	assert.Error(t, err, "two terms on one column")
}

func TestProjectWeightsAndNorm(t *testing.T) {
	vocab := testVocabulary(t,
		map[string]int{"free": 0, "money": 1, "free money": 2},
		[]float64{1.0, 2.0, 0.5},
	)

	vec := Project("free money", vocab)
	require.Equal(t, 3, vec.NNZ())
	assert.Equal(t, []int{0, 1, 2}, vec.Indices)
	assert.Equal(t, 3, vec.Dim)
	assert.InDelta(t, 1.0, vec.Norm(), 1e-9)

	// Raw weights before normalization are idf * (1 + ln 1) = idf.
	norm := math.Sqrt(1.0*1.0 + 2.0*2.0 + 0.5*0.5)
	assert.InDelta(t, 1.0/norm, vec.Values[0], 1e-9)
	assert.InDelta(t, 2.0/norm, vec.Values[1], 1e-9)
	assert.InDelta(t, 0.5/norm, vec.Values[2], 1e-9)
}

func TestProjectSublinearTermFrequency(t *testing.T) {
	vocab := testVocabulary(t,
		map[string]int{"free": 0, "money": 1},
		[]float64{1.0, 1.0},
	)

	// "free" occurs three times, "money" once; the component ratio must be
	// (1 + ln 3) : 1, not 3 : 1.
	vec := Project("free free free money", vocab)
	require.Equal(t, 2, vec.NNZ())
	assert.InDelta(t, 1+math.Log(3), vec.Values[0]/vec.Values[1], 1e-9)
	assert.InDelta(t, 1.0, vec.Norm(), 1e-9)
}

func TestProjectZeroVector(t *testing.T) {
	vocab := testVocabulary(t, map[string]int{"free": 0}, []float64{1.0})

	for _, input := range []string{"", "completely unrelated words", "a b"} {
		vec := Project(input, vocab)
		assert.Equal(t, 0, vec.NNZ(), "input %q", input)
		assert.Equal(t, 1, vec.Dim, "input %q", input)
		assert.InDelta(t, 0.0, vec.Norm(), 1e-12, "input %q", input)
	}
}

func TestProjectIndicesSorted(t *testing.T) {
	// Columns deliberately out of token order.
	vocab := testVocabulary(t,
		map[string]int{"now": 0, "money": 1, "free": 2},
		[]float64{1.0, 1.0, 1.0},
	)

	vec := Project("free money now", vocab)
	require.Equal(t, 3, vec.NNZ())
	assert.True(t, sort.IntsAreSorted(vec.Indices))
}

func TestProjectIgnoresUnknownTerms(t *testing.T) {
	vocab := testVocabulary(t, map[string]int{"free": 0}, []float64{1.0})

	vec := Project("free unknown words", vocab)
	require.Equal(t, 1, vec.NNZ())
	assert.Equal(t, []int{0}, vec.Indices)
	assert.InDelta(t, 1.0, vec.Values[0], 1e-9)
}
