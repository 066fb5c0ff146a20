package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "lowercases", input: "Carregador EM Lisboa", want: "carregador em lisboa"},
		{name: "folds accents", input: "estação rápida em Évora", want: "estacao rapida em evora"},
		{name: "collapses whitespace", input: "  carregador   barato \t em braga ", want: "carregador barato em braga"},
		{name: "empty stays empty", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			assert.Equal(t, tt.want, got)
			// Normalization is idempotent.
			assert.Equal(t, got, Normalize(got))
		})
	}
}

func TestCorrectorFixesKnownTypos(t *testing.T) {
	c := NewCorrector()

	tests := []struct {
		input       string
		want        string
		corrections int
	}{
		{input: "carregador barato em lixboa", want: "carregador barato em lisboa", corrections: 1},
		{input: "carrgador em matozinhos", want: "carregador em matosinhos", corrections: 2},
		{input: "carregador barato em lisboa", want: "carregador barato em lisboa", corrections: 0},
		{input: "carregador em guimarais", want: "carregador em guimaraes", corrections: 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, corrections := c.Correct(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Len(t, corrections, tt.corrections)
		})
	}
}

func TestCorrectorIsDeterministic(t *testing.T) {
	c := NewCorrector()

	first, _ := c.Correct("carregador dispnivel em lisbo")
	for i := 0; i < 5; i++ {
		again, _ := c.Correct("carregador dispnivel em lisbo")
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "carregador disponivel em lisboa", first)
}

func TestCorrectorLeavesShortAndForeignTokensAlone(t *testing.T) {
	c := NewCorrector()

	got, corrections := c.Correct("ec em xyzzyunknown")
	assert.Equal(t, "ec em xyzzyunknown", got)
	assert.Empty(t, corrections)
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("lisboa", "lisboa"), 1e-9)
	assert.InDelta(t, 0.0, Similarity("", "lisboa"), 1e-9)
	assert.Greater(t, Similarity("lisbo", "lisboa"), 0.6)
	assert.Less(t, Similarity("porto", "faro"), 0.6)
}

func TestExpandMapsSynonymsToCanonicalTerms(t *testing.T) {
	e := NewExpander(nil)

	tests := []struct {
		input string
		want  string
	}{
		{input: "posto de carregamento economico em braga", want: "carregador barato em braga"},
		{input: "estação potente em lisboa", want: "carregador rapido em lisboa"},
		{input: "terminal livre em faro", want: "carregador disponivel em faro"},
		{input: "tomada eletrica junto a setubal", want: "carregador perto setubal"},
		{input: "carregador barato em braga", want: "carregador barato em braga"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := e.Expand(tt.input)
			assert.Equal(t, tt.want, got)
			// Canonical output is a fixed point.
			assert.Equal(t, got, e.Expand(got))
		})
	}
}

func TestVocabularyContainsCitiesAndTerms(t *testing.T) {
	vocab := Vocabulary()
	require.NotEmpty(t, vocab)
	assert.Equal(t, Cities[0], vocab[0])
	assert.Contains(t, vocab, "carregador")

	assert.True(t, IsKnownCity("viana do castelo"))
	assert.False(t, IsKnownCity("atlantida"))
}
