package vectorizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitTransform_FitsOnceAndIsDeterministic(t *testing.T) {
	v := New(nil)

	corpus := []string{
		"Paris is the capital of France",
		"Berlin is the capital of Germany",
		"Madrid is the capital of Spain",
	}

	first := v.FitTransform(corpus)
	require.Len(t, first, len(corpus))
	assert.True(t, v.Fitted())

	// Transforming the same texts again must yield identical vectors.
	second := v.FitTransform(corpus)
	assert.Equal(t, first, second)
}

func TestFitTransform_UniformDimensionality(t *testing.T) {
	v := New(nil)

	vecs := v.FitTransform([]string{
		"the quick brown fox jumps over the lazy dog",
		"pack my box with five dozen liquor jugs",
		"sphinx of black quartz judge my vow",
	})

	dim := v.Dimension()
	require.Positive(t, dim)
	for _, vec := range vecs {
		assert.Len(t, vec, dim)
	}

	// Later batches are projected into the frozen space.
	later := v.FitTransform([]string{"a completely unrelated document about sailing"})
	require.Len(t, later, 1)
	assert.Len(t, later[0], dim)
}

func TestFitTransform_VocabularyFrozenAfterFit(t *testing.T) {
	v := New(nil)

	v.FitTransform([]string{"alpha bravo charlie", "bravo charlie delta"})
	dim := v.Dimension()

	// New terms from later documents must not grow the space.
	v.FitTransform([]string{"echo foxtrot golf hotel india juliett"})
	assert.Equal(t, dim, v.Dimension())
}

func TestFitTransform_DegenerateCorpusFallsBack(t *testing.T) {
	v := New(nil)

	// Stop words only: the primary path has an empty vocabulary, so the
	// binary fallback encoding takes over and the space stays unfitted.
	vecs := v.FitTransform([]string{"the and of", "is are was"})
	require.Len(t, vecs, 2)
	assert.False(t, v.Fitted())

	for _, vec := range vecs {
		for _, x := range vec {
			assert.Contains(t, []float64{0, 1}, x)
		}
	}
}

func TestFitTransform_MaxFeaturesCap(t *testing.T) {
	v := New(&Config{MaxFeatures: 5, FallbackMaxWords: 500})

	v.FitTransform([]string{
		"zebra yak xerus wombat vulture",
		"toucan shark rabbit panda otter",
	})
	assert.Equal(t, 5, v.Dimension())
}

func TestTransformQuery_UnfittedUsesFallbackSpace(t *testing.T) {
	v := New(nil)

	vec := v.TransformQuery("hello brave new world")
	// Four distinct words, binary presence.
	require.Len(t, vec, 4)
	for _, x := range vec {
		assert.Equal(t, 1.0, x)
	}
}

func TestTransformQuery_FittedSpaceDeterminism(t *testing.T) {
	v := New(nil)
	v.FitTransform([]string{
		"Paris is the capital of France",
		"the Eiffel tower stands in Paris",
	})

	a := v.TransformQuery("What is the capital of France?")
	b := v.TransformQuery("What is the capital of France?")
	assert.Equal(t, a, b)
	assert.Len(t, a, v.Dimension())

	// The query shares terms with the corpus, so it must not be zero.
	norm := 0.0
	for _, x := range a {
		norm += x * x
	}
	assert.Positive(t, norm)
}

func TestFallbackEncode_SortedCappedBinary(t *testing.T) {
	vecs := fallbackEncode([]string{"b a", "c a"}, 500)
	require.Len(t, vecs, 2)

	// Word list is the sorted union {a, b, c}.
	assert.Equal(t, []float64{1, 1, 0}, vecs[0])
	assert.Equal(t, []float64{1, 0, 1}, vecs[1])

	capped := fallbackEncode([]string{"e d c b a"}, 3)
	require.Len(t, capped[0], 3)
}
