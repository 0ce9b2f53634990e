package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Serializing a document's chunk and vector payload and reading it back
// must reproduce the original sequences exactly.
func TestJSONColumns_RoundTrip(t *testing.T) {
	chunks := StringArray{"first chunk", "second chunk", "chunk with \"quotes\" and  spaces"}
	embeddings := VectorArray{
		{0.1, 0.2, 0.30000000000000004},
		{1, 0, 0.5},
		{0.3333333333333333, 2e-10, 123456.789},
	}

	chunkValue, err := chunks.Value()
	require.NoError(t, err)
	embedValue, err := embeddings.Value()
	require.NoError(t, err)

	var gotChunks StringArray
	require.NoError(t, gotChunks.Scan(chunkValue))
	assert.Equal(t, chunks, gotChunks)

	var gotEmbeddings VectorArray
	require.NoError(t, gotEmbeddings.Scan(embedValue))
	assert.Equal(t, embeddings, gotEmbeddings)
}

func TestJSONColumns_ScanAcceptsBytes(t *testing.T) {
	var chunks StringArray
	require.NoError(t, chunks.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, StringArray{"a", "b"}, chunks)

	var embeddings VectorArray
	require.NoError(t, embeddings.Scan([]byte(`[[0.5,1.5]]`)))
	assert.Equal(t, VectorArray{{0.5, 1.5}}, embeddings)
}

func TestJSONColumns_NilSerializesAsEmptyArray(t *testing.T) {
	var chunks StringArray
	v, err := chunks.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	var embeddings VectorArray
	v, err = embeddings.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestJSONColumns_ScanRejectsUnsupportedType(t *testing.T) {
	var chunks StringArray
	assert.Error(t, chunks.Scan(42))
}
