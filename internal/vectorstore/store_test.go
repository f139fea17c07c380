package vectorstore

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testVector builds a deterministic normalized vector from text so that equal
// texts embed identically and different texts rank apart.
func testVector(text string) []float32 {
	const dims = 16
	vec := make([]float32, dims)
	for i, ch := range text {
		vec[(int(ch)+i)%dims] += 1.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func seedChunks(t *testing.T, s *Store, owner, source, batchID string, chunks []string) {
	t.Helper()
	col, err := s.Collection(owner)
	require.NoError(t, err)

	embeddings := make([][]float32, len(chunks))
	sources := make([]string, len(chunks))
	for i, c := range chunks {
		embeddings[i] = testVector(c)
		sources[i] = source
	}
	require.NoError(t, s.Add(context.Background(), col, chunks, embeddings, sources, batchID))
}

func TestCollectionIsIdempotent(t *testing.T) {
	s := NewMemoryStore()

	first, err := s.Collection("7")
	require.NoError(t, err)
	second, err := s.Collection("7")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestCollectionRejectsEmptyOwner(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Collection("")
	assert.Error(t, err)
}

func TestAddAndQueryRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	chunks := []string{
		"mitochondria are the powerhouse of the cell",
		"the krebs cycle produces ATP",
		"photosynthesis happens in chloroplasts",
	}
	seedChunks(t, s, "1", "biology.pdf", "batch-1", chunks)

	col, err := s.Collection("1")
	require.NoError(t, err)
	assert.Equal(t, 3, col.Count())

	// Querying with a stored chunk's own embedding must return that chunk first.
	got, err := s.Query(context.Background(), col, testVector(chunks[1]), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, chunks[1], got[0])
}

func TestQueryEmptyEmbedding(t *testing.T) {
	s := NewMemoryStore()
	seedChunks(t, s, "1", "a.pdf", "b1", []string{"some text"})

	col, err := s.Collection("1")
	require.NoError(t, err)

	got, err := s.Query(context.Background(), col, nil, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQueryEmptyCollection(t *testing.T) {
	s := NewMemoryStore()
	col, err := s.Collection("1")
	require.NoError(t, err)

	got, err := s.Query(context.Background(), col, testVector("anything"), 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQueryFewerEntriesThanTopK(t *testing.T) {
	s := NewMemoryStore()
	seedChunks(t, s, "1", "a.pdf", "b1", []string{"alpha", "beta"})

	col, err := s.Collection("1")
	require.NoError(t, err)

	got, err := s.Query(context.Background(), col, testVector("alpha"), 10)
	require.NoError(t, err)
	assert.Len(t, got, 2, "all available entries, no error")
}

func TestAddEmptyEmbeddingsIsNoop(t *testing.T) {
	s := NewMemoryStore()
	col, err := s.Collection("1")
	require.NoError(t, err)

	require.NoError(t, s.Add(context.Background(), col, nil, nil, nil, "b1"))
	assert.Equal(t, 0, col.Count())
}

func TestAddRejectsLengthMismatch(t *testing.T) {
	s := NewMemoryStore()
	col, err := s.Collection("1")
	require.NoError(t, err)

	err = s.Add(context.Background(), col,
		[]string{"one", "two"},
		[][]float32{testVector("one")},
		[]string{"a.pdf", "a.pdf"},
		"b1",
	)
	assert.Error(t, err)
	assert.Equal(t, 0, col.Count(), "nothing written on mismatch")
}

func TestDeleteBySource(t *testing.T) {
	s := NewMemoryStore()
	seedChunks(t, s, "1", "keep.pdf", "b1", []string{"keep one", "keep two"})
	seedChunks(t, s, "1", "drop.pdf", "b2", []string{"drop one", "drop two", "drop three"})

	col, err := s.Collection("1")
	require.NoError(t, err)
	require.Equal(t, 5, col.Count())

	require.NoError(t, s.DeleteBySource(context.Background(), col, "drop.pdf"))
	assert.Equal(t, 2, col.Count())

	// No matches is a no-op, not an error.
	require.NoError(t, s.DeleteBySource(context.Background(), col, "missing.pdf"))
	assert.Equal(t, 2, col.Count())
}

func TestOwnersAreIsolated(t *testing.T) {
	s := NewMemoryStore()
	seedChunks(t, s, "1", "a.pdf", "b1", []string{"alice's notes"})
	seedChunks(t, s, "2", "b.pdf", "b2", []string{"bob's notes"})

	colA, err := s.Collection("1")
	require.NoError(t, err)
	colB, err := s.Collection("2")
	require.NoError(t, err)

	gotA, err := s.Query(context.Background(), colA, testVector("bob's notes"), 5)
	require.NoError(t, err)
	require.Len(t, gotA, 1)
	assert.Equal(t, "alice's notes", gotA[0], "owner collections must not leak into each other")

	gotB, err := s.Query(context.Background(), colB, testVector("bob's notes"), 5)
	require.NoError(t, err)
	require.Len(t, gotB, 1)
	assert.Equal(t, "bob's notes", gotB[0])
}

func TestBatchIDsScopeEntryIDs(t *testing.T) {
	s := NewMemoryStore()
	// Same filename uploaded twice under different batch ids must not collide.
	seedChunks(t, s, "1", "notes.pdf", "batch-a", []string{"first upload"})
	seedChunks(t, s, "1", "notes.pdf", "batch-b", []string{"second upload"})

	col, err := s.Collection("1")
	require.NoError(t, err)
	assert.Equal(t, 2, col.Count())
}
