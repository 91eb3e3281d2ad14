package store

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kart-io/sentinel-nlq/internal/model"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "documents.db")), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)
	s, err := NewGormStore(db)
	require.NoError(t, err)
	return s
}

func TestVectorRoundTrip(t *testing.T) {
	in := []float32{0.5, -1.25, 3, float32(math.Pi)}
	out, err := DecodeVector(EncodeVector(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = DecodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 3}), 1e-6)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 1}, []float32{-1, -1}), 1e-6)
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 0}))
}

func TestGormStore_SimilaritySearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddChunks(ctx, "job-1", []*Chunk{
		{FileName: "policy.txt", ChunkIndex: 0, Content: "remote work", Embedding: []float32{1, 0, 0},
			Metadata: model.ChunkMetadata{DocType: "txt", Path: "/tmp/policy.txt", WordCount: 2}},
		{FileName: "policy.txt", ChunkIndex: 1, Content: "vacation", Embedding: []float32{0, 1, 0}},
		{FileName: "resume.txt", ChunkIndex: 0, Content: "go developer", Embedding: []float32{0.9, 0.1, 0}},
	}))
	require.NoError(t, s.AddChunks(ctx, "job-2", []*Chunk{
		{FileName: "legacy.txt", ChunkIndex: 0, Content: "old model", Embedding: []float32{1, 0}},
	}))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	results, err := s.SimilaritySearch(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "remote work", results[0].Content)
	assert.Equal(t, "job-1", results[0].JobID)
	assert.Equal(t, model.ChunkMetadata{DocType: "txt", Path: "/tmp/policy.txt", WordCount: 2}, results[0].Metadata)
	assert.Equal(t, "go developer", results[1].Content)
	assert.Greater(t, results[0].Similarity, results[1].Similarity)
}

func TestGormStore_SkipsMismatchedDimensions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.AddChunks(ctx, "job", []*Chunk{
		{FileName: "a.txt", Content: "two dims", Embedding: []float32{1, 0}},
	}))

	results, err := s.SimilaritySearch(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestGormStore_DefaultTopK(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	chunks := make([]*Chunk, 8)
	for i := range chunks {
		chunks[i] = &Chunk{FileName: "bulk.csv", ChunkIndex: i, Content: "rows", Embedding: []float32{1, float32(i)}}
	}
	require.NoError(t, s.AddChunks(ctx, "job", chunks))

	results, err := s.SimilaritySearch(ctx, []float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Len(t, results, DefaultTopK)
	assert.Equal(t, 0, results[0].ChunkIndex)
}

func TestGormStore_EmptyStore(t *testing.T) {
	s := newTestStore(t)
	results, err := s.SimilaritySearch(context.Background(), []float32{1}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NoError(t, s.AddChunks(context.Background(), "job", nil))
}
