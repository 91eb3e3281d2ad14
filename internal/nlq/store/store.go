// Package store persists document chunks and answers similarity searches.
package store

import (
	"context"

	"github.com/kart-io/sentinel-nlq/internal/model"
)

// DefaultTopK is the number of results returned when topK is not positive.
const DefaultTopK = 5

// Chunk is a passage ready to be stored.
type Chunk struct {
	FileName   string
	ChunkIndex int
	Content    string
	Embedding  []float32
	Metadata   model.ChunkMetadata
}

// SearchResult is a stored chunk ranked against a query vector.
type SearchResult struct {
	JobID      string              `json:"job_id"`
	FileName   string              `json:"file_name"`
	ChunkIndex int                 `json:"chunk_index"`
	Content    string              `json:"content"`
	Metadata   model.ChunkMetadata `json:"metadata"`
	Similarity float64             `json:"similarity"`
}

// DocumentStore 定义文档块存储接口。
type DocumentStore interface {
	// AddChunks appends chunks produced by one ingestion job.
	AddChunks(ctx context.Context, jobID string, chunks []*Chunk) error

	// SimilaritySearch scans every stored chunk and returns the topK most similar.
	SimilaritySearch(ctx context.Context, embedding []float32, topK int) ([]*SearchResult, error)

	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int64, error)
}
