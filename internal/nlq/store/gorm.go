package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/kart-io/logger"
	"gorm.io/gorm"

	"github.com/kart-io/sentinel-nlq/internal/model"
	"github.com/kart-io/sentinel-nlq/pkg/utils/json"
)

const (
	insertBatchSize = 100
	scanBatchSize   = 500
)

// GormStore keeps chunks in the documents table of a gorm database.
type GormStore struct {
	db *gorm.DB
}

var _ DocumentStore = (*GormStore)(nil)

// NewGormStore migrates the documents table and returns a store on db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&model.DocumentChunk{}); err != nil {
		return nil, fmt.Errorf("migrate documents table: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) AddChunks(ctx context.Context, jobID string, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	records := make([]*model.DocumentChunk, 0, len(chunks))
	for _, c := range chunks {
		meta, err := json.MarshalString(c.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata for %s#%d: %w", c.FileName, c.ChunkIndex, err)
		}
		records = append(records, &model.DocumentChunk{
			JobID:      jobID,
			FileName:   c.FileName,
			ChunkIndex: c.ChunkIndex,
			Content:    c.Content,
			Embedding:  EncodeVector(c.Embedding),
			Metadata:   meta,
		})
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(records, insertBatchSize).Error
	})
}

// SimilaritySearch 全表扫描，跳过维度不一致的向量。
func (s *GormStore) SimilaritySearch(ctx context.Context, embedding []float32, topK int) ([]*SearchResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	var (
		results []*SearchResult
		skipped int
		batch   []*model.DocumentChunk
	)
	err := s.db.WithContext(ctx).Model(&model.DocumentChunk{}).
		FindInBatches(&batch, scanBatchSize, func(_ *gorm.DB, _ int) error {
			for _, row := range batch {
				vec, err := DecodeVector(row.Embedding)
				if err != nil || len(vec) != len(embedding) {
					skipped++
					continue
				}
				r := &SearchResult{
					JobID:      row.JobID,
					FileName:   row.FileName,
					ChunkIndex: row.ChunkIndex,
					Content:    row.Content,
					Similarity: Cosine(embedding, vec),
				}
				if row.Metadata != "" {
					_ = json.Unmarshal([]byte(row.Metadata), &r.Metadata)
				}
				results = append(results, r)
			}
			return nil
		}).Error
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	if skipped > 0 {
		logger.Debugw("skipped chunks with mismatched embedding dimension",
			"skipped", skipped, "dimension", len(embedding))
	}

	slices.SortStableFunc(results, func(a, b *SearchResult) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		}
		return 0
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (s *GormStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.DocumentChunk{}).Count(&n).Error
	return n, err
}
