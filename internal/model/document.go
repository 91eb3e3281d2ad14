// Package model provides persistent data models for the NLQ service.
package model

import (
	"time"
)

// DocumentChunk is one stored passage of an ingested document.
// Rows are written once and never updated.
type DocumentChunk struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	JobID      string    `json:"job_id" gorm:"type:varchar(64);index:idx_documents_job_id"`
	FileName   string    `json:"file_name" gorm:"type:varchar(512)"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content" gorm:"type:text"`
	Embedding  []byte    `json:"-" gorm:"type:blob"`        // little-endian float32
	Metadata   string    `json:"metadata" gorm:"type:text"` // JSON: doc_type, path, word_count
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for DocumentChunk.
func (DocumentChunk) TableName() string {
	return "documents"
}

// ChunkMetadata is the structured form of DocumentChunk.Metadata.
type ChunkMetadata struct {
	DocType   string `json:"doc_type"`
	Path      string `json:"path"`
	WordCount int    `json:"word_count"`
}
