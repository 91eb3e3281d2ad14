package biz

import (
	"maps"
	"math"
)

// QueryType is the routing decision for a query.
type QueryType string

const (
	QueryTypeSQL      QueryType = "sql"
	QueryTypeDocument QueryType = "document"
	QueryTypeHybrid   QueryType = "hybrid"
)

// NeedsSQL reports whether the SQL path runs for t.
func (t QueryType) NeedsSQL() bool { return t == QueryTypeSQL || t == QueryTypeHybrid }

// NeedsDocuments reports whether the document path runs for t.
func (t QueryType) NeedsDocuments() bool { return t == QueryTypeDocument || t == QueryTypeHybrid }

// DocumentResult is one retrieved chunk in a Response.
type DocumentResult struct {
	FileName   string  `json:"file_name"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// Performance describes how a Response was produced.
type Performance struct {
	ElapsedSeconds    float64 `json:"elapsed_seconds"`
	CacheHit          bool    `json:"cache_hit"`
	RowsReturned      int     `json:"rows_returned"`
	DocumentsReturned int     `json:"documents_returned"`
}

// Response is the unified answer to a query.
type Response struct {
	Query           string           `json:"query"`
	QueryType       QueryType        `json:"query_type"`
	SQL             *string          `json:"sql"`
	TableResults    []map[string]any `json:"table_results"`
	DocumentResults []DocumentResult `json:"document_results"`
	Performance     Performance      `json:"performance"`
}

// Clone returns a copy that shares no mutable state with r.
// Row values are scalars after normalization, so copying each row map is enough.
func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	c := *r
	if r.SQL != nil {
		s := *r.SQL
		c.SQL = &s
	}
	c.TableResults = make([]map[string]any, len(r.TableResults))
	for i, row := range r.TableResults {
		c.TableResults[i] = maps.Clone(row)
	}
	c.DocumentResults = append([]DocumentResult(nil), r.DocumentResults...)
	if c.DocumentResults == nil {
		c.DocumentResults = []DocumentResult{}
	}
	return &c
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
