package biz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/kart-io/sentinel-nlq/internal/nlq/metrics"
	"github.com/kart-io/sentinel-nlq/internal/nlq/store"
	"github.com/kart-io/sentinel-nlq/internal/pkg/schema"
	"github.com/kart-io/sentinel-nlq/pkg/infra/tracing"
	"github.com/kart-io/sentinel-nlq/pkg/llm"
)

const tracerName = "github.com/kart-io/sentinel-nlq/internal/nlq/biz"

// Engine answers natural language queries against one relational database
// and the shared document store.
type Engine struct {
	db       *gorm.DB
	docs     store.DocumentStore
	embedder llm.EmbeddingProvider
	cache    ResultCache
	metrics  *metrics.NLQMetrics
	topK     int
	scope    string
	quote    Quoter

	// schema 首次查询时懒加载，失败后下次查询重试。
	mu     sync.Mutex
	schema *schema.Schema
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithSchema seeds an already discovered schema.
func WithSchema(s *schema.Schema) EngineOption {
	return func(e *Engine) { e.schema = s }
}

func WithMetrics(m *metrics.NLQMetrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithTopK sets how many chunks the document path returns.
func WithTopK(k int) EngineOption {
	return func(e *Engine) {
		if k > 0 {
			e.topK = k
		}
	}
}

// WithCacheScope prefixes every result cache key with scope.
func WithCacheScope(scope string) EngineOption {
	return func(e *Engine) { e.scope = scope }
}

// NewEngine creates an engine. docs and embedder may be nil, in which case the
// document path always returns no results. A nil cache disables caching.
func NewEngine(db *gorm.DB, docs store.DocumentStore, embedder llm.EmbeddingProvider, cache ResultCache, opts ...EngineOption) *Engine {
	e := &Engine{
		db:       db,
		docs:     docs,
		embedder: embedder,
		cache:    cache,
		topK:     store.DefaultTopK,
		quote:    DialectQuoter(db),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Schema returns the discovered schema, or nil before the first discovery.
func (e *Engine) Schema() *schema.Schema {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.schema
}

// EnsureSchema discovers the schema once. Concurrent callers wait for the
// same discovery; a failed discovery is retried by the next caller.
func (e *Engine) EnsureSchema(ctx context.Context) (*schema.Schema, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.schema != nil {
		return e.schema, nil
	}
	s, err := schema.Discover(ctx, e.db)
	if err != nil {
		return nil, err
	}
	e.schema = s
	return s, nil
}

type sqlResult struct {
	sql  *string
	rows []map[string]any
}

// Process answers query, serving repeated queries from the result cache.
func (e *Engine) Process(ctx context.Context, query string) (*Response, error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "nlq.process")
	defer span.End()

	key := e.scope + NormalizeKey(query)
	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, key); ok {
			cached.Performance.CacheHit = true
			span.SetAttributes(tracing.Bool("nlq.cache_hit", true))
			e.metrics.RecordQuery(string(cached.QueryType), 0, true)
			return cached, nil
		}
	}

	s, err := e.EnsureSchema(ctx)
	if err != nil {
		return nil, e.fail(ctx, fmt.Errorf("discover schema: %w", err))
	}

	start := time.Now()
	queryType := Classify(query)
	span.SetAttributes(tracing.String("nlq.query_type", string(queryType)))

	var (
		sqlRes sqlResult
		docs   []DocumentResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sqlRes, err = e.runSQL(gctx, query, queryType, s)
		return err
	})
	g.Go(func() error {
		var err error
		docs, err = e.searchDocuments(gctx, query, queryType)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, e.fail(ctx, err)
	}

	elapsed := time.Since(start)
	resp := &Response{
		Query:           query,
		QueryType:       queryType,
		SQL:             sqlRes.sql,
		TableResults:    sqlRes.rows,
		DocumentResults: docs,
		Performance: Performance{
			ElapsedSeconds:    round3(elapsed.Seconds()),
			RowsReturned:      len(sqlRes.rows),
			DocumentsReturned: len(docs),
		},
	}

	if e.cache != nil {
		e.cache.Set(ctx, key, resp)
	}
	e.metrics.RecordQuery(string(queryType), elapsed, false)
	logger.Debugw("Query processed",
		"query_type", queryType,
		"rows", resp.Performance.RowsReturned,
		"documents", resp.Performance.DocumentsReturned,
		"elapsed", elapsed,
	)
	return resp, nil
}

func (e *Engine) fail(ctx context.Context, err error) error {
	tracing.RecordError(ctx, err)
	e.metrics.RecordQueryError()
	return err
}

func (e *Engine) runSQL(ctx context.Context, query string, queryType QueryType, s *schema.Schema) (sqlResult, error) {
	empty := sqlResult{rows: []map[string]any{}}
	if !queryType.NeedsSQL() {
		return empty, nil
	}

	ctx, span := tracing.StartSpan(ctx, tracerName, "nlq.sql")
	defer span.End()

	stmt := GenerateSQL(query, schema.MapQuery(query, s), e.quote)
	if stmt == nil {
		return empty, nil
	}
	sql := OptimizeSQL(stmt.SQL)
	span.SetAttributes(tracing.String(tracing.DBStatement, sql))

	var rows []map[string]any
	if err := e.db.WithContext(ctx).Raw(sql, stmt.Params...).Scan(&rows).Error; err != nil {
		tracing.RecordError(ctx, err)
		return sqlResult{}, fmt.Errorf("execute sql: %w", err)
	}
	return sqlResult{sql: &sql, rows: schema.NormalizeRows(rows)}, nil
}

func (e *Engine) searchDocuments(ctx context.Context, query string, queryType QueryType) ([]DocumentResult, error) {
	if !queryType.NeedsDocuments() || e.docs == nil || e.embedder == nil {
		return []DocumentResult{}, nil
	}

	ctx, span := tracing.StartSpan(ctx, tracerName, "nlq.documents")
	defer span.End()

	vec, err := e.embedder.EmbedSingle(ctx, query)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := e.docs.SimilaritySearch(ctx, llm.Normalize(vec), e.topK)
	if err != nil {
		tracing.RecordError(ctx, err)
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	out := make([]DocumentResult, 0, len(hits))
	for _, h := range hits {
		out = append(out, DocumentResult{
			FileName:   h.FileName,
			ChunkIndex: h.ChunkIndex,
			Content:    h.Content,
			Similarity: round3(h.Similarity),
		})
	}
	span.SetAttributes(tracing.Int("nlq.documents", len(out)))
	return out, nil
}
