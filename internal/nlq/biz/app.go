package biz

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/kart-io/logger"
	"gorm.io/gorm"

	"github.com/kart-io/sentinel-nlq/internal/nlq/metrics"
	"github.com/kart-io/sentinel-nlq/internal/nlq/store"
	"github.com/kart-io/sentinel-nlq/internal/pkg/datasource"
	"github.com/kart-io/sentinel-nlq/internal/pkg/schema"
	"github.com/kart-io/sentinel-nlq/pkg/llm"
	"github.com/kart-io/sentinel-nlq/pkg/utils/errors"
)

// AppConfig lists the collaborators owned by an AppContext.
type AppConfig struct {
	Sources     *datasource.Manager
	Documents   store.DocumentStore
	Embedder    llm.EmbeddingProvider
	Cache       ResultCache
	Pipeline    *Pipeline
	Metrics     *metrics.NLQMetrics
	HistorySize int
	TopK        int
}

// AppContext 持有服务的全部可变状态：当前数据库连接与引擎、结果缓存、查询历史、摄取任务。
// handler 通过引用共享同一个实例。
type AppContext struct {
	sources  *datasource.Manager
	docs     store.DocumentStore
	embedder llm.EmbeddingProvider
	cache    ResultCache
	history  *History
	pipeline *Pipeline
	metrics  *metrics.NLQMetrics
	topK     int

	mu     sync.RWMutex
	engine *Engine
	source *datasource.Source
}

func NewAppContext(cfg AppConfig) *AppContext {
	if cfg.Sources == nil {
		cfg.Sources = datasource.NewManager(nil)
	}
	return &AppContext{
		sources:  cfg.Sources,
		docs:     cfg.Documents,
		embedder: cfg.Embedder,
		cache:    cfg.Cache,
		history:  NewHistory(cfg.HistorySize),
		pipeline: cfg.Pipeline,
		metrics:  cfg.Metrics,
		topK:     cfg.TopK,
	}
}

// Connect opens (or reuses) the database behind connection, discovers its
// schema and installs a fresh engine. The result cache and query history are
// cleared on success. On failure the previously connected database, if any,
// stays active.
func (a *AppContext) Connect(ctx context.Context, connection string) (*schema.Schema, error) {
	var s *schema.Schema
	// 新引擎在 schema 发现成功后才替换旧引擎
	_, src, err := a.sources.ConnectWith(ctx, connection, func(db *gorm.DB, src *datasource.Source) error {
		discovered, err := schema.Discover(ctx, db)
		if err != nil {
			return errors.ErrNLQConnectFailed.WithMessage("Schema discovery failed").WithCause(err)
		}
		engine := NewEngine(db, a.docs, a.embedder, a.cache,
			WithSchema(discovered),
			WithMetrics(a.metrics),
			WithTopK(a.topK),
			WithCacheScope(cacheScope(src)),
		)

		a.mu.Lock()
		a.engine = engine
		a.source = src
		a.mu.Unlock()
		s = discovered
		return nil
	})
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		if err := a.cache.Clear(ctx); err != nil {
			logger.Warnw("Failed to clear result cache", "error", err)
		}
	}
	a.history.Clear()

	logger.Infow("Database connected", "dialect", src.Dialect, "tables", len(s.Tables))
	return s, nil
}

// cacheScope namespaces cached results by connection target.
func cacheScope(src *datasource.Source) string {
	return fmt.Sprintf("%016x:", xxhash.Sum64String(src.Key))
}

func (a *AppContext) currentEngine() *Engine {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.engine
}

// Connected reports whether a database has been connected.
func (a *AppContext) Connected() bool {
	return a.currentEngine() != nil
}

// Query answers text and records it in history.
func (a *AppContext) Query(ctx context.Context, text string) (*Response, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.ErrNLQInvalidRequest.WithMessage("query must not be empty")
	}
	engine := a.currentEngine()
	if engine == nil {
		return nil, errors.ErrNLQNotReady
	}

	resp, err := engine.Process(ctx, text)
	if err != nil {
		logger.Errorw("Query failed", "query", text, "error", err)
		return nil, errors.ErrNLQQueryFailed.WithCause(err)
	}
	a.history.Record(resp)
	return resp, nil
}

// Schema returns the schema of the connected database.
func (a *AppContext) Schema() (*schema.Schema, error) {
	engine := a.currentEngine()
	if engine == nil {
		return nil, errors.ErrNLQSchemaUnavailable
	}
	s := engine.Schema()
	if s == nil {
		return nil, errors.ErrNLQSchemaUnavailable
	}
	return s, nil
}

// History returns recent queries, newest first.
func (a *AppContext) History() []HistoryEntry {
	return a.history.List()
}

// Submit queues paths for ingestion and returns the job id.
func (a *AppContext) Submit(ctx context.Context, paths []string, opts ...SubmitOption) (string, error) {
	if len(paths) == 0 {
		return "", errors.ErrNLQInvalidRequest.WithMessage("No files provided")
	}
	if a.pipeline == nil {
		return "", errors.ErrNLQIngestFailed.WithMessage("ingestion pipeline not configured")
	}
	jobID, err := a.pipeline.Submit(ctx, paths, opts...)
	if err != nil {
		return "", errors.ErrNLQIngestFailed.WithCause(err)
	}
	return jobID, nil
}

// Job returns the status of one ingestion job.
func (a *AppContext) Job(jobID string) (*Job, error) {
	if a.pipeline != nil {
		if j, ok := a.pipeline.Job(jobID); ok {
			return j, nil
		}
	}
	return nil, errors.ErrNLQJobNotFound.WithMessagef("Unknown job_id: %s", jobID)
}

// Jobs lists every ingestion job in submission order.
func (a *AppContext) Jobs() []*Job {
	if a.pipeline == nil {
		return []*Job{}
	}
	return a.pipeline.Jobs()
}

// JobsByStatus lists jobs currently in status.
func (a *AppContext) JobsByStatus(status JobStatus) []*Job {
	if a.pipeline == nil {
		return []*Job{}
	}
	return a.pipeline.JobsByStatus(status)
}

// Close releases the database connection.
func (a *AppContext) Close() error {
	a.mu.Lock()
	a.engine = nil
	a.mu.Unlock()
	return a.sources.Close()
}
