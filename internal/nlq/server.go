package nlq

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/kart-io/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/kart-io/sentinel-nlq/internal/nlq/biz"
	"github.com/kart-io/sentinel-nlq/internal/nlq/handler"
	"github.com/kart-io/sentinel-nlq/internal/nlq/metrics"
	"github.com/kart-io/sentinel-nlq/internal/nlq/router"
	"github.com/kart-io/sentinel-nlq/internal/nlq/store"
	"github.com/kart-io/sentinel-nlq/internal/pkg/chunker"
	"github.com/kart-io/sentinel-nlq/internal/pkg/datasource"
	"github.com/kart-io/sentinel-nlq/pkg/infra/app"
	"github.com/kart-io/sentinel-nlq/pkg/infra/middleware"
	"github.com/kart-io/sentinel-nlq/pkg/infra/pool"
	"github.com/kart-io/sentinel-nlq/pkg/infra/server"
	httpserver "github.com/kart-io/sentinel-nlq/pkg/infra/server/http"
	"github.com/kart-io/sentinel-nlq/pkg/infra/tracing"
	"github.com/kart-io/sentinel-nlq/pkg/llm"
	// 注册 Embedding 供应商
	_ "github.com/kart-io/sentinel-nlq/pkg/llm/local"
	_ "github.com/kart-io/sentinel-nlq/pkg/llm/ollama"
	_ "github.com/kart-io/sentinel-nlq/pkg/llm/openai"
	cacheopts "github.com/kart-io/sentinel-nlq/pkg/options/cache"
	dbopts "github.com/kart-io/sentinel-nlq/pkg/options/database"
	embeddingopts "github.com/kart-io/sentinel-nlq/pkg/options/embedding"
	ingestopts "github.com/kart-io/sentinel-nlq/pkg/options/ingest"
	logopts "github.com/kart-io/sentinel-nlq/pkg/options/logger"
	redisopts "github.com/kart-io/sentinel-nlq/pkg/options/redis"
	httpopts "github.com/kart-io/sentinel-nlq/pkg/options/server/http"
	tracingopts "github.com/kart-io/sentinel-nlq/pkg/options/tracing"
)

// Name is the name of the application.
const Name = "nlq-server"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions      *httpopts.Options
	LogOptions       *logopts.Options
	DatabaseOptions  *dbopts.Options
	RedisOptions     *redisopts.Options
	CacheOptions     *cacheopts.Options
	EmbeddingOptions *embeddingopts.Options
	IngestOptions    *ingestopts.Options
	TracingOptions   *tracingopts.Options
	AutoConnect      bool

	// Registerer receives the service collectors. Nil uses the default registry.
	Registerer prometheus.Registerer
	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// Server represents the NLQ server.
type Server struct {
	mgr  *server.Manager
	http *httpserver.Server
}

// NewServer initializes and returns a new Server instance. Resources opened
// before a failure are released before returning.
func (cfg *Config) NewServer(ctx context.Context) (_ *Server, err error) {
	// 1. 初始化日志
	if err := cfg.LogOptions.Init(Name); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Infow("Starting NLQ service...", "version", app.GetVersion())

	var closers []func(context.Context) error
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				_ = closers[i](ctx)
			}
		}
	}()

	// 2. 初始化链路追踪
	tp, err := tracing.NewProvider(ctx, cfg.TracingOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	closers = append(closers, tp.Shutdown)

	// 3. 初始化 Redis 客户端（按需）
	var redisClient goredis.UniversalClient
	if cfg.CacheOptions.Backend == cacheopts.BackendRedis || cfg.EmbeddingOptions.CacheEnabled {
		redisClient = cfg.RedisOptions.NewClient()
		closers = append(closers, func(context.Context) error { return redisClient.Close() })
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis %s: %w", cfg.RedisOptions.Addr(), err)
		}
		logger.Infow("Redis client initialized", "redis", cfg.RedisOptions.String())
	}

	// 4. 初始化文档存储
	docs, docsDB, err := openDocumentStore(cfg.IngestOptions.DocumentDB, cfg.dataSourceConfig())
	if err != nil {
		return nil, err
	}
	closers = append(closers, func(context.Context) error {
		sqlDB, err := docsDB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})
	logger.Infow("Document store initialized", "path", cfg.IngestOptions.DocumentDB)

	// 5. 初始化 Embedding 供应商
	embedder, err := llm.New(cfg.EmbeddingOptions.Provider, cfg.EmbeddingOptions.ToConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedding provider: %w", err)
	}
	if cfg.EmbeddingOptions.CacheEnabled {
		embedder = llm.NewCachedEmbeddingProvider(embedder, redisClient, &llm.EmbeddingCacheConfig{
			TTL:       cfg.EmbeddingOptions.CacheTTL,
			KeyPrefix: "nlq:emb:" + cfg.EmbeddingOptions.Model + ":",
		})
	}
	logger.Infow("Embedding provider initialized",
		"provider", cfg.EmbeddingOptions.Provider,
		"model", cfg.EmbeddingOptions.Model,
		"cache", cfg.EmbeddingOptions.CacheEnabled,
	)

	// 6. 初始化查询结果缓存
	var resultCache biz.ResultCache
	switch cfg.CacheOptions.Backend {
	case cacheopts.BackendRedis:
		resultCache = biz.NewRedisResultCache(redisClient, cfg.CacheOptions.TTL, cfg.CacheOptions.KeyPrefix)
	default:
		resultCache = biz.NewMemoryResultCache(cfg.CacheOptions.MaxSize, cfg.CacheOptions.TTL)
	}

	// 7. 初始化摄取协程池与流水线
	reg := cfg.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	nlqMetrics := metrics.New(reg)

	ingestPool, err := pool.NewPool("ingest", pool.IngestionPoolConfig(cfg.IngestOptions.Workers))
	if err != nil {
		return nil, fmt.Errorf("failed to create ingestion pool: %w", err)
	}
	metrics.RegisterPool(reg, ingestPool)
	closers = append(closers, func(ctx context.Context) error {
		if deadline, ok := ctx.Deadline(); ok {
			return ingestPool.ReleaseTimeout(max(0, time.Until(deadline)))
		}
		ingestPool.Release()
		return nil
	})

	pipeline := biz.NewPipeline(ingestPool, docs, embedder, biz.PipelineConfig{
		BatchSize: cfg.EmbeddingOptions.BatchSize,
		Chunker: chunker.New(
			chunker.WithTargetWords(cfg.IngestOptions.ChunkWords),
			chunker.WithCSVRows(cfg.IngestOptions.CSVRows),
		),
		Metrics: nlqMetrics,
	})

	// 8. 初始化 Biz 层
	appCtx := biz.NewAppContext(biz.AppConfig{
		Sources:     datasource.NewManager(cfg.dataSourceConfig()),
		Documents:   docs,
		Embedder:    embedder,
		Cache:       resultCache,
		Pipeline:    pipeline,
		Metrics:     nlqMetrics,
		HistorySize: cfg.IngestOptions.HistorySize,
		TopK:        cfg.IngestOptions.TopK,
	})
	closers = append(closers, func(context.Context) error { return appCtx.Close() })

	if cfg.AutoConnect {
		if _, err := appCtx.Connect(ctx, cfg.DatabaseOptions.ConnectionString); err != nil {
			logger.Warnw("Auto-connect failed, waiting for /api/connect-database", "error", err)
		}
	}

	// 9. 初始化 HTTP 服务器
	httpSrv := httpserver.NewServer(cfg.HTTPOptions)
	engine := httpSrv.Engine()
	engine.Use(
		middleware.Recovery(middleware.RecoveryConfig{EnableStackTrace: cfg.HTTPOptions.Mode == "debug"}),
		middleware.RequestID(),
		middleware.Tracing(Name),
		middleware.AccessLog(middleware.DefaultSkipPaths...),
		middleware.CORS(middleware.AllowAllCORSConfig),
		middleware.NewHTTPMetrics(reg, "nlq").Handler(),
	)

	health := middleware.NewHealthManager(app.GetVersion())
	health.RegisterChecker("documents", func(ctx context.Context) error {
		_, err := docs.Count(ctx)
		return err
	})
	if redisClient != nil {
		health.RegisterChecker("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	engine.GET("/health", health.Handler())
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	engine.GET("/version", middleware.Version(Name))

	// 10. 注册路由
	router.Register(engine, handler.NewNLQHandler(appCtx, handler.Config{
		UploadDir:         cfg.IngestOptions.UploadDir,
		DefaultConnection: cfg.DatabaseOptions.ConnectionString,
	}))

	// 11. 组装生命周期，HTTP 先停，资源后释放
	mgr := server.NewManager(cfg.HTTPOptions.ShutdownTimeout)
	mgr.Add(
		server.Hook{
			HookName: "resources",
			OnStop: func(ctx context.Context) error {
				var errs []error
				for i := len(closers) - 1; i >= 0; i-- {
					if err := closers[i](ctx); err != nil {
						errs = append(errs, err)
					}
				}
				return errors.Join(errs...)
			},
		},
		httpSrv,
	)

	logger.Infow("NLQ service is ready", "addr", cfg.HTTPOptions.Addr)
	return &Server{mgr: mgr, http: httpSrv}, nil
}

// Run starts the server and blocks until ctx is cancelled or a signal arrives.
func (s *Server) Run(ctx context.Context) error {
	return s.mgr.Run(ctx)
}

// Start starts every component without waiting for a signal.
func (s *Server) Start(ctx context.Context) error {
	return s.mgr.Start(ctx)
}

// Stop stops every component.
func (s *Server) Stop(ctx context.Context) error {
	return s.mgr.Stop(ctx)
}

// Addr returns the bound HTTP address.
func (s *Server) Addr() string {
	return s.http.Addr()
}

func (cfg *Config) dataSourceConfig() *datasource.Config {
	return &datasource.Config{
		PoolSize:        cfg.DatabaseOptions.PoolSize,
		MaxOverflow:     cfg.DatabaseOptions.MaxOverflow,
		ConnMaxLifetime: cfg.DatabaseOptions.ConnMaxLifetime,
		SlowThreshold:   cfg.DatabaseOptions.SlowThreshold,
		LogLevel:        datasource.ParseLogLevel(cfg.DatabaseOptions.LogLevel),
	}
}

// openDocumentStore opens the sqlite file holding document chunks.
func openDocumentStore(path string, dsCfg *datasource.Config) (*store.GormStore, *gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create document store directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: datasource.NewGormLogger(dsCfg.LogLevel, dsCfg.SlowThreshold),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open document store: %w", err)
	}
	docs, err := store.NewGormStore(db)
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, nil, fmt.Errorf("failed to initialize document store: %w", err)
	}
	return docs, db, nil
}
