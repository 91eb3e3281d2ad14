package nlq

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	cacheopts "github.com/kart-io/sentinel-nlq/pkg/options/cache"
	"github.com/kart-io/sentinel-nlq/pkg/utils/json"
)

func seedCompany(t *testing.T, path string) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`CREATE TABLE departments (id INTEGER PRIMARY KEY, name TEXT)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO departments (name) VALUES ('Engineering'), ('Sales')`).Error)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func testOptions(t *testing.T) *Options {
	t.Helper()
	dir := t.TempDir()
	company := filepath.Join(dir, "company.db")
	seedCompany(t, company)

	opts := NewOptions()
	opts.HTTPOptions.Addr = "127.0.0.1:0"
	opts.HTTPOptions.Mode = "test"
	opts.HTTPOptions.ShutdownTimeout = 5 * time.Second
	opts.LogOptions.Level = "ERROR"
	opts.DatabaseOptions.ConnectionString = "sqlite:///" + company
	opts.DatabaseOptions.LogLevel = "silent"
	opts.IngestOptions.UploadDir = filepath.Join(dir, "uploads")
	opts.IngestOptions.DocumentDB = filepath.Join(dir, "docs", "documents.db")
	opts.EmbeddingOptions.Dimension = 64
	return opts
}

func startServer(t *testing.T, opts *Options) *Server {
	t.Helper()
	require.NoError(t, opts.Complete())
	require.NoError(t, opts.Validate())

	cfg, err := opts.Config()
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	cfg.Registerer = reg
	cfg.Gatherer = reg

	ctx := context.Background()
	srv, err := cfg.NewServer(ctx)
	require.NoError(t, err)
	require.NoError(t, srv.Start(ctx))
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })
	return srv
}

func call(t *testing.T, srv *Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, "http://"+srv.Addr()+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestServerEndToEnd(t *testing.T) {
	srv := startServer(t, testOptions(t))

	code, body := call(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "UP", body["status"])

	code, _ = call(t, srv, http.MethodGet, "/version", "")
	assert.Equal(t, http.StatusOK, code)

	code, body = call(t, srv, http.MethodPost, "/api/query", `{"query":"list departments"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Database connection not initialized", body["message"])

	// 未携带连接串时使用 database.connection-string
	code, body = call(t, srv, http.MethodPost, "/api/connect-database", "")
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "Connection successful", body["message"])

	code, body = call(t, srv, http.MethodPost, "/api/query", `{"query":"list departments"}`)
	require.Equal(t, http.StatusOK, code, body)
	data := body["data"].(map[string]any)
	assert.Equal(t, "sql", data["query_type"])
	assert.Len(t, data["table_results"], 2)

	code, body = call(t, srv, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Route not found", body["message"])

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	exposition, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(exposition), "nlq_ingest_pool_running_workers")
	assert.Contains(t, string(exposition), "nlq_ingest_pool_waiting_jobs")
}

func TestServerAutoConnect(t *testing.T) {
	opts := testOptions(t)
	opts.AutoConnect = true
	srv := startServer(t, opts)

	code, body := call(t, srv, http.MethodGet, "/api/schema", "")
	require.Equal(t, http.StatusOK, code, body)
	tables := body["data"].(map[string]any)["tables"].(map[string]any)
	assert.Contains(t, tables, "departments")
}

func TestServerRedisBackends(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	opts := testOptions(t)
	opts.AutoConnect = true
	opts.CacheOptions.Backend = cacheopts.BackendRedis
	opts.EmbeddingOptions.CacheEnabled = true
	opts.RedisOptions.Host = mr.Host()
	opts.RedisOptions.Port = port
	srv := startServer(t, opts)

	code, body := call(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	checks := body["checks"].(map[string]any)
	assert.Contains(t, checks, "redis")
	assert.Contains(t, checks, "documents")

	for range 2 {
		code, body = call(t, srv, http.MethodPost, "/api/query", `{"query":"list departments"}`)
		require.Equal(t, http.StatusOK, code, body)
	}
	perf := body["data"].(map[string]any)["performance"].(map[string]any)
	assert.Equal(t, true, perf["cache_hit"])
	assert.NotEmpty(t, mr.Keys())
}

func TestServerRedisUnavailable(t *testing.T) {
	opts := testOptions(t)
	opts.CacheOptions.Backend = cacheopts.BackendRedis
	opts.RedisOptions.Host = "127.0.0.1"
	opts.RedisOptions.Port = 1
	opts.RedisOptions.MaxRetries = -1
	require.NoError(t, opts.Complete())

	cfg, err := opts.Config()
	require.NoError(t, err)
	cfg.Registerer = prometheus.NewRegistry()
	_, err = cfg.NewServer(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}
