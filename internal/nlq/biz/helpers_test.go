package biz

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kart-io/sentinel-nlq/internal/nlq/store"
	"github.com/kart-io/sentinel-nlq/pkg/infra/pool"
	"github.com/kart-io/sentinel-nlq/pkg/llm/local"
)

func openSQLite(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), name)), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// seedEmployees creates a three-row employees table.
func seedEmployees(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Exec(`CREATE TABLE employees (
		id INTEGER PRIMARY KEY,
		full_name TEXT NOT NULL,
		department TEXT,
		annual_salary REAL
	)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO employees (full_name, department, annual_salary) VALUES
		('Ada', 'Engineering', 120000),
		('Grace', 'Engineering', 130000),
		('Linus', 'Sales', 90000)`).Error)
}

func newDocumentStore(t *testing.T) *store.GormStore {
	t.Helper()
	s, err := store.NewGormStore(openSQLite(t, "documents.db"))
	require.NoError(t, err)
	return s
}

func newTestPool(t *testing.T) *pool.Pool {
	t.Helper()
	p, err := pool.NewPool("ingest-test", pool.IngestionPoolConfig(2))
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func newTestPipeline(t *testing.T, docs store.DocumentStore) *Pipeline {
	t.Helper()
	return NewPipeline(newTestPool(t), docs, local.New(64), PipelineConfig{BatchSize: 2})
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func waitForJob(t *testing.T, p *Pipeline, jobID string) *Job {
	t.Helper()
	var job *Job
	require.Eventually(t, func() bool {
		j, ok := p.Job(jobID)
		if !ok {
			return false
		}
		job = j
		return j.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond)
	return job
}

var bg = context.Background()
