package datasource

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.LogLevel = gormlogger.Silent
	return cfg
}

func TestManager_ConnectReusesEngine(t *testing.T) {
	dir := t.TempDir()
	url := "sqlite:///" + filepath.Join(dir, "nested", "a.db")
	m := NewManager(testConfig())
	defer m.Close()

	db1, src, err := m.Connect(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, SQLite, src.Dialect)
	assert.FileExists(t, filepath.Join(dir, "nested", "a.db"))

	db2, _, err := m.Connect(context.Background(), url)
	require.NoError(t, err)
	assert.Same(t, db1, db2)
	assert.Same(t, db1, m.DB())
}

func TestManager_ConnectSwitchesEngine(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(testConfig())
	defer m.Close()

	db1, _, err := m.Connect(context.Background(), "sqlite:///"+filepath.Join(dir, "a.db"))
	require.NoError(t, err)
	db2, _, err := m.Connect(context.Background(), "sqlite:///"+filepath.Join(dir, "b.db"))
	require.NoError(t, err)
	assert.NotSame(t, db1, db2)

	old, err := db1.DB()
	require.NoError(t, err)
	assert.Error(t, old.Ping(), "previous engine should be closed")
}

func TestManager_ConnectRejectsDialect(t *testing.T) {
	m := NewManager(nil)
	_, _, err := m.Connect(context.Background(), "mssql://sa@localhost/db")
	require.Error(t, err)
	assert.Nil(t, m.DB())
}

func TestManager_Close(t *testing.T) {
	m := NewManager(testConfig())
	_, _, err := m.Connect(context.Background(), "sqlite:///"+filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	require.NoError(t, m.Close())
	assert.Nil(t, m.DB())
	assert.NoError(t, m.Close())
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, ParseLogLevel("silent"))
	assert.Equal(t, gormlogger.Info, ParseLogLevel("info"))
	assert.Equal(t, gormlogger.Warn, ParseLogLevel("bogus"))
}

func TestManager_ConnectWithRejectedCheckKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(testConfig())
	defer m.Close()

	db1, _, err := m.Connect(context.Background(), "sqlite:///"+filepath.Join(dir, "a.db"))
	require.NoError(t, err)

	var rejected *gorm.DB
	errDiscovery := errors.New("discovery failed")
	_, _, err = m.ConnectWith(context.Background(), "sqlite:///"+filepath.Join(dir, "b.db"),
		func(db *gorm.DB, src *Source) error {
			assert.Equal(t, SQLite, src.Dialect)
			rejected = db
			return errDiscovery
		})
	require.ErrorIs(t, err, errDiscovery)

	assert.Same(t, db1, m.DB())
	active, err := db1.DB()
	require.NoError(t, err)
	assert.NoError(t, active.Ping(), "previous engine stays open")

	require.NotNil(t, rejected)
	closed, err := rejected.DB()
	require.NoError(t, err)
	assert.Error(t, closed.Ping(), "rejected engine is closed")
}

func TestManager_ConnectWithCheckOnReuse(t *testing.T) {
	url := "sqlite:///" + filepath.Join(t.TempDir(), "a.db")
	m := NewManager(testConfig())
	defer m.Close()

	db, _, err := m.Connect(context.Background(), url)
	require.NoError(t, err)

	_, _, err = m.ConnectWith(context.Background(), url, func(*gorm.DB, *Source) error {
		return errors.New("nope")
	})
	require.Error(t, err)
	assert.Same(t, db, m.DB())
}
