package datasource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/kart-io/logger"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kart-io/sentinel-nlq/pkg/utils/errors"
)

// Config holds engine pool and logging settings.
type Config struct {
	PoolSize        int
	MaxOverflow     int
	ConnMaxLifetime time.Duration
	SlowThreshold   time.Duration
	LogLevel        gormlogger.LogLevel
}

// DefaultConfig returns pool_size=10, max_overflow=20.
func DefaultConfig() *Config {
	return &Config{
		PoolSize:        10,
		MaxOverflow:     20,
		ConnMaxLifetime: 30 * time.Minute,
		SlowThreshold:   200 * time.Millisecond,
		LogLevel:        gormlogger.Warn,
	}
}

// Manager owns the single active engine. Connecting to the same target
// reuses it; connecting elsewhere closes the previous one.
type Manager struct {
	cfg *Config

	mu     sync.Mutex
	source *Source
	db     *gorm.DB
}

// NewManager creates a Manager. A nil cfg uses DefaultConfig.
func NewManager(cfg *Config) *Manager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Manager{cfg: cfg}
}

// Connect parses raw and returns an engine for it.
func (m *Manager) Connect(ctx context.Context, raw string) (*gorm.DB, *Source, error) {
	return m.ConnectWith(ctx, raw, nil)
}

// ConnectWith is Connect with a check run against the engine before it is
// committed. When check fails a newly opened engine is closed and the
// previous one stays active.
func (m *Manager) ConnectWith(ctx context.Context, raw string, check func(*gorm.DB, *Source) error) (*gorm.DB, *Source, error) {
	src, err := Parse(raw)
	if err != nil {
		return nil, nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil && m.source.Key == src.Key {
		if check != nil {
			if err := check(m.db, m.source); err != nil {
				return nil, nil, err
			}
		}
		return m.db, m.source, nil
	}

	db, err := Open(ctx, src, m.cfg)
	if err != nil {
		return nil, nil, err
	}
	if check != nil {
		if err := check(db, src); err != nil {
			if cerr := closeDB(db); cerr != nil {
				logger.Warnw("failed to close rejected engine", "dialect", src.Dialect, "error", cerr.Error())
			}
			return nil, nil, err
		}
	}

	if m.db != nil {
		if err := closeDB(m.db); err != nil {
			logger.Warnw("failed to close previous engine", "dialect", m.source.Dialect, "error", err.Error())
		}
	}
	m.db, m.source = db, src
	logger.Infow("database engine ready", "dialect", src.Dialect)
	return db, src, nil
}

// DB returns the active engine, or nil before the first Connect.
func (m *Manager) DB() *gorm.DB {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db
}

// Close disposes the active engine.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}
	err := closeDB(m.db)
	m.db, m.source = nil, nil
	return err
}

// Dialector returns the gorm dialector for src.
func Dialector(src *Source) (gorm.Dialector, error) {
	switch src.Dialect {
	case SQLite:
		return sqlite.Open(src.DSN), nil
	case Postgres:
		return postgres.Open(src.DSN), nil
	case MySQL:
		return mysql.Open(src.DSN), nil
	}
	return nil, errors.ErrNLQUnsupportedDialect.WithMessagef(
		"Unsupported dialect '%s'. Supported: %v", src.Dialect, supported)
}

// Open creates a pooled gorm engine for src and pings it.
func Open(ctx context.Context, src *Source, cfg *Config) (*gorm.DB, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if src.Dialect == SQLite && src.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(src.Path), 0o755); err != nil {
			return nil, errors.ErrNLQConnectFailed.WithMessage("create sqlite directory").WithCause(err)
		}
	}

	dialector, err := Dialector(src)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(cfg.LogLevel, cfg.SlowThreshold),
	})
	if err != nil {
		return nil, errors.ErrNLQConnectFailed.WithMessagef("failed to connect to %s", src.Dialect).WithCause(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if src.Dialect == SQLite {
		// sqlite 只允许单写连接
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.PoolSize > 0 {
			sqlDB.SetMaxIdleConns(cfg.PoolSize)
			sqlDB.SetMaxOpenConns(cfg.PoolSize + cfg.MaxOverflow)
		}
		if cfg.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, errors.ErrNLQConnectFailed.WithMessagef("failed to ping %s", src.Dialect).WithCause(err)
	}
	return db, nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
