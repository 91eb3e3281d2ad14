// Package database provides options for the queried relational database.
package database

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kart-io/sentinel-nlq/pkg/options"
	"github.com/spf13/pflag"
)

var _ options.IOptions = (*Options)(nil)

// URLEnv overrides the configured connection string when set.
const URLEnv = "DATABASE_URL"

// DefaultConnectionString points at the bundled sample database.
const DefaultConnectionString = "sqlite+aiosqlite:///./data/company.db"

// Options 数据库连接配置。
type Options struct {
	// ConnectionString 默认连接串，connect-database 请求未携带时使用。
	ConnectionString string `json:"connection-string" mapstructure:"connection-string"`

	PoolSize        int           `json:"pool-size" mapstructure:"pool-size"`
	MaxOverflow     int           `json:"max-overflow" mapstructure:"max-overflow"`
	ConnMaxLifetime time.Duration `json:"conn-max-lifetime" mapstructure:"conn-max-lifetime"`

	// SlowThreshold SQL 慢查询告警阈值。
	SlowThreshold time.Duration `json:"slow-threshold" mapstructure:"slow-threshold"`
	// LogLevel gorm 日志级别：silent|error|warn|info。
	LogLevel string `json:"log-level" mapstructure:"log-level"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		ConnectionString: DefaultConnectionString,
		PoolSize:         10,
		MaxOverflow:      20,
		ConnMaxLifetime:  30 * time.Minute,
		SlowThreshold:    200 * time.Millisecond,
		LogLevel:         "warn",
	}
}

// AddFlags adds flags for database options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "database."
	fs.StringVar(&o.ConnectionString, p+"connection-string", o.ConnectionString, "Default database URL ("+URLEnv+" takes precedence).")
	fs.IntVar(&o.PoolSize, p+"pool-size", o.PoolSize, "Idle connections kept in the pool.")
	fs.IntVar(&o.MaxOverflow, p+"max-overflow", o.MaxOverflow, "Connections allowed beyond pool-size.")
	fs.DurationVar(&o.ConnMaxLifetime, p+"conn-max-lifetime", o.ConnMaxLifetime, "Maximum lifetime of a pooled connection.")
	fs.DurationVar(&o.SlowThreshold, p+"slow-threshold", o.SlowThreshold, "Log SQL statements slower than this.")
	fs.StringVar(&o.LogLevel, p+"log-level", o.LogLevel, "SQL log level (silent|error|warn|info).")
}

// Complete applies the DATABASE_URL override.
func (o *Options) Complete() error {
	if v := strings.TrimSpace(os.Getenv(URLEnv)); v != "" {
		o.ConnectionString = v
	}
	return nil
}

// Validate validates the database options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}
	var errs []error
	if o.PoolSize <= 0 {
		errs = append(errs, fmt.Errorf("database.pool-size must be positive"))
	}
	if o.MaxOverflow < 0 {
		errs = append(errs, fmt.Errorf("database.max-overflow must not be negative"))
	}
	switch strings.ToLower(o.LogLevel) {
	case "", "silent", "error", "warn", "info":
	default:
		errs = append(errs, fmt.Errorf("database.log-level %q is invalid", o.LogLevel))
	}
	return errs
}
