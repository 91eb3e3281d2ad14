// Package datasource parses connection strings and manages the gorm engine
// for the database being queried.
package datasource

import (
	"fmt"
	"net"
	"net/url"
	"path/filepath"
	"strings"

	mysqldrv "github.com/go-sql-driver/mysql"

	"github.com/kart-io/sentinel-nlq/pkg/utils/errors"
)

// Dialect is one of the supported relational backends.
type Dialect string

const (
	Postgres Dialect = "postgresql"
	MySQL    Dialect = "mysql"
	SQLite   Dialect = "sqlite"
)

// DefaultSQLitePath is used when a sqlite URL carries no path.
const DefaultSQLitePath = "./data/company.db"

// supported 按字母序排列，用于错误消息。
var supported = []Dialect{MySQL, Postgres, SQLite}

var aliases = map[string]Dialect{
	"postgresql": Postgres,
	"postgres":   Postgres,
	"mysql":      MySQL,
	"sqlite":     SQLite,
}

// Source is a parsed connection string.
type Source struct {
	Dialect Dialect
	// Driver is the optional "+driver" suffix of the scheme, kept for display only.
	Driver string
	// DSN is the driver-specific data source name handed to gorm.
	DSN string
	// Path is the database file for sqlite.
	Path string
	// Key identifies the target for engine reuse.
	Key string
}

// Parse validates raw against the dialect allowlist and builds a DSN.
func Parse(raw string) (*Source, error) {
	raw = strings.TrimSpace(raw)
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return nil, errors.ErrNLQConnectFailed.WithMessagef("Invalid connection string: missing scheme in %q", raw)
	}

	backend, driver, _ := strings.Cut(strings.ToLower(scheme), "+")
	dialect, ok := aliases[backend]
	if !ok {
		return nil, errors.ErrNLQUnsupportedDialect.WithMessagef(
			"Unsupported dialect '%s'. Supported: %v", backend, supported)
	}

	src := &Source{Dialect: dialect, Driver: driver}
	var err error
	switch dialect {
	case SQLite:
		err = src.parseSQLite(rest)
	case Postgres:
		err = src.parsePostgres(rest)
	case MySQL:
		err = src.parseMySQL(rest)
	}
	if err != nil {
		return nil, errors.ErrNLQConnectFailed.WithCause(err)
	}
	return src, nil
}

// sqlite:///relative.db 与 sqlite:////abs/path.db
func (s *Source) parseSQLite(rest string) error {
	path, query, _ := strings.Cut(rest, "?")
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		path = DefaultSQLitePath
	}
	s.Path = path
	s.DSN = path
	if path != ":memory:" {
		s.Path = filepath.Clean(path)
		s.DSN = s.Path
	}
	if query != "" {
		s.DSN += "?" + query
	}
	s.Key = string(SQLite) + "://" + s.DSN
	return nil
}

func (s *Source) parsePostgres(rest string) error {
	u, err := url.Parse("postgres://" + rest)
	if err != nil {
		return fmt.Errorf("invalid postgresql url: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid postgresql url: missing host")
	}
	s.DSN = u.String()
	s.Key = s.DSN
	return nil
}

func (s *Source) parseMySQL(rest string) error {
	u, err := url.Parse("mysql://" + rest)
	if err != nil {
		return fmt.Errorf("invalid mysql url: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid mysql url: missing host")
	}

	cfg := mysqldrv.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	if u.Port() == "" {
		cfg.Addr = net.JoinHostPort(u.Hostname(), "3306")
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true
	if q := u.Query(); len(q) > 0 {
		cfg.Params = make(map[string]string, len(q))
		for k, v := range q {
			if len(v) > 0 {
				cfg.Params[k] = v[0]
			}
		}
	}

	s.DSN = cfg.FormatDSN()
	s.Key = s.DSN
	return nil
}
