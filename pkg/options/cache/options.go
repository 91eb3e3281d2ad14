// Package cache provides query result cache options.
package cache

import (
	"fmt"
	"time"

	"github.com/kart-io/sentinel-nlq/pkg/options"
	"github.com/spf13/pflag"
)

var _ options.IOptions = (*Options)(nil)

// Backend selects where query results are cached.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
)

// Options 查询缓存配置。
type Options struct {
	// Backend 缓存后端：memory（进程内 LRU）或 redis（共享）。
	Backend Backend `json:"backend" mapstructure:"backend"`

	// TTL 缓存过期时间。
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`

	// MaxSize 内存后端最大条目数。
	MaxSize int `json:"max-size" mapstructure:"max-size"`

	// KeyPrefix redis 键前缀。
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`
}

// NewOptions 创建默认缓存配置。
func NewOptions() *Options {
	return &Options{
		Backend:   BackendMemory,
		TTL:       300 * time.Second,
		MaxSize:   1000,
		KeyPrefix: "nlq:query:",
	}
}

// AddFlags adds flags for cache options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "cache."
	fs.StringVar((*string)(&o.Backend), p+"backend", string(o.Backend), "Query result cache backend (memory|redis).")
	fs.DurationVar(&o.TTL, p+"ttl", o.TTL, "Query result cache TTL.")
	fs.IntVar(&o.MaxSize, p+"max-size", o.MaxSize, "Maximum cached query results (memory backend).")
	fs.StringVar(&o.KeyPrefix, p+"key-prefix", o.KeyPrefix, "Cache key prefix (redis backend).")
}

// Validate validates the cache options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Backend {
	case BackendMemory, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("cache.backend %q is invalid, want memory or redis", o.Backend))
	}
	if o.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be positive"))
	}
	if o.MaxSize <= 0 {
		errs = append(errs, fmt.Errorf("cache.max-size must be positive"))
	}
	return errs
}

// Complete completes the cache options with defaults.
func (o *Options) Complete() error {
	if o.Backend == "" {
		o.Backend = BackendMemory
	}
	return nil
}
