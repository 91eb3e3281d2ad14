package nlq

import (
	"fmt"

	"github.com/spf13/pflag"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	cacheopts "github.com/kart-io/sentinel-nlq/pkg/options/cache"
	dbopts "github.com/kart-io/sentinel-nlq/pkg/options/database"
	embeddingopts "github.com/kart-io/sentinel-nlq/pkg/options/embedding"
	ingestopts "github.com/kart-io/sentinel-nlq/pkg/options/ingest"
	logopts "github.com/kart-io/sentinel-nlq/pkg/options/logger"
	redisopts "github.com/kart-io/sentinel-nlq/pkg/options/redis"
	httpopts "github.com/kart-io/sentinel-nlq/pkg/options/server/http"
	tracingopts "github.com/kart-io/sentinel-nlq/pkg/options/tracing"
)

// Options contains the configuration options for the NLQ server.
type Options struct {
	// HTTPOptions contains HTTP server configuration.
	HTTPOptions *httpopts.Options `json:"http" mapstructure:"http"`

	// LogOptions contains logger configuration.
	LogOptions *logopts.Options `json:"log" mapstructure:"log"`

	// DatabaseOptions 默认连接串与连接池配置。
	DatabaseOptions *dbopts.Options `json:"database" mapstructure:"database"`

	// RedisOptions 仅在 cache.backend=redis 或 embedding.cache-enabled 时使用。
	RedisOptions *redisopts.Options `json:"redis" mapstructure:"redis"`

	CacheOptions     *cacheopts.Options     `json:"cache" mapstructure:"cache"`
	EmbeddingOptions *embeddingopts.Options `json:"embedding" mapstructure:"embedding"`
	IngestOptions    *ingestopts.Options    `json:"ingest" mapstructure:"ingest"`
	TracingOptions   *tracingopts.Options   `json:"tracing" mapstructure:"tracing"`

	// AutoConnect connects to database.connection-string at startup.
	AutoConnect bool `json:"auto-connect" mapstructure:"auto-connect"`
}

// NewOptions creates an Options instance with default values.
func NewOptions() *Options {
	tracing := tracingopts.NewOptions()
	tracing.ServiceName = Name

	return &Options{
		HTTPOptions:      httpopts.NewOptions(),
		LogOptions:       logopts.NewOptions(),
		DatabaseOptions:  dbopts.NewOptions(),
		RedisOptions:     redisopts.NewOptions(),
		CacheOptions:     cacheopts.NewOptions(),
		EmbeddingOptions: embeddingopts.NewOptions(),
		IngestOptions:    ingestopts.NewOptions(),
		TracingOptions:   tracing,
	}
}

// AddFlags registers every option group's flags on fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.HTTPOptions.AddFlags(fs)
	o.LogOptions.AddFlags(fs)
	o.DatabaseOptions.AddFlags(fs)
	o.RedisOptions.AddFlags(fs)
	o.CacheOptions.AddFlags(fs)
	o.EmbeddingOptions.AddFlags(fs)
	o.IngestOptions.AddFlags(fs)
	o.TracingOptions.AddFlags(fs)

	fs.BoolVar(&o.AutoConnect, "auto-connect", o.AutoConnect,
		"Connect to database.connection-string at startup.")
}

// Complete completes all the required options.
func (o *Options) Complete() error {
	completers := []struct {
		name string
		fn   func() error
	}{
		{"http", o.HTTPOptions.Complete},
		{"log", o.LogOptions.Complete},
		{"database", o.DatabaseOptions.Complete},
		{"redis", o.RedisOptions.Complete},
		{"cache", o.CacheOptions.Complete},
		{"embedding", o.EmbeddingOptions.Complete},
		{"ingest", o.IngestOptions.Complete},
		{"tracing", o.TracingOptions.Complete},
	}
	for _, c := range completers {
		if err := c.fn(); err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
	}
	return nil
}

// Validate checks whether the options are valid.
func (o *Options) Validate() error {
	errs := []error{}

	errs = append(errs, o.HTTPOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	errs = append(errs, o.DatabaseOptions.Validate()...)
	errs = append(errs, o.CacheOptions.Validate()...)
	errs = append(errs, o.EmbeddingOptions.Validate()...)
	errs = append(errs, o.IngestOptions.Validate()...)
	errs = append(errs, o.TracingOptions.Validate()...)

	// redis 只在被使用时校验
	if o.usesRedis() {
		errs = append(errs, o.RedisOptions.Validate()...)
	}

	return utilerrors.NewAggregate(errs)
}

func (o *Options) usesRedis() bool {
	return o.CacheOptions.Backend == cacheopts.BackendRedis || o.EmbeddingOptions.CacheEnabled
}

// Config builds a Config based on Options.
func (o *Options) Config() (*Config, error) {
	return &Config{
		HTTPOptions:      o.HTTPOptions,
		LogOptions:       o.LogOptions,
		DatabaseOptions:  o.DatabaseOptions,
		RedisOptions:     o.RedisOptions,
		CacheOptions:     o.CacheOptions,
		EmbeddingOptions: o.EmbeddingOptions,
		IngestOptions:    o.IngestOptions,
		TracingOptions:   o.TracingOptions,
		AutoConnect:      o.AutoConnect,
	}, nil
}
