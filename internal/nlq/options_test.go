package nlq

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cacheopts "github.com/kart-io/sentinel-nlq/pkg/options/cache"
)

func TestOptionsDefaultsAreValid(t *testing.T) {
	opts := NewOptions()
	require.NoError(t, opts.Complete())
	assert.NoError(t, opts.Validate())
	assert.Equal(t, Name, opts.TracingOptions.ServiceName)
	assert.False(t, opts.usesRedis())
}

func TestOptionsValidateAggregates(t *testing.T) {
	opts := NewOptions()
	opts.CacheOptions.TTL = 0
	opts.IngestOptions.Workers = 0

	err := opts.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.ttl")
	assert.Contains(t, err.Error(), "ingest.workers")
}

func TestOptionsRedisValidatedOnlyWhenUsed(t *testing.T) {
	opts := NewOptions()
	opts.RedisOptions.Host = ""
	assert.NoError(t, opts.Validate())

	opts.CacheOptions.Backend = cacheopts.BackendRedis
	err := opts.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.host")
}

func TestOptionsFlags(t *testing.T) {
	opts := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	opts.AddFlags(fs)

	for _, name := range []string{
		"http.addr", "log.level", "database.connection-string", "redis.host",
		"cache.backend", "embedding.provider", "ingest.upload-dir", "tracing.enabled", "auto-connect",
	} {
		assert.NotNil(t, fs.Lookup(name), name)
	}

	require.NoError(t, fs.Parse([]string{"--http.addr=:9000", "--cache.backend=redis", "--auto-connect"}))
	assert.Equal(t, ":9000", opts.HTTPOptions.Addr)
	assert.Equal(t, cacheopts.BackendRedis, opts.CacheOptions.Backend)

	cfg, err := opts.Config()
	require.NoError(t, err)
	assert.True(t, cfg.AutoConnect)
	assert.Same(t, opts.HTTPOptions, cfg.HTTPOptions)
}
