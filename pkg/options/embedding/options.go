// Package embedding provides embedding provider configuration options.
package embedding

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/kart-io/sentinel-nlq/pkg/options"
	"github.com/spf13/pflag"
)

var _ options.IOptions = (*Options)(nil)

// APIKeyEnv is read when api-key is not configured.
const APIKeyEnv = "EMBEDDING_API_KEY"

var knownProviders = []string{"local", "ollama", "openai"}

// Options 定义 Embedding 供应商配置。
type Options struct {
	// Provider 供应商名称（local, ollama, openai）。
	Provider string `json:"provider" mapstructure:"provider"`

	// Model 模型名称，留空使用供应商默认值。
	Model string `json:"model" mapstructure:"model"`

	BaseURL      string        `json:"base-url" mapstructure:"base-url"`
	APIKey       string        `json:"-" mapstructure:"api-key"`
	Organization string        `json:"organization" mapstructure:"organization"`
	Timeout      time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxRetries   int           `json:"max-retries" mapstructure:"max-retries"`

	// BatchSize 每次 Embed 调用的最大文本数。
	BatchSize int `json:"batch-size" mapstructure:"batch-size"`

	// Dimension 本地供应商的向量维度。
	Dimension int `json:"dimension" mapstructure:"dimension"`

	// CacheEnabled 是否在 Redis 中缓存向量。
	CacheEnabled bool          `json:"cache-enabled" mapstructure:"cache-enabled"`
	CacheTTL     time.Duration `json:"cache-ttl" mapstructure:"cache-ttl"`
}

// NewOptions 创建默认 Embedding 配置。
func NewOptions() *Options {
	return &Options{
		Provider:   "local",
		Timeout:    120 * time.Second,
		MaxRetries: 3,
		BatchSize:  32,
		Dimension:  384,
		CacheTTL:   24 * time.Hour,
	}
}

// AddFlags adds flags for embedding options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "embedding."
	fs.StringVar(&o.Provider, p+"provider", o.Provider, "Embedding provider (local, ollama, openai).")
	fs.StringVar(&o.Model, p+"model", o.Model, "Embedding model name.")
	fs.StringVar(&o.BaseURL, p+"base-url", o.BaseURL, "Embedding API base URL.")
	fs.StringVar(&o.APIKey, p+"api-key", o.APIKey, "Embedding API key (prefer the "+APIKeyEnv+" env var).")
	fs.StringVar(&o.Organization, p+"organization", o.Organization, "OpenAI organization ID (optional).")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Embedding request timeout.")
	fs.IntVar(&o.MaxRetries, p+"max-retries", o.MaxRetries, "Embedding request retries.")
	fs.IntVar(&o.BatchSize, p+"batch-size", o.BatchSize, "Texts per embedding call during ingestion.")
	fs.IntVar(&o.Dimension, p+"dimension", o.Dimension, "Vector dimension of the local provider.")
	fs.BoolVar(&o.CacheEnabled, p+"cache-enabled", o.CacheEnabled, "Cache embeddings in redis.")
	fs.DurationVar(&o.CacheTTL, p+"cache-ttl", o.CacheTTL, "TTL of cached embeddings.")
}

// Complete 从环境变量补全 API key。
func (o *Options) Complete() error {
	if o.APIKey == "" {
		o.APIKey = os.Getenv(APIKeyEnv)
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	return nil
}

// Validate validates the embedding options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if !slices.Contains(knownProviders, o.Provider) {
		errs = append(errs, fmt.Errorf("embedding.provider %q is invalid, want one of %v", o.Provider, knownProviders))
	}
	if o.Provider == "openai" && o.APIKey == "" {
		errs = append(errs, fmt.Errorf("embedding.api-key is required for the openai provider"))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("embedding.timeout must be positive"))
	}
	if o.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("embedding.batch-size must be positive"))
	}
	if o.CacheEnabled && o.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("embedding.cache-ttl must be positive when caching is enabled"))
	}
	return errs
}

// ToConfigMap 转换为供应商工厂使用的配置 map，空值交给供应商默认值。
func (o *Options) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":     o.BaseURL,
		"api_key":      o.APIKey,
		"model":        o.Model,
		"organization": o.Organization,
		"timeout":      o.Timeout,
		"max_retries":  o.MaxRetries,
		"dimension":    o.Dimension,
	}
}
