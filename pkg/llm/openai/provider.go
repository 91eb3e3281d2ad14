// Package openai 提供 OpenAI 兼容的 Embedding 供应商实现。
//
// 任何实现 POST {base_url}/embeddings 的服务都可使用，例如：
//
//	provider, err := llm.New("openai", map[string]any{
//	    "api_key": os.Getenv("OPENAI_API_KEY"),
//	    "model":   "text-embedding-3-small",
//	})
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/sentinel-nlq/pkg/llm"
	"github.com/kart-io/sentinel-nlq/pkg/utils/httpclient"
)

const ProviderName = "openai"

func init() {
	llm.Register(ProviderName, NewProvider)
}

// Config OpenAI 供应商配置。
type Config struct {
	APIKey       string        `json:"api_key" mapstructure:"api_key"`
	BaseURL      string        `json:"base_url" mapstructure:"base_url"`
	Model        string        `json:"model" mapstructure:"model"`
	Organization string        `json:"organization" mapstructure:"organization"`
	Timeout      time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxRetries   int           `json:"max_retries" mapstructure:"max_retries"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "https://api.openai.com/v1",
		Model:      "text-embedding-3-small",
		Timeout:    120 * time.Second,
		MaxRetries: 3,
	}
}

// Provider OpenAI 供应商实现。
type Provider struct {
	config *Config
	client *httpclient.Client
}

// NewProvider 从配置 map 创建 OpenAI 供应商，api_key 必填。
func NewProvider(config map[string]any) (llm.EmbeddingProvider, error) {
	def := DefaultConfig()
	cfg := &Config{
		APIKey:       llm.String(config, "api_key", ""),
		BaseURL:      llm.String(config, "base_url", def.BaseURL),
		Model:        llm.String(config, "model", def.Model),
		Organization: llm.String(config, "organization", ""),
		Timeout:      llm.Duration(config, "timeout", def.Timeout),
		MaxRetries:   llm.Int(config, "max_retries", def.MaxRetries),
	}
	if cfg.APIKey == "" {
		return nil, errors.New("openai: api_key is required")
	}
	return NewProviderWithConfig(cfg), nil
}

// NewProviderWithConfig 使用结构化配置创建 OpenAI 供应商。
func NewProviderWithConfig(cfg *Config) *Provider {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Provider{
		config: cfg,
		client: httpclient.NewClient(cfg.Timeout, cfg.MaxRetries),
	}
}

func (p *Provider) Name() string {
	return ProviderName
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingData struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingResponse struct {
	Object string          `json:"object"`
	Data   []embeddingData `json:"data"`
	Model  string          `json:"model"`
}

// Embed 为多个文本生成向量嵌入，按响应中的 index 还原顺序。
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp embeddingResponse
	req := embeddingRequest{Model: p.config.Model, Input: texts}
	if err := p.client.PostJSON(ctx, p.config.BaseURL+"/embeddings", p.headers(), req, &resp); err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}

	embeddings := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index >= 0 && d.Index < len(embeddings) {
			embeddings[d.Index] = d.Embedding
		}
	}
	for i, e := range embeddings {
		if e == nil {
			return nil, fmt.Errorf("openai embed: missing embedding for input %d", i)
		}
	}
	return embeddings, nil
}

func (p *Provider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

func (p *Provider) headers() map[string]string {
	h := map[string]string{"Authorization": "Bearer " + p.config.APIKey}
	if p.config.Organization != "" {
		h["OpenAI-Organization"] = p.config.Organization
	}
	return h
}
