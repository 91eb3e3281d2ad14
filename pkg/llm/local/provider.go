// Package local 提供无需外部服务的特征哈希 Embedding 供应商。
//
// 文本被切分为小写词、相邻词对和词内三字符片段，每个特征经 xxhash
// 映射到固定维度并带符号累加，最后做 L2 归一化。相同输入总是得到相同向量，
// 词形相近的文本（salary / salaries）共享大部分三字符片段。
package local

import (
	"context"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/kart-io/sentinel-nlq/pkg/llm"
)

const ProviderName = "local"

// DefaultDimension matches the common MiniLM sentence-embedding width.
const DefaultDimension = 384

const (
	wordWeight    = 1.0
	bigramWeight  = 0.5
	trigramWeight = 0.25
)

func init() {
	llm.Register(ProviderName, NewProvider)
}

// Provider is a deterministic hashing embedder.
type Provider struct {
	dim int
}

// NewProvider 从配置 map 创建本地供应商，读取 dimension。
func NewProvider(config map[string]any) (llm.EmbeddingProvider, error) {
	return New(llm.Int(config, "dimension", DefaultDimension)), nil
}

// New creates a Provider with the given dimension.
func New(dim int) *Provider {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &Provider{dim: dim}
}

func (p *Provider) Name() string { return ProviderName }

// Dimension returns the vector width.
func (p *Provider) Dimension() int { return p.dim }

func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = p.embed(text)
	}
	return out, nil
}

func (p *Provider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.embed(text), nil
}

func (p *Provider) embed(text string) []float32 {
	v := make([]float32, p.dim)
	words := tokenize(text)
	for i, w := range words {
		p.add(v, "w:"+w, wordWeight)
		if i > 0 {
			p.add(v, "b:"+words[i-1]+" "+w, bigramWeight)
		}
		r := []rune("^" + w + "$")
		for j := 0; j+3 <= len(r); j++ {
			p.add(v, "t:"+string(r[j:j+3]), trigramWeight)
		}
	}
	return llm.Normalize(v)
}

// add 高位决定符号，降低哈希冲突带来的系统偏差。
func (p *Provider) add(v []float32, feature string, weight float32) {
	h := xxhash.Sum64String(feature)
	idx := int(h % uint64(p.dim))
	if h>>63 == 1 {
		weight = -weight
	}
	v[idx] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
