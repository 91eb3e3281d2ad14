package llm

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	calls atomic.Int32
	texts atomic.Int32
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	p.calls.Add(1)
	p.texts.Add(int32(len(texts)))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (p *countingProvider) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	out, err := p.Embed(ctx, []string{text})
	return out[0], err
}

func TestCachedEmbeddingProvider(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	base := &countingProvider{}
	cached := NewCachedEmbeddingProvider(base, client, &EmbeddingCacheConfig{TTL: time.Minute, KeyPrefix: "t:"})
	ctx := context.Background()

	first, err := cached.Embed(ctx, []string{"ab", "abc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{2, 1}, {3, 1}}, first)

	second, err := cached.Embed(ctx, []string{"abc", "abcd", "ab"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{3, 1}, {4, 1}, {2, 1}}, second)
	assert.Equal(t, int32(2), base.calls.Load())
	assert.Equal(t, int32(3), base.texts.Load(), "only abcd should reach the provider on the second call")

	single, err := cached.EmbedSingle(ctx, "abcd")
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 1}, single)
	assert.Equal(t, int32(2), base.calls.Load())
	assert.Equal(t, "counting-cached", cached.Name())

	mr.FastForward(2 * time.Minute)
	_, err = cached.EmbedSingle(ctx, "abcd")
	require.NoError(t, err)
	assert.Equal(t, int32(3), base.calls.Load())
}

func TestCachedEmbeddingProvider_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	base := &countingProvider{}
	cached := NewCachedEmbeddingProvider(base, client, nil)
	out, err := cached.Embed(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}}, out)
}
