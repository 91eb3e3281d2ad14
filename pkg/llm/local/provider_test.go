package local

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-nlq/pkg/llm"
)

func cosine(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

func TestProvider_Registered(t *testing.T) {
	p, err := llm.New(ProviderName, map[string]any{"dimension": 64})
	require.NoError(t, err)
	assert.Equal(t, ProviderName, p.Name())

	v, err := p.EmbedSingle(context.Background(), "remote work policy")
	require.NoError(t, err)
	assert.Len(t, v, 64)
}

func TestProvider_DeterministicAndNormalized(t *testing.T) {
	p := New(0)
	assert.Equal(t, DefaultDimension, p.Dimension())

	vs, err := p.Embed(context.Background(), []string{"Annual salary review", "annual SALARY review!"})
	require.NoError(t, err)
	require.Len(t, vs, 2)
	assert.Equal(t, vs[0], vs[1])

	var norm float64
	for _, x := range vs[0] {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestProvider_RelatedTextsAreCloser(t *testing.T) {
	p := New(DefaultDimension)
	ctx := context.Background()
	query, _ := p.EmbedSingle(ctx, "remote work policy")
	related, _ := p.EmbedSingle(ctx, "Our remote work policy allows two days at home.")
	unrelated, _ := p.EmbedSingle(ctx, "Quarterly budget for the marketing department.")

	assert.Greater(t, cosine(query, related), cosine(query, unrelated))
}

func TestProvider_EmptyText(t *testing.T) {
	v, err := New(16).EmbedSingle(context.Background(), "  ")
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 16), v)
}

func TestProvider_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(8).Embed(ctx, []string{"a"})
	assert.ErrorIs(t, err, context.Canceled)
}
