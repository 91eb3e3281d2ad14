package pool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool_InvalidConfig(t *testing.T) {
	_, err := NewPool("bad", &Config{})
	assert.ErrorIs(t, err, ErrInvalidPoolConfig)

	_, err = NewPool("nil", nil)
	assert.ErrorIs(t, err, ErrInvalidPoolConfig)
}

func TestPoolSubmit(t *testing.T) {
	p, err := NewPool("ingestion", IngestionPoolConfig(4))
	require.NoError(t, err)
	defer p.Release()

	var counter atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(func() {
			defer wg.Done()
			counter.Add(1)
		}))
	}
	wg.Wait()

	assert.Equal(t, int32(100), counter.Load())
	assert.Eventually(t, func() bool { return p.Stats().Completed == 100 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(100), p.Stats().Submitted)
}

func TestPoolStats_RunningAndWaiting(t *testing.T) {
	p, err := NewPool("ingestion", IngestionPoolConfig(1))
	require.NoError(t, err)
	defer p.Release()

	release := make(chan struct{})
	require.NoError(t, p.Submit(func() { <-release }))

	queued := make(chan error, 1)
	go func() { queued <- p.Submit(func() {}) }()

	assert.Eventually(t, func() bool {
		st := p.Stats()
		return st.Running == 1 && st.Waiting == 1
	}, time.Second, 5*time.Millisecond)

	close(release)
	require.NoError(t, <-queued)
	assert.Eventually(t, func() bool { return p.Stats().Completed == 2 }, time.Second, 5*time.Millisecond)
}

func TestPoolPanicHandled(t *testing.T) {
	recovered := make(chan any, 1)
	cfg := IngestionPoolConfig(1)
	cfg.PanicHandler = func(r any) { recovered <- r }

	p, err := NewPool("ingestion", cfg)
	require.NoError(t, err)
	defer p.Release()

	require.NoError(t, p.Submit(func() { panic("bad pdf") }))
	select {
	case r := <-recovered:
		assert.Equal(t, "bad pdf", r)
	case <-time.After(time.Second):
		t.Fatal("panic handler not called")
	}
	assert.Equal(t, int64(1), p.Stats().Panics)
}

func TestPoolSubmitAfterRelease(t *testing.T) {
	p, err := NewPool("ingestion", IngestionPoolConfig(2))
	require.NoError(t, err)

	var ran atomic.Bool
	require.NoError(t, p.Submit(func() { ran.Store(true) }))
	assert.False(t, p.Closed())
	require.NoError(t, p.ReleaseTimeout(time.Second))
	assert.True(t, ran.Load())
	assert.True(t, p.Closed())

	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)
	p.Release()
}
