package pool

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"
)

// Config 协程池配置。
type Config struct {
	// Capacity 最大并发 goroutine 数
	Capacity int
	// ExpiryDuration 空闲 worker 回收时间
	ExpiryDuration time.Duration
	// Nonblocking 池满时直接返回 ErrPoolOverload
	Nonblocking bool
	// MaxBlockingTasks 阻塞模式下的最大排队数，0 表示不限
	MaxBlockingTasks int
	PanicHandler     func(any)
}

// IngestionPoolConfig 返回文档入库池配置：并发数小，排队不限。
func IngestionPoolConfig(workers int) *Config {
	if workers <= 0 {
		workers = 4
	}
	return &Config{
		Capacity:       workers,
		ExpiryDuration: 60 * time.Second,
	}
}

// Validate 校验配置。
func (c *Config) Validate() error {
	if c == nil || c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidPoolConfig)
	}
	return nil
}

// Pool wraps an ants pool with task statistics.
type Pool struct {
	name     string
	pool     *ants.Pool
	stats    counters
	closed   atomic.Bool
	closedMu sync.Mutex
}

type counters struct {
	submitted atomic.Int64
	completed atomic.Int64
	panics    atomic.Int64
	rejected  atomic.Int64
}

// Stats 池统计快照。
type Stats struct {
	Submitted int64 `json:"submitted"`
	Completed int64 `json:"completed"`
	Panics    int64 `json:"panics"`
	Rejected  int64 `json:"rejected"`
	Running   int   `json:"running"`
	Waiting   int   `json:"waiting"`
}

// NewPool 创建协程池。
func NewPool(name string, cfg *Config) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	handler := cfg.PanicHandler
	if handler == nil {
		handler = func(r any) {
			logger.Errorw("Worker panic recovered", "pool", name, "panic", r)
		}
	}

	p, err := ants.NewPool(cfg.Capacity,
		ants.WithExpiryDuration(cfg.ExpiryDuration),
		ants.WithNonblocking(cfg.Nonblocking),
		ants.WithMaxBlockingTasks(cfg.MaxBlockingTasks),
		ants.WithPanicHandler(handler),
	)
	if err != nil {
		return nil, fmt.Errorf("创建 ants 池失败: %w", err)
	}

	logger.Infow("Worker pool created", "name", name, "capacity", cfg.Capacity)
	return &Pool{name: name, pool: p}, nil
}

// Closed reports whether the pool has been released.
func (p *Pool) Closed() bool { return p.closed.Load() }

// Submit 提交任务。panic 计数后交给 ants 的 PanicHandler。
func (p *Pool) Submit(task func()) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}

	err := p.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				p.stats.panics.Add(1)
				panic(r)
			}
			p.stats.completed.Add(1)
		}()
		task()
	})
	if err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			p.stats.rejected.Add(1)
			return ErrPoolOverload
		}
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrPoolClosed
		}
		return err
	}
	p.stats.submitted.Add(1)
	return nil
}

// Release 关闭池，不等待运行中的任务。
func (p *Pool) Release() {
	p.closedMu.Lock()
	defer p.closedMu.Unlock()
	if p.closed.Swap(true) {
		return
	}
	p.pool.Release()
	logger.Infow("Worker pool released", "name", p.name)
}

// ReleaseTimeout 关闭池并等待运行中的任务，最多 timeout。
func (p *Pool) ReleaseTimeout(timeout time.Duration) error {
	p.closedMu.Lock()
	defer p.closedMu.Unlock()
	if p.closed.Swap(true) {
		return nil
	}
	return p.pool.ReleaseTimeout(timeout)
}

// Stats 返回统计快照。
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.stats.submitted.Load(),
		Completed: p.stats.completed.Load(),
		Panics:    p.stats.panics.Load(),
		Rejected:  p.stats.rejected.Load(),
		Running:   p.pool.Running(),
		Waiting:   p.pool.Waiting(),
	}
}
