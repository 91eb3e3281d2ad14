package biz

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-nlq/internal/model"
	"github.com/kart-io/sentinel-nlq/internal/nlq/metrics"
	"github.com/kart-io/sentinel-nlq/internal/nlq/store"
	"github.com/kart-io/sentinel-nlq/internal/pkg/chunker"
	"github.com/kart-io/sentinel-nlq/internal/pkg/extract"
	"github.com/kart-io/sentinel-nlq/pkg/cache"
	"github.com/kart-io/sentinel-nlq/pkg/infra/pool"
	"github.com/kart-io/sentinel-nlq/pkg/llm"
	"github.com/kart-io/sentinel-nlq/pkg/utils/id"
)

// JobStatus 摄取任务状态。
type JobStatus string

const (
	JobPending             JobStatus = "pending"
	JobProcessing          JobStatus = "processing"
	JobCompleted           JobStatus = "completed"
	JobCompletedWithErrors JobStatus = "completed_with_errors"
	JobFailed              JobStatus = "failed"
)

// Terminal reports whether s is a final state.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobCompletedWithErrors || s == JobFailed
}

// Job is a snapshot of an ingestion job. Snapshots are never mutated after
// being published; progress replaces the stored snapshot.
type Job struct {
	JobID          string    `json:"job_id"`
	TotalFiles     int       `json:"total_files"`
	ProcessedFiles int       `json:"processed_files"`
	Status         JobStatus `json:"status"`
	Errors         []string  `json:"errors"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (j *Job) clone() *Job {
	c := *j
	c.Errors = slices.Clone(j.Errors)
	if c.Errors == nil {
		c.Errors = []string{}
	}
	return &c
}

const statusIndex = "status"

// DefaultBatchSize is the number of chunks embedded per provider call.
const DefaultBatchSize = 32

// PipelineConfig 摄取流水线配置。
type PipelineConfig struct {
	BatchSize int
	Chunker   *chunker.Chunker
	Metrics   *metrics.NLQMetrics
}

// Pipeline runs ingestion jobs on a worker pool.
type Pipeline struct {
	pool     *pool.Pool
	docs     store.DocumentStore
	embedder llm.EmbeddingProvider
	chunker  *chunker.Chunker
	batch    int
	metrics  *metrics.NLQMetrics
	jobs     *cache.MemoryCache[string, *Job]
}

// NewPipeline creates a pipeline. The pool is owned by the caller.
func NewPipeline(p *pool.Pool, docs store.DocumentStore, embedder llm.EmbeddingProvider, cfg PipelineConfig) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Chunker == nil {
		cfg.Chunker = chunker.New()
	}
	jobs := cache.NewMemoryCache[string, *Job]()
	jobs.AddIndex(statusIndex, func(j *Job) any { return j.Status })

	return &Pipeline{
		pool:     p,
		docs:     docs,
		embedder: embedder,
		chunker:  cfg.Chunker,
		batch:    cfg.BatchSize,
		metrics:  cfg.Metrics,
		jobs:     jobs,
	}
}

type submitOptions struct {
	cleanup func()
}

// SubmitOption customizes a single submission.
type SubmitOption func(*submitOptions)

// WithCleanup runs fn after the job reaches a terminal state.
func WithCleanup(fn func()) SubmitOption {
	return func(o *submitOptions) { o.cleanup = fn }
}

// Submit registers a pending job for paths and queues it. It never waits for
// processing or for a free worker; the returned id is valid for Job
// immediately.
func (p *Pipeline) Submit(ctx context.Context, paths []string, opts ...SubmitOption) (string, error) {
	var o submitOptions
	for _, opt := range opts {
		opt(&o)
	}

	now := time.Now().UTC()
	job := &Job{
		JobID:      id.NewULID(),
		TotalFiles: len(paths),
		Status:     JobPending,
		Errors:     []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	p.jobs.Set(job.JobID, job)

	if p.pool.Closed() {
		p.fail(job.JobID, pool.ErrPoolClosed, o.cleanup)
		return "", fmt.Errorf("queue ingestion job: %w", pool.ErrPoolClosed)
	}

	// 任务脱离请求生命周期；池满时在后台排队，调用方不等待
	go p.dispatch(context.WithoutCancel(ctx), job.JobID, slices.Clone(paths), o.cleanup)

	logger.Infow("Ingestion job queued", "job_id", job.JobID, "files", len(paths))
	return job.JobID, nil
}

// dispatch hands the job to the pool, waiting for a free worker if needed.
func (p *Pipeline) dispatch(ctx context.Context, jobID string, paths []string, cleanup func()) {
	err := p.pool.Submit(func() {
		if cleanup != nil {
			defer cleanup()
		}
		p.run(ctx, jobID, paths)
	})
	if err != nil {
		logger.Errorw("Failed to queue ingestion job", "job_id", jobID, "error", err)
		p.fail(jobID, err, cleanup)
	}
}

func (p *Pipeline) fail(jobID string, err error, cleanup func()) {
	p.update(jobID, func(j *Job) {
		j.Status = JobFailed
		j.Errors = append(j.Errors, err.Error())
	})
	if cleanup != nil {
		cleanup()
	}
}

// Job returns the latest snapshot of a job.
func (p *Pipeline) Job(jobID string) (*Job, bool) {
	j, ok := p.jobs.Get(jobID)
	if !ok {
		return nil, false
	}
	return j.clone(), true
}

// Jobs returns all jobs in submission order.
func (p *Pipeline) Jobs() []*Job {
	return sortJobs(p.jobs.Filter(func(*Job) bool { return true }))
}

// JobsByStatus returns jobs currently in status, in submission order.
func (p *Pipeline) JobsByStatus(status JobStatus) []*Job {
	jobs, err := p.jobs.Find(statusIndex, status)
	if err != nil {
		return nil
	}
	return sortJobs(jobs)
}

func sortJobs(jobs []*Job) []*Job {
	out := make([]*Job, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.clone())
	}
	// ULID 按时间有序
	slices.SortFunc(out, func(a, b *Job) int { return strings.Compare(a.JobID, b.JobID) })
	return out
}

// update publishes a modified copy of the job snapshot. Only the job's own
// dispatch or run goroutine calls it after submission.
func (p *Pipeline) update(jobID string, fn func(*Job)) {
	cur, ok := p.jobs.Get(jobID)
	if !ok {
		return
	}
	next := cur.clone()
	fn(next)
	next.UpdatedAt = time.Now().UTC()
	p.jobs.Set(jobID, next)
}

func (p *Pipeline) run(ctx context.Context, jobID string, paths []string) {
	p.metrics.JobStarted()
	defer p.metrics.JobFinished()

	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("Ingestion job panicked", "job_id", jobID, "panic", r)
			p.update(jobID, func(j *Job) {
				j.Status = JobFailed
				j.Errors = append(j.Errors, fmt.Sprint(r))
			})
		}
	}()

	p.update(jobID, func(j *Job) { j.Status = JobProcessing })

	if p.docs == nil || p.embedder == nil {
		p.update(jobID, func(j *Job) {
			j.Status = JobFailed
			j.Errors = append(j.Errors, "document store or embedding provider not configured")
		})
		return
	}

	for i, path := range paths {
		chunks, err := p.ingestFile(ctx, jobID, path)
		p.metrics.RecordFile(chunks, err)
		if err != nil {
			logger.Warnw("Failed to ingest file", "job_id", jobID, "file", path, "error", err)
		}
		processed := i + 1
		p.update(jobID, func(j *Job) {
			if err != nil {
				j.Errors = append(j.Errors, fmt.Sprintf("%s: %v", filepath.Base(path), err))
			}
			j.ProcessedFiles = processed
		})
	}

	p.update(jobID, func(j *Job) {
		if len(j.Errors) == 0 {
			j.Status = JobCompleted
		} else {
			j.Status = JobCompletedWithErrors
		}
	})
	final, _ := p.jobs.Get(jobID)
	logger.Infow("Ingestion job finished", "job_id", jobID, "status", final.Status, "errors", len(final.Errors))
}

// ingestFile extracts, chunks, embeds and stores one file, returning the
// number of stored chunks.
func (p *Pipeline) ingestFile(ctx context.Context, jobID, path string) (int, error) {
	text, kind, err := extract.File(path)
	if err != nil {
		return 0, err
	}

	texts := p.chunker.Chunk(text, string(kind))
	if len(texts) == 0 {
		return 0, nil
	}

	vectors, err := p.embed(ctx, texts)
	if err != nil {
		return 0, err
	}

	name := filepath.Base(path)
	chunks := make([]*store.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = &store.Chunk{
			FileName:   name,
			ChunkIndex: i,
			Content:    t,
			Embedding:  vectors[i],
			Metadata: model.ChunkMetadata{
				DocType:   string(kind),
				Path:      path,
				WordCount: chunker.WordCount(t),
			},
		}
	}
	if err := p.docs.AddChunks(ctx, jobID, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func (p *Pipeline) embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += p.batch {
		end := min(start+p.batch, len(texts))
		vecs, err := p.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed chunks: %w", err)
		}
		if len(vecs) != end-start {
			return nil, errors.New("embedding provider returned a mismatched batch")
		}
		out = append(out, vecs...)
	}
	return out, nil
}
