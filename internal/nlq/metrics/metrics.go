// Package metrics 提供 NLQ 服务的业务指标收集。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kart-io/sentinel-nlq/pkg/infra/pool"
)

// 摄取结果标签
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
)

// NLQMetrics NLQ 服务业务指标。
type NLQMetrics struct {
	// 查询指标
	Queries       *prometheus.CounterVec
	QueryErrors   prometheus.Counter
	CacheHits     prometheus.Counter
	QueryDuration *prometheus.HistogramVec

	// 摄取指标
	IngestedFiles  *prometheus.CounterVec
	IngestedChunks prometheus.Counter
	ActiveJobs     prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *NLQMetrics {
	f := promauto.With(reg)
	return &NLQMetrics{
		Queries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nlq_queries_total",
			Help: "Total number of processed queries by classified type",
		}, []string{"type"}),
		QueryErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "nlq_query_errors_total",
			Help: "Total number of failed queries",
		}),
		CacheHits: f.NewCounter(prometheus.CounterOpts{
			Name: "nlq_cache_hits_total",
			Help: "Total number of queries answered from the result cache",
		}),
		QueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nlq_query_duration_seconds",
			Help:    "End-to-end query processing time for cache misses",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"type"}),
		IngestedFiles: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nlq_ingested_files_total",
			Help: "Total number of ingested files by result",
		}, []string{"result"}),
		IngestedChunks: f.NewCounter(prometheus.CounterOpts{
			Name: "nlq_ingested_chunks_total",
			Help: "Total number of stored document chunks",
		}),
		ActiveJobs: f.NewGauge(prometheus.GaugeOpts{
			Name: "nlq_ingestion_jobs_active",
			Help: "Number of ingestion jobs currently processing",
		}),
	}
}

// RecordQuery 记录一次成功的查询。cache hit 不计入耗时。
func (m *NLQMetrics) RecordQuery(queryType string, elapsed time.Duration, cacheHit bool) {
	if m == nil {
		return
	}
	m.Queries.WithLabelValues(queryType).Inc()
	if cacheHit {
		m.CacheHits.Inc()
		return
	}
	m.QueryDuration.WithLabelValues(queryType).Observe(elapsed.Seconds())
}

// RecordQueryError 记录查询失败。
func (m *NLQMetrics) RecordQueryError() {
	if m == nil {
		return
	}
	m.QueryErrors.Inc()
}

// RecordFile 记录单个文件的摄取结果。
func (m *NLQMetrics) RecordFile(chunks int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.IngestedFiles.WithLabelValues(ResultFailed).Inc()
		return
	}
	m.IngestedFiles.WithLabelValues(ResultSuccess).Inc()
	m.IngestedChunks.Add(float64(chunks))
}

// JobStarted / JobFinished 维护运行中任务数。
func (m *NLQMetrics) JobStarted() {
	if m != nil {
		m.ActiveJobs.Inc()
	}
}

func (m *NLQMetrics) JobFinished() {
	if m != nil {
		m.ActiveJobs.Dec()
	}
}

// PoolStatser 提供协程池统计快照。
type PoolStatser interface {
	Stats() pool.Stats
}

// PoolMetrics 摄取协程池指标，采集时读取实时快照。
type PoolMetrics struct {
	Running   prometheus.GaugeFunc
	Waiting   prometheus.GaugeFunc
	Submitted prometheus.CounterFunc
	Rejected  prometheus.CounterFunc
	Panics    prometheus.CounterFunc
}

// RegisterPool exports p's statistics on reg.
func RegisterPool(reg prometheus.Registerer, p PoolStatser) *PoolMetrics {
	f := promauto.With(reg)
	return &PoolMetrics{
		Running: f.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "nlq_ingest_pool_running_workers",
			Help: "Number of ingestion workers currently running a job",
		}, func() float64 { return float64(p.Stats().Running) }),
		Waiting: f.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "nlq_ingest_pool_waiting_jobs",
			Help: "Number of ingestion jobs waiting for a free worker",
		}, func() float64 { return float64(p.Stats().Waiting) }),
		Submitted: f.NewCounterFunc(prometheus.CounterOpts{
			Name: "nlq_ingest_pool_submitted_total",
			Help: "Total number of jobs accepted by the ingestion pool",
		}, func() float64 { return float64(p.Stats().Submitted) }),
		Rejected: f.NewCounterFunc(prometheus.CounterOpts{
			Name: "nlq_ingest_pool_rejected_total",
			Help: "Total number of jobs rejected by the ingestion pool",
		}, func() float64 { return float64(p.Stats().Rejected) }),
		Panics: f.NewCounterFunc(prometheus.CounterOpts{
			Name: "nlq_ingest_pool_panics_total",
			Help: "Total number of recovered panics in ingestion workers",
		}, func() float64 { return float64(p.Stats().Panics) }),
	}
}
