package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	jobsStartedTotal   atomic.Uint64
	jobsCompletedTotal atomic.Uint64
	jobsFailedTotal    atomic.Uint64
	parseFallbackTotal atomic.Uint64
	providerRetryTotal atomic.Uint64
	extractionTotal    atomic.Uint64
	extractionCacheHit atomic.Uint64
	queueReceived      atomic.Uint64
	queueDropped       atomic.Uint64

	jobDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncJobStarted increments the started counter.
func IncJobStarted() {
	jobsStartedTotal.Add(1)
}

// IncJobCompleted increments the completed counter.
func IncJobCompleted() {
	jobsCompletedTotal.Add(1)
}

// IncJobFailed increments the failed counter.
func IncJobFailed() {
	jobsFailedTotal.Add(1)
}

// IncParseFallback counts strategy responses that degraded to a synthetic payload.
func IncParseFallback() {
	parseFallbackTotal.Add(1)
}

// IncProviderRetry counts rate-limited provider calls that were retried.
func IncProviderRetry() {
	providerRetryTotal.Add(1)
}

// IncExtraction counts extractor runs; hit reports whether the cache served the result.
func IncExtraction(hit bool) {
	extractionTotal.Add(1)
	if hit {
		extractionCacheHit.Add(1)
	}
}

// IncQueueReceived counts messages pulled off the job queue.
func IncQueueReceived() {
	queueReceived.Add(1)
}

// IncQueueDropped counts messages deleted without a successful run because they can never succeed.
func IncQueueDropped() {
	queueDropped.Add(1)
}

// ObserveJobDurationMs records a job duration in milliseconds.
func ObserveJobDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	jobDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "study_jobs_started_total", "Total processing jobs started", jobsStartedTotal.Load())
	writeCounter(&buf, "study_jobs_completed_total", "Total processing jobs completed", jobsCompletedTotal.Load())
	writeCounter(&buf, "study_jobs_failed_total", "Total processing jobs failed", jobsFailedTotal.Load())
	writeCounter(&buf, "study_parse_fallback_total", "Generation responses replaced by a fallback payload", parseFallbackTotal.Load())
	writeCounter(&buf, "study_provider_retry_total", "Rate-limited provider calls retried", providerRetryTotal.Load())
	writeCounter(&buf, "study_extractions_total", "Content extractions performed", extractionTotal.Load())
	writeCounter(&buf, "study_extraction_cache_hits_total", "Content extractions served from cache", extractionCacheHit.Load())
	writeCounter(&buf, "study_queue_received_total", "Queue messages received by the worker", queueReceived.Load())
	writeCounter(&buf, "study_queue_dropped_total", "Unrecoverable queue messages deleted", queueDropped.Load())
	writeHistogram(&buf, "study_job_duration_ms", "Processing job duration in milliseconds", jobDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMillis returns the elapsed time since start in milliseconds.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
