package notion

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector tracks in-process counters about client operations:
// request and error totals, retries, rate limiter waits, and latency.
type MetricsCollector struct {
	mu sync.RWMutex

	// Atomic counters for high-frequency operations
	totalRequests int64
	totalErrors   int64
	totalRetries  int64
	rateLimitHits int64

	// Protected by mutex
	operationStats    map[string]*OperationStats
	errorStats        map[string]int64
	responseTimeStats *ResponseTimeStats
	rateLimitWait     time.Duration
	startTime         time.Time
}

// OperationStats tracks statistics for a specific operation (e.g., "GET /pages").
type OperationStats struct {
	Count         int64         `json:"count"`
	Errors        int64         `json:"errors"`
	TotalDuration time.Duration `json:"total_duration"`
	MinDuration   time.Duration `json:"min_duration"`
	MaxDuration   time.Duration `json:"max_duration"`
	LastCall      time.Time     `json:"last_call"`
}

// ResponseTimeStats tracks response time distribution.
type ResponseTimeStats struct {
	P50 time.Duration `json:"p50"`
	P90 time.Duration `json:"p90"`
	P95 time.Duration `json:"p95"`
	P99 time.Duration `json:"p99"`

	samples []time.Duration
	dirty   bool
}

// Metrics represents a snapshot of all collected metrics.
type Metrics struct {
	TotalRequests int64 `json:"total_requests"`
	TotalErrors   int64 `json:"total_errors"`
	TotalRetries  int64 `json:"total_retries"`
	RateLimitHits int64 `json:"rate_limit_hits"`

	// RateLimitWait is the cumulative time spent blocked on the limiter.
	RateLimitWait time.Duration `json:"rate_limit_wait"`

	ErrorRate         float64 `json:"error_rate"`
	SuccessRate       float64 `json:"success_rate"`
	AverageRetries    float64 `json:"average_retries"`
	RequestsPerSecond float64 `json:"requests_per_second"`

	Operations map[string]*OperationStats `json:"operations"`

	ErrorBreakdown map[string]int64 `json:"error_breakdown"`

	ResponseTimes *ResponseTimeStats `json:"response_times"`

	CollectionStart time.Time     `json:"collection_start"`
	CollectionTime  time.Time     `json:"collection_time"`
	Uptime          time.Duration `json:"uptime"`
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		operationStats:    make(map[string]*OperationStats),
		errorStats:        make(map[string]int64),
		responseTimeStats: &ResponseTimeStats{samples: make([]time.Duration, 0, 1000)},
		startTime:         time.Now(),
	}
}

// RecordRequest records metrics for a completed request.
func (mc *MetricsCollector) RecordRequest(operation string, duration time.Duration, err error) {
	atomic.AddInt64(&mc.totalRequests, 1)

	if err != nil {
		atomic.AddInt64(&mc.totalErrors, 1)

		mc.mu.Lock()
		mc.errorStats[getErrorType(err)]++
		mc.mu.Unlock()

		if _, ok := err.(*RateLimitError); ok {
			atomic.AddInt64(&mc.rateLimitHits, 1)
		}
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	stats, exists := mc.operationStats[operation]
	if !exists {
		stats = &OperationStats{
			MinDuration: duration,
			MaxDuration: duration,
		}
		mc.operationStats[operation] = stats
	}

	stats.Count++
	stats.TotalDuration += duration
	stats.LastCall = time.Now()

	if err != nil {
		stats.Errors++
	}

	if duration < stats.MinDuration {
		stats.MinDuration = duration
	}
	if duration > stats.MaxDuration {
		stats.MaxDuration = duration
	}

	mc.responseTimeStats.addSample(duration)
}

// RecordRetry records a retry attempt.
func (mc *MetricsCollector) RecordRetry() {
	atomic.AddInt64(&mc.totalRetries, 1)
}

// RecordRateLimitWait records time spent blocked on the client-side limiter.
func (mc *MetricsCollector) RecordRateLimitWait(waited time.Duration) {
	mc.mu.Lock()
	mc.rateLimitWait += waited
	mc.mu.Unlock()
}

// GetMetrics returns a snapshot of current metrics.
func (mc *MetricsCollector) GetMetrics() *Metrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	totalRequests := atomic.LoadInt64(&mc.totalRequests)
	totalErrors := atomic.LoadInt64(&mc.totalErrors)
	totalRetries := atomic.LoadInt64(&mc.totalRetries)

	now := time.Now()
	uptime := now.Sub(mc.startTime)

	var errorRate, successRate, avgRetries, requestsPerSecond float64

	if totalRequests > 0 {
		errorRate = float64(totalErrors) / float64(totalRequests)
		successRate = 1.0 - errorRate
		avgRetries = float64(totalRetries) / float64(totalRequests)
		requestsPerSecond = float64(totalRequests) / uptime.Seconds()
	}

	operations := make(map[string]*OperationStats)
	for key, stats := range mc.operationStats {
		copied := *stats
		operations[key] = &copied
	}

	errorBreakdown := make(map[string]int64)
	for errorType, count := range mc.errorStats {
		errorBreakdown[errorType] = count
	}

	responseTimesCopy := &ResponseTimeStats{}
	if len(mc.responseTimeStats.samples) > 0 {
		responseTimesCopy = mc.responseTimeStats.calculatePercentiles()
	}

	return &Metrics{
		TotalRequests:     totalRequests,
		TotalErrors:       totalErrors,
		TotalRetries:      totalRetries,
		RateLimitHits:     atomic.LoadInt64(&mc.rateLimitHits),
		RateLimitWait:     mc.rateLimitWait,
		ErrorRate:         errorRate,
		SuccessRate:       successRate,
		AverageRetries:    avgRetries,
		RequestsPerSecond: requestsPerSecond,
		Operations:        operations,
		ErrorBreakdown:    errorBreakdown,
		ResponseTimes:     responseTimesCopy,
		CollectionStart:   mc.startTime,
		CollectionTime:    now,
		Uptime:            uptime,
	}
}

// Reset clears all collected metrics.
func (mc *MetricsCollector) Reset() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	atomic.StoreInt64(&mc.totalRequests, 0)
	atomic.StoreInt64(&mc.totalErrors, 0)
	atomic.StoreInt64(&mc.totalRetries, 0)
	atomic.StoreInt64(&mc.rateLimitHits, 0)

	mc.operationStats = make(map[string]*OperationStats)
	mc.errorStats = make(map[string]int64)
	mc.responseTimeStats = &ResponseTimeStats{samples: make([]time.Duration, 0, 1000)}
	mc.rateLimitWait = 0
	mc.startTime = time.Now()
}

// GetOperationStats returns statistics for a specific operation, or nil.
func (mc *MetricsCollector) GetOperationStats(operation string) *OperationStats {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	stats, exists := mc.operationStats[operation]
	if !exists {
		return nil
	}

	copied := *stats
	return &copied
}

// addSample adds a response time sample for percentile calculation.
func (rts *ResponseTimeStats) addSample(duration time.Duration) {
	rts.samples = append(rts.samples, duration)
	rts.dirty = true

	// Keep only the last 1000 samples to bound memory
	if len(rts.samples) > 1000 {
		copy(rts.samples, rts.samples[len(rts.samples)-1000:])
		rts.samples = rts.samples[:1000]
	}
}

// calculatePercentiles calculates response time percentiles from samples.
func (rts *ResponseTimeStats) calculatePercentiles() *ResponseTimeStats {
	if len(rts.samples) == 0 {
		return &ResponseTimeStats{}
	}

	samples := make([]time.Duration, len(rts.samples))
	copy(samples, rts.samples)

	// Insertion sort, fine for at most 1000 samples
	for i := 1; i < len(samples); i++ {
		key := samples[i]
		j := i - 1
		for j >= 0 && samples[j] > key {
			samples[j+1] = samples[j]
			j--
		}
		samples[j+1] = key
	}

	result := &ResponseTimeStats{}
	length := len(samples)

	result.P50 = samples[int(float64(length)*0.50)]
	result.P90 = samples[int(float64(length)*0.90)]
	result.P95 = samples[int(float64(length)*0.95)]
	result.P99 = samples[int(float64(length)*0.99)]

	return result
}

// getErrorType maps an error onto a stable bucket name for the breakdown map.
func getErrorType(err error) string {
	if err == nil {
		return "none"
	}

	switch e := err.(type) {
	case *HTTPError:
		if e.IsServerError() {
			return "server_error"
		}
		return "http_error"
	case *RateLimitError:
		return "rate_limit"
	case *NetworkError:
		return "network_error"
	case *TimeoutError:
		return "timeout"
	case *AuthenticationError:
		return "authentication"
	case *AuthorizationError:
		return "authorization"
	case *ValidationError:
		return "validation"
	case *NotFoundError:
		return "not_found"
	case *ConflictError:
		return "conflict"
	case *SerializationError:
		return "serialization"
	case *PaginationError:
		return "pagination"
	case *ConcurrencyError:
		return "concurrency"
	default:
		return "unknown"
	}
}

// AverageResponseTime calculates the average response time for an operation.
func (os *OperationStats) AverageResponseTime() time.Duration {
	if os.Count == 0 {
		return 0
	}
	return os.TotalDuration / time.Duration(os.Count)
}

// ErrorRate calculates the error rate for an operation.
func (os *OperationStats) ErrorRate() float64 {
	if os.Count == 0 {
		return 0.0
	}
	return float64(os.Errors) / float64(os.Count)
}

// SuccessRate calculates the success rate for an operation.
func (os *OperationStats) SuccessRate() float64 {
	return 1.0 - os.ErrorRate()
}
