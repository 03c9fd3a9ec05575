package observability

import (
	"io"
	"net/http"
	"strconv"
	"time"
)

// Metrics holds the process-wide collectors exposed on /metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	apiRequests    *CounterVec
	apiLatency     *HistogramVec
	apiInflight    *Gauge
	apiRateLimited *CounterVec

	providerRequests *CounterVec
	providerLatency  *HistogramVec

	vectorIndexOps     *CounterVec
	vectorIndexLatency *HistogramVec

	validations     *CounterVec
	fallbacks       *CounterVec
	cacheLookups    *CounterVec
	chunksProcessed *CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("docqa_api_requests_total", "HTTP requests by method, route and status.",
			[]string{"method", "route", "status"}),
		apiLatency: NewHistogramVec("docqa_api_request_duration_seconds", "HTTP request latency.",
			[]string{"method", "route"}, nil),
		apiInflight: NewGauge("docqa_api_inflight_requests", "HTTP requests currently being served."),
		apiRateLimited: NewCounterVec("docqa_api_rate_limited_total", "Requests rejected by the rate limiter.",
			[]string{"route"}),

		providerRequests: NewCounterVec("docqa_provider_requests_total", "Embedding and generation calls.",
			[]string{"provider", "operation", "status"}),
		providerLatency: NewHistogramVec("docqa_provider_request_duration_seconds", "Embedding and generation latency.",
			[]string{"provider", "operation"}, []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}),

		vectorIndexOps: NewCounterVec("docqa_vector_index_operations_total", "Vector index operations.",
			[]string{"operation", "status"}),
		vectorIndexLatency: NewHistogramVec("docqa_vector_index_operation_duration_seconds", "Vector index latency.",
			[]string{"operation"}, nil),

		validations: NewCounterVec("docqa_validation_verdicts_total", "Groundedness verdicts by mode.",
			[]string{"mode", "valid"}),
		fallbacks: NewCounterVec("docqa_fallback_responses_total", "Answers replaced by the fallback text.",
			[]string{"reason"}),
		cacheLookups: NewCounterVec("docqa_cache_lookups_total", "Answer cache lookups.",
			[]string{"result"}),
		chunksProcessed: NewCounterVec("docqa_ingest_chunks_total", "Chunks written by ingestion.",
			[]string{"source"}),
	}
}

func (m *Metrics) collectors() []collector {
	return []collector{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiRateLimited,
		m.providerRequests, m.providerLatency,
		m.vectorIndexOps, m.vectorIndexLatency,
		m.validations, m.fallbacks, m.cacheLookups, m.chunksProcessed,
	}
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range m.collectors() {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unmatched"
	}
	m.apiRequests.Inc(method, route, strconv.Itoa(status))
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) IncRateLimited(route string) {
	if m == nil {
		return
	}
	m.apiRateLimited.Inc(route)
}

func (m *Metrics) ObserveProvider(provider, op string, err error, dur time.Duration) {
	if m == nil {
		return
	}
	m.providerRequests.Inc(provider, op, statusLabel(err))
	m.providerLatency.Observe(dur.Seconds(), provider, op)
}

func (m *Metrics) ObserveVectorIndexOperation(op string, err error, dur time.Duration) {
	if m == nil {
		return
	}
	m.vectorIndexOps.Inc(op, statusLabel(err))
	m.vectorIndexLatency.Observe(dur.Seconds(), op)
}

func (m *Metrics) ObserveValidation(mode string, valid bool) {
	if m == nil {
		return
	}
	m.validations.Inc(mode, strconv.FormatBool(valid))
}

func (m *Metrics) IncFallback(reason string) {
	if m == nil {
		return
	}
	m.fallbacks.Inc(reason)
}

func (m *Metrics) ObserveCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Inc(result)
}

func (m *Metrics) AddChunksProcessed(source string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.chunksProcessed.Add(float64(n), source)
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
