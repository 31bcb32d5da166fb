package observability

import (
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/coursify-backend/internal/platform/envutil"
)

type Metrics struct {
	apiRequests    *CounterVec
	apiLatency     *HistogramVec
	apiInflight    *Gauge
	generations    *CounterVec
	llmRequests    *CounterVec
	llmLatency     *HistogramVec
	llmTokens      *CounterVec
	videoRequests  *CounterVec
	videoLatency   *HistogramVec
	enrollments    *Counter
	lessonComplete *Counter
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

// Current returns the process metrics, or nil when metrics are off. Every
// method is safe on a nil receiver.
func Current() *Metrics {
	return instance
}

func Init() *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
	})
	return instance
}

func NewMetrics() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("coursify_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"coursify_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		),
		apiInflight: NewGauge("coursify_api_inflight_requests", "In-flight API requests."),
		generations: NewCounterVec("coursify_generations_total", "Content generations by kind and source.", []string{"kind", "source"}),
		llmRequests: NewCounterVec("coursify_llm_requests_total", "LLM calls by model/status.", []string{"model", "status"}),
		llmLatency: NewHistogramVec(
			"coursify_llm_request_duration_seconds",
			"LLM call latency in seconds.",
			[]string{"model", "status"},
			[]float64{0.5, 1, 2, 5, 10, 20, 40, 60, 120},
		),
		llmTokens:     NewCounterVec("coursify_llm_tokens_total", "LLM tokens by model and direction.", []string{"model", "direction"}),
		videoRequests: NewCounterVec("coursify_video_generations_total", "Video generation attempts by model/status.", []string{"model", "status"}),
		videoLatency: NewHistogramVec(
			"coursify_video_generation_duration_seconds",
			"Video generation latency in seconds.",
			[]string{"model", "status"},
			[]float64{5, 15, 30, 60, 120, 180, 300},
		),
		enrollments:    NewCounter("coursify_enrollments_total", "Enrollments created."),
		lessonComplete: NewCounter("coursify_lesson_completions_total", "Lesson completion events recorded."),
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.generations,
		m.llmRequests, m.llmLatency, m.llmTokens,
		m.videoRequests, m.videoLatency,
		m.enrollments, m.lessonComplete,
	} {
		if err := c.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	if status == "" {
		status = "0"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// IncGeneration counts one course or quiz generation by where it came from
// ("provider" or "template").
func (m *Metrics) IncGeneration(kind, source string) {
	if m == nil {
		return
	}
	m.generations.Inc(kind, source)
}

func (m *Metrics) ObserveLLMRequest(model, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = "unknown"
	}
	m.llmRequests.Inc(model, status)
	if dur > 0 {
		m.llmLatency.Observe(dur.Seconds(), model, status)
	}
	if inputTokens > 0 {
		m.llmTokens.Add(float64(inputTokens), model, "input")
	}
	if outputTokens > 0 {
		m.llmTokens.Add(float64(outputTokens), model, "output")
	}
}

func (m *Metrics) ObserveVideoGeneration(model, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.videoRequests.Inc(model, status)
	if dur > 0 {
		m.videoLatency.Observe(dur.Seconds(), model, status)
	}
}

func (m *Metrics) IncEnrollment() {
	if m == nil {
		return
	}
	m.enrollments.Inc()
}

func (m *Metrics) IncLessonCompletion() {
	if m == nil {
		return
	}
	m.lessonComplete.Inc()
}
