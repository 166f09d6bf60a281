package httpapi

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexanderramin/stagegate/internal/app"
	"github.com/alexanderramin/stagegate/internal/domain"
	"github.com/alexanderramin/stagegate/internal/service"
)

const namespace = "stagegate"

// Metrics owns the Prometheus registry served on /metrics. It also observes
// service use cases, so it is passed to the service constructors.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	useCases *prometheus.CounterVec
	useCaseD *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		useCases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "use_cases_total",
			Help:      "Service use case executions by outcome.",
		}, []string{"use_case", "outcome"}),
		useCaseD: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "use_case_duration_seconds",
			Help:      "Service use case latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"use_case"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.latency, m.useCases, m.useCaseD,
	)
	return m
}

// ObserveUseCase implements service.UseCaseObserver.
func (m *Metrics) ObserveUseCase(_ context.Context, event service.UseCaseEvent) {
	outcome := "success"
	if !event.Success {
		outcome = "error"
	}
	m.useCases.WithLabelValues(event.Name, outcome).Inc()
	m.useCaseD.WithLabelValues(event.Name).Observe(event.Duration.Seconds())
}

// WatchPortfolio exports per-RAG project counts and per-project slip,
// computed from status at scrape time.
func (m *Metrics) WatchPortfolio(status app.StatusUseCase, logger *slog.Logger) error {
	return m.registry.Register(&portfolioCollector{status: status, logger: logger})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

var (
	projectsDesc = prometheus.NewDesc(namespace+"_projects", "Active projects by RAG health.", []string{"rag"}, nil)
	slipDesc     = prometheus.NewDesc(namespace+"_project_max_slip_days", "Worst stage slip per active project.", []string{"project"}, nil)
)

type portfolioCollector struct {
	status app.StatusUseCase
	logger *slog.Logger
}

func (c *portfolioCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- projectsDesc
	ch <- slipDesc
}

func (c *portfolioCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := c.status.GetStatus(ctx, app.NewStatusRequest())
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("portfolio metrics unavailable", "error", err)
		}
		return
	}
	counts := map[domain.RAG]int{domain.RAGGreen: 0, domain.RAGAmber: 0, domain.RAGRed: 0}
	for _, v := range resp.Projects {
		counts[v.RAG]++
		ch <- prometheus.MustNewConstMetric(slipDesc, prometheus.GaugeValue, float64(v.MaxSlip), v.ShortID)
	}
	for rag, n := range counts {
		ch <- prometheus.MustNewConstMetric(projectsDesc, prometheus.GaugeValue, float64(n), string(rag))
	}
}

// statusRecorder captures the response code and keeps hijacking available
// for websocket upgrades.
type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wrote {
		r.status, r.wrote = code, true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wrote = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status, r.wrote = http.StatusSwitchingProtocols, true
	return h.Hijack()
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
