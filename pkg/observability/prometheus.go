package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flowview"

// Prometheus implements every hook interface by updating Prometheus metrics
// on its own registry.
type Prometheus struct {
	registry *prometheus.Registry

	StageDuration *prometheus.HistogramVec
	StageErrors   *prometheus.CounterVec
	DiagramNodes  prometheus.Histogram
	DiagramLinks  prometheus.Histogram
	EdgesDecoded  prometheus.Counter

	CacheRequests     *prometheus.CounterVec
	CacheWrittenBytes *prometheus.CounterVec

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	HTTPResponseSize     *prometheus.HistogramVec
}

// NewPrometheus creates the metrics on a fresh registry that also carries
// the Go runtime and process collectors.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	sizeBuckets := []float64{1, 5, 10, 25, 50, 100, 250, 500}

	return &Prometheus{
		registry: reg,

		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		StageErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Pipeline stage failures",
		}, []string{"stage"}),
		DiagramNodes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "diagram_nodes",
			Help:      "Nodes per built diagram",
			Buckets:   sizeBuckets,
		}),
		DiagramLinks: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "diagram_links",
			Help:      "Links per built diagram",
			Buckets:   sizeBuckets,
		}),
		EdgesDecoded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_decoded_total",
			Help:      "Edges read from input documents",
		}),

		CacheRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Cache lookups by key type and result",
		}, []string{"key_type", "result"}),
		CacheWrittenBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache",
		}, []string{"key_type"}),

		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HTTPRequestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		}),
		HTTPResponseSize: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   []float64{100, 1000, 10000, 100000, 1000000},
		}, []string{"method", "route"}),
	}
}

// Registry returns the underlying Prometheus registry.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Register installs p as the pipeline, cache and HTTP hooks.
func (p *Prometheus) Register() {
	SetPipelineHooks(p)
	SetCacheHooks(p)
	SetHTTPHooks(p)
}

func (p *Prometheus) observeStage(stage string, d time.Duration, err error) {
	p.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		p.StageErrors.WithLabelValues(stage).Inc()
	}
}

func (p *Prometheus) OnDecodeStart(context.Context, string) {}

func (p *Prometheus) OnDecodeComplete(_ context.Context, _ string, edges int, d time.Duration, err error) {
	p.observeStage("decode", d, err)
	if err == nil {
		p.EdgesDecoded.Add(float64(edges))
	}
}

func (p *Prometheus) OnBuildStart(context.Context, int) {}

func (p *Prometheus) OnBuildComplete(_ context.Context, nodes, links int, d time.Duration, err error) {
	p.observeStage("build", d, err)
	if err == nil {
		p.DiagramNodes.Observe(float64(nodes))
		p.DiagramLinks.Observe(float64(links))
	}
}

func (p *Prometheus) OnRenderStart(context.Context, []string) {}

func (p *Prometheus) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	p.observeStage("render", d, err)
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.CacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.CacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.CacheWrittenBytes.WithLabelValues(keyType).Add(float64(size))
}

func (p *Prometheus) OnRequest(context.Context, string, string) {
	p.HTTPRequestsInFlight.Inc()
}

func (p *Prometheus) OnResponse(_ context.Context, method, route string, status, size int, d time.Duration) {
	p.HTTPRequestsInFlight.Dec()
	p.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
	p.HTTPResponseSize.WithLabelValues(method, route).Observe(float64(size))
}

var (
	_ PipelineHooks = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)
