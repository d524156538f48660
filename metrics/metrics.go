package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the print service metrics on a private registry.
type Registry struct {
	reg *prometheus.Registry

	Requests   *prometheus.CounterVec // by outcome: ok, unauthorized, bad_request, not_found, render_error
	Resolution *prometheus.CounterVec // by strategy: link, ticket_text, none
	DetailRows prometheus.Histogram
	RenderSec  prometheus.Histogram
	// HTTPDuration is labeled by handler, code and method.
	HTTPDuration *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pxk_print_requests_total",
		Help: "Print requests by outcome.",
	}, []string{"outcome"})
	resolution := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pxk_detail_resolution_total",
		Help: "Detail lookups by the strategy that produced rows.",
	}, []string{"strategy"})
	rows := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pxk_detail_rows",
		Help:    "Detail rows per printed slip.",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
	})
	renderSec := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pxk_render_seconds",
		Help:    "Template plus PDF rendering time.",
		Buckets: prometheus.DefBuckets,
	})

	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pxk_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"handler", "code", "method"})

	r.MustRegister(requests, resolution, rows, renderSec, httpDuration)
	return &Registry{
		reg:          r,
		Requests:     requests,
		Resolution:   resolution,
		DetailRows:   rows,
		RenderSec:    renderSec,
		HTTPDuration: httpDuration,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

// ObserveRequest counts one finished print request. Safe on a nil Registry.
func (r *Registry) ObserveRequest(outcome string) {
	if r == nil {
		return
	}
	r.Requests.WithLabelValues(outcome).Inc()
}

// ObserveResolution records which strategy found the detail rows and how many.
func (r *Registry) ObserveResolution(strategy string, rows int) {
	if r == nil {
		return
	}
	if strategy == "" {
		strategy = "none"
	}
	r.Resolution.WithLabelValues(strategy).Inc()
	r.DetailRows.Observe(float64(rows))
}

// ObserveRender records rendering time in seconds.
func (r *Registry) ObserveRender(seconds float64) {
	if r == nil {
		return
	}
	r.RenderSec.Observe(seconds)
}
