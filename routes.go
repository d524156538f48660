package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pxk/metrics"
	"pxk/printslip"
)

// routeDeps is everything the HTTP surface needs.
type routeDeps struct {
	print   *printslip.Handler
	journal printslip.JournalReader // nil when the print journal is disabled
	metrics *metrics.Registry
	apiKey  string
}

func SetupRoutes(mux *http.ServeMux, deps routeDeps) {
	handle := func(pattern, name string, h http.Handler) {
		mux.Handle(pattern, instrument(deps.metrics, name, h))
	}

	handle("/print-phieu-xuat", "print", deps.print)

	handle("/healthz", "healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	}))
	if deps.metrics != nil {
		mux.Handle("/metrics", deps.metrics.Handler())
	}

	handle("/api/config/status", "config_status", printslip.RequireAPIKey(deps.apiKey, GetConfigStatusHandler()))
	handle("/api/print-log", "print_log", printslip.RequireAPIKey(deps.apiKey, printslip.PrintLogHandler(deps.journal)))
}

// instrument records request latency per route when metrics are enabled.
func instrument(reg *metrics.Registry, name string, h http.Handler) http.Handler {
	if reg == nil {
		return h
	}
	return promhttp.InstrumentHandlerDuration(
		reg.HTTPDuration.MustCurryWith(prometheus.Labels{"handler": name}), h)
}
