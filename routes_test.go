package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pxk/config"
	"pxk/metrics"
	"pxk/printslip"
)

func newTestMux(t *testing.T, apiKey string) *http.ServeMux {
	t.Helper()
	h := printslip.NewHandler(nil, nil, nil, printslip.Options{APIKey: apiKey})
	mux := http.NewServeMux()
	SetupRoutes(mux, routeDeps{print: h, metrics: metrics.NewRegistry(), apiKey: apiKey})
	return mux
}

func TestHealthz(t *testing.T) {
	mux := newTestMux(t, "")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body["status"] != "ok" {
		t.Errorf("body = %q (%v)", rr.Body.String(), err)
	}
}

func TestMetricsRoute(t *testing.T) {
	mux := newTestMux(t, "")
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/print-phieu-xuat", nil))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"pxk_http_request_duration_seconds_count",
		`handler="healthz"`,
		`handler="print"`,
		`code="400"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestInstrumentWithoutMetrics(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	rr := httptest.NewRecorder()
	instrument(nil, "x", h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusTeapot {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestConfigStatus(t *testing.T) {
	t.Setenv("LARK_APP_ID", "")
	t.Setenv("LARK_APP_SECRET", "s3cret")
	if _, err := config.Load(""); err != nil {
		t.Fatal(err)
	}

	mux := newTestMux(t, "k")

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/config/status", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("without key: status = %d, want 401", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/config/status", nil)
	req.Header.Set(printslip.APIKeyHeader, "k")
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var st configStatus
	if err := json.Unmarshal(rr.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.Ready {
		t.Error("ready with missing credentials")
	}
	found := false
	for _, k := range st.Missing {
		if k == "LARK_APP_ID" {
			found = true
		}
		if k == "LARK_APP_SECRET" {
			t.Error("LARK_APP_SECRET reported missing although set")
		}
	}
	if !found {
		t.Errorf("missing = %v, want LARK_APP_ID", st.Missing)
	}
	if strings.Contains(rr.Body.String(), "s3cret") {
		t.Error("secret leaked in config status")
	}
}

func TestPrintRouteRequiresRecordID(t *testing.T) {
	mux := newTestMux(t, "")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/print-phieu-xuat", nil))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestPrintLogDisabled(t *testing.T) {
	mux := newTestMux(t, "")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/print-log", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}
