// Package printslip serves GET /print-phieu-xuat: it loads one issue slip from
// Bitable, resolves its detail rows and answers with the printed PDF.
package printslip

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"pxk/mappers"
	"pxk/metrics"
	"pxk/model"
	"pxk/normalize"
	"pxk/resolver"
)

// MasterFetcher reads one master record.
type MasterFetcher interface {
	FetchOne(ctx context.Context, recordID string) (model.Fields, error)
}

// DetailResolver finds the detail rows of a master record. It never fails.
type DetailResolver interface {
	Resolve(ctx context.Context, master model.Fields) resolver.Result
}

// Renderer produces the slip document from a render context.
type Renderer interface {
	Render(ctx context.Context, rc model.RenderContext) ([]byte, error)
	RenderHTML(ctx context.Context, rc model.RenderContext) (string, error)
}

// Journal records successful prints.
type Journal interface {
	Record(entry model.PrintLogEntry, at time.Time) (model.PrintLogEntry, error)
}

type Options struct {
	// APIKey, when set, must match the x-api-key header.
	APIKey string
	// StrictTicketNumber answers 400 for masters without a ticket number.
	StrictTicketNumber bool
}

type Handler struct {
	masters  MasterFetcher
	details  DetailResolver
	renderer Renderer
	opts     Options

	journal Journal
	metrics *metrics.Registry
	now     func() time.Time
}

func NewHandler(masters MasterFetcher, details DetailResolver, renderer Renderer, opts Options) *Handler {
	return &Handler{
		masters:  masters,
		details:  details,
		renderer: renderer,
		opts:     opts,
		now:      time.Now,
	}
}

// WithJournal enables the print journal.
func (h *Handler) WithJournal(j Journal) *Handler {
	h.journal = j
	return h
}

// WithMetrics enables request metrics.
func (h *Handler) WithMetrics(m *metrics.Registry) *Handler {
	h.metrics = m
	return h
}

// RequestIDHeader echoes the id under which a request is logged and journaled.
const RequestIDHeader = "X-Request-Id"

// slip is one master record resolved and assembled for rendering.
type slip struct {
	requestID uuid.UUID
	recordID  string
	strategy  string
	context   model.RenderContext
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	reqID := uuid.New()
	w.Header().Set(RequestIDHeader, reqID.String())

	s, err := h.prepare(r, reqID)
	if err != nil {
		h.fail(w, err)
		return
	}

	format := "pdf"
	if strings.EqualFold(r.URL.Query().Get("format"), "html") {
		format = "html"
	}

	start := time.Now()
	var body []byte
	if format == "html" {
		var html string
		html, err = h.renderer.RenderHTML(r.Context(), s.context)
		body = []byte(html)
	} else {
		body, err = h.renderer.Render(r.Context(), s.context)
	}
	if err != nil {
		log.Printf("ERROR: [%s] render slip %s (record %s) failed: %v", reqID, s.context.SoPhieu, s.recordID, err)
		h.fail(w, &RenderError{Err: err})
		return
	}
	h.metrics.ObserveRender(time.Since(start).Seconds())

	if format == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, PDFFilename(s.context.SoPhieu)))
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Printf("WARN: [%s] write response for record %s: %v", reqID, s.recordID, err)
	}

	h.metrics.ObserveRequest("ok")
	h.record(s, format)
	log.Printf("INFO: [%s] printed %s (record %s, %d items, details via %q, %s)",
		reqID, s.context.SoPhieu, s.recordID, len(s.context.Items), s.strategy, format)
}

// prepare runs auth, master fetch, detail resolution and assembly.
func (h *Handler) prepare(r *http.Request, reqID uuid.UUID) (slip, error) {
	if err := checkAPIKey(h.opts.APIKey, r); err != nil {
		return slip{}, err
	}

	recordID := strings.TrimSpace(r.URL.Query().Get("record_id"))
	if recordID == "" {
		return slip{}, ErrMissingRecordID
	}

	ctx := r.Context()
	master, err := h.masters.FetchOne(ctx, recordID)
	if err != nil {
		log.Printf("ERROR: [%s] get master %s failed: %v", reqID, recordID, err)
		return slip{}, fmt.Errorf("%w: %v", ErrMasterNotFound, err)
	}
	if len(master) == 0 {
		return slip{}, ErrMasterNotFound
	}

	if h.opts.StrictTicketNumber && normalize.Text(master[model.MasterSoPhieu]) == "" {
		return slip{}, ErrMissingTicketNumber
	}

	res := h.details.Resolve(ctx, master)
	h.metrics.ObserveResolution(res.Strategy, len(res.Details))

	return slip{
		requestID: reqID,
		recordID:  recordID,
		strategy:  res.Strategy,
		context:   mappers.ToRenderContext(master, res.Details, h.now()),
	}, nil
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	f := failureFor(err)
	h.metrics.ObserveRequest(f.outcome)
	http.Error(w, f.message, f.status)
}

func (h *Handler) record(s slip, format string) {
	if h.journal == nil {
		return
	}
	entry := model.PrintLogEntry{
		ID:        s.requestID,
		RecordID:  s.recordID,
		SoPhieu:   s.context.SoPhieu,
		ItemCount: len(s.context.Items),
		Strategy:  s.strategy,
		Format:    format,
	}
	if _, err := h.journal.Record(entry, h.now()); err != nil {
		log.Printf("WARN: [%s] print log not written for record %s: %v", s.requestID, s.recordID, err)
	}
}
