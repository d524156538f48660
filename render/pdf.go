package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// PDFOptions configures the headless Chrome used for printing.
type PDFOptions struct {
	// Bin is an explicit Chrome/Chromium binary. Empty lets rod find or download one.
	Bin string
	// NoSandbox is needed in most containers.
	NoSandbox bool
	// Timeout bounds a single page render. Zero means no limit.
	Timeout time.Duration
}

// Rasterizer prints HTML to PDF through one shared headless browser.
// The browser is started on first use; each render gets its own tab.
type Rasterizer struct {
	opts PDFOptions

	mu      sync.Mutex
	browser *rod.Browser
}

func NewRasterizer(opts PDFOptions) *Rasterizer {
	return &Rasterizer{opts: opts}
}

func (r *Rasterizer) connect() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	// Leakless(false): the leakless helper binary is flagged by some antivirus tools.
	l := launcher.New().
		Headless(true).
		Leakless(false).
		NoSandbox(r.opts.NoSandbox)
	if r.opts.Bin != "" {
		l = l.Bin(r.opts.Bin)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	log.Println("INFO: headless browser started for PDF rendering.")
	r.browser = b
	return b, nil
}

// reset drops a browser that stopped answering so the next call relaunches it.
func (r *Rasterizer) reset(b *rod.Browser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser == b {
		_ = b.Close()
		r.browser = nil
	}
}

// resetAfter drops the browser after a failed render unless the caller went away.
func (r *Rasterizer) resetAfter(ctx context.Context, b *rod.Browser) {
	if !browserSuspect(ctx) {
		return
	}
	log.Println("WARN: render failed, restarting headless browser on next request.")
	r.reset(b)
}

// browserSuspect is false when the render stopped because the request was canceled.
func browserSuspect(ctx context.Context) bool {
	return !errors.Is(ctx.Err(), context.Canceled)
}

// PDF renders an HTML document to PDF bytes. The document is loaded from a
// temporary file: URL so that a <base href="file:..."> can pull local assets.
func (r *Rasterizer) PDF(ctx context.Context, html string) ([]byte, error) {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	b, err := r.connect()
	if err != nil {
		return nil, err
	}

	f, err := os.CreateTemp("", "pxk-*.html")
	if err != nil {
		return nil, fmt.Errorf("create temp html: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(html); err != nil {
		f.Close()
		return nil, fmt.Errorf("write temp html: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close temp html: %w", err)
	}

	abs, err := filepath.Abs(f.Name())
	if err != nil {
		return nil, err
	}
	pageURL := (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()

	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		r.reset(b)
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		r.resetAfter(ctx, b)
		return nil, fmt.Errorf("wait page load: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		r.resetAfter(ctx, b)
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		r.resetAfter(ctx, b)
		return nil, fmt.Errorf("read pdf stream: %w", err)
	}
	return data, nil
}

// Close shuts the browser down if it was started.
func (r *Rasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	r.browser = nil
	return err
}
