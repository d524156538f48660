package render

import (
	"context"

	"pxk/model"
)

// PDFEngine turns an HTML document into PDF bytes.
type PDFEngine interface {
	PDF(ctx context.Context, html string) ([]byte, error)
}

// SlipRenderer fills the slip template and prints it.
type SlipRenderer struct {
	HTML *TemplateRenderer
	PDF  PDFEngine
}

func NewSlipRenderer(html *TemplateRenderer, pdf PDFEngine) *SlipRenderer {
	return &SlipRenderer{HTML: html, PDF: pdf}
}

// RenderHTML returns the slip as HTML without printing it.
func (s *SlipRenderer) RenderHTML(ctx context.Context, rc model.RenderContext) (string, error) {
	return s.HTML.RenderHTML(rc)
}

// Render returns the slip as PDF bytes.
func (s *SlipRenderer) Render(ctx context.Context, rc model.RenderContext) ([]byte, error) {
	html, err := s.HTML.RenderHTML(rc)
	if err != nil {
		return nil, err
	}
	return s.PDF.PDF(ctx, html)
}
