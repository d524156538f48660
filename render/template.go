package render

import (
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"pxk/model"
)

// SlipTemplate is the file name of the issue slip template inside the template dir.
const SlipTemplate = "phieu_xuat_kho.html"

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	// safeURL marks the template dir base href as trusted; html/template rejects file: URLs otherwise.
	"safeURL": func(s string) template.URL { return template.URL(s) },
}

// TemplateRenderer executes the slip template. The file is parsed on every
// call so edits to the template show up without a restart.
type TemplateRenderer struct {
	dir  string
	name string
}

func NewTemplateRenderer(dir string) *TemplateRenderer {
	return &TemplateRenderer{dir: dir, name: SlipTemplate}
}

// Check reports whether the slip template file can be read.
func (t *TemplateRenderer) Check() error {
	path := filepath.Join(t.dir, t.name)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("slip template: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("slip template %s is a directory", path)
	}
	return nil
}

// BaseHref is the file: URL of the template dir, used to resolve relative assets.
func (t *TemplateRenderer) BaseHref() string {
	abs, err := filepath.Abs(t.dir)
	if err != nil {
		abs = t.dir
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return strings.TrimRight(u.String(), "/") + "/"
}

// RenderHTML returns the filled-in slip as an HTML document.
func (t *TemplateRenderer) RenderHTML(rc model.RenderContext) (string, error) {
	if rc.BaseHref == "" {
		rc.BaseHref = t.BaseHref()
	}
	path := filepath.Join(t.dir, t.name)
	tmpl, err := template.New(t.name).Funcs(funcs).ParseFiles(path)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", path, err)
	}

	var sb strings.Builder
	if err := tmpl.ExecuteTemplate(&sb, t.name, rc); err != nil {
		return "", fmt.Errorf("execute template %s: %w", t.name, err)
	}
	return sb.String(), nil
}
