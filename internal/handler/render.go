package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/BuzzLyutic/things/internal/model"
)

//go:embed templates/*.html
var templatesFS embed.FS

const dateLayout = "January 2, 2006, 3:04 PM"

type renderer struct {
	tmpl *template.Template
}

func newRenderer() (*renderer, error) {
	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"formatDate": formatDate,
		"percent":    func(f float64) int { return int(f + 0.5) },
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &renderer{tmpl: tmpl}, nil
}

// baseVM carries what the shared layout needs.
type baseVM struct {
	Title    string
	Theme    model.Theme
	ReturnTo string
}

// render buffers the page; on a template error nothing but a 500 is written.
func (p *renderer) render(w http.ResponseWriter, code int, name string, data any) error {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, "an unexpected error occurred", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, err := buf.WriteTo(w)
	return err
}

func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Local().Format(dateLayout)
	case *time.Time:
		if t != nil {
			return t.Local().Format(dateLayout)
		}
	}
	return ""
}
