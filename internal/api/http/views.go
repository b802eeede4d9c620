package httpapi

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/i474232898/weather-lookup/internal/weather"
)

//go:embed templates/*.html
var templateFS embed.FS

// templateViews implements fiber.Views over the embedded html/template set.
// Each page is a named template; layouts are not used.
type templateViews struct {
	tmpl *template.Template
}

func newViews() *templateViews {
	return &templateViews{}
}

func (v *templateViews) Load() error {
	t, err := template.New("").Funcs(template.FuncMap{
		"date": func(t time.Time) string { return t.Format(weather.DateLayout) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	v.tmpl = t
	return nil
}

func (v *templateViews) Render(w io.Writer, name string, data interface{}, _ ...string) error {
	if v.tmpl == nil {
		if err := v.Load(); err != nil {
			return err
		}
	}
	return v.tmpl.ExecuteTemplate(w, name, data)
}
