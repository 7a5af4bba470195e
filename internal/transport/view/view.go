package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

const layoutFile = "templates/layout.html"

// FormValues is the part of a submitted form the templates read.
type FormValues interface {
	Get(name string) string
	ErrorsFor(name string) []string
}

// Field is the data of the shared "field" template.
type Field struct {
	Name   string
	Label  string
	Type   string
	Value  string
	Errors []string
}

// Renderer holds one template set per page, each sharing the layout.
type Renderer struct {
	pages map[string]*template.Template
}

func Funcs(loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02/01/2006")
		},
		"clock": func(t *time.Time) string {
			if t == nil || t.IsZero() {
				return "-"
			}
			return t.In(loc).Format("15:04:05")
		},
		"input": func(form FormValues, name, label, inputType string) Field {
			f := Field{Name: name, Label: label, Type: inputType}
			if form == nil {
				return f
			}
			if inputType != "password" {
				f.Value = form.Get(name)
			}
			f.Errors = form.ErrorsFor(name)
			return f
		},
	}
}

func NewRenderer(loc *time.Location) (*Renderer, error) {
	if loc == nil {
		loc = time.UTC
	}

	entries, err := fs.Glob(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(entries))
	for _, file := range entries {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".html")
		tmpl, err := template.New(path.Base(layoutFile)).Funcs(Funcs(loc)).ParseFS(templatesFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Renderer{pages: pages}, nil
}

// Render executes page into w. Output is buffered so a failing template never leaves a partial body.
func (r *Renderer) Render(w io.Writer, page string, data interface{}) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func (r *Renderer) Has(page string) bool {
	_, ok := r.pages[page]
	return ok
}
