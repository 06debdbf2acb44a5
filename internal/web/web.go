// Package web serves the single-page map UI.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/SAWGraph/public/internal/sparql/query"
	"github.com/SAWGraph/public/internal/vocabulary"
)

//go:embed templates/index.html
var files embed.FS

var index = template.Must(template.ParseFS(files, "templates/index.html"))

type shapeOption struct {
	ID            query.Shape
	Title         string
	CountyBounded bool
}

type page struct {
	Title      string
	Shapes     []shapeOption
	Industries []string
	Counties   []string
	FastMin    int
	FastMax    int
	FastLimit  int
	MaxLimit   int
}

// Index renders the page once; the vocabulary is fixed for the process.
func Index(v *vocabulary.Vocabulary) (http.HandlerFunc, error) {
	p := page{
		Title:      "SAWGraph PFAS explorer",
		Industries: v.Labels(vocabulary.Industry),
		Counties:   v.Labels(vocabulary.County),
		FastMin:    query.FastMinLimit,
		FastMax:    query.FastMaxLimit,
		FastLimit:  query.FastDefaultLimit,
		MaxLimit:   query.MaxLimit,
	}
	for _, sh := range query.PrimaryShapes() {
		p.Shapes = append(p.Shapes, shapeOption{ID: sh, Title: query.Title(sh), CountyBounded: query.CountyBounded(sh)})
	}

	var buf bytes.Buffer
	if err := index.Execute(&buf, p); err != nil {
		return nil, err
	}
	body := buf.Bytes()
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(body)
	}, nil
}
