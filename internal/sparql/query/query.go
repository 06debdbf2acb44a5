// Package query builds SPARQL documents from a closed catalog of query shapes
// and a vocabulary-checked filter selection.
package query

import (
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/cespare/xxhash/v2"

	"github.com/SAWGraph/public/internal/vocabulary"
)

type Shape string

const (
	ShapeNearFacilities  Shape = "near-facilities"
	ShapeCountySamples   Shape = "county-samples"
	ShapeSurfaceWater    Shape = "surface-water"
	ShapeDownstreamWater Shape = "downstream-water"
	ShapeFacilities      Shape = "facilities"
	ShapeCounties        Shape = "counties"
	ShapeSamplePoints    Shape = "sample-points"
)

type Depth string

const (
	DepthFull Depth = "full"
	DepthFast Depth = "fast"
)

const (
	MaxLimit         = 1000
	FastDefaultLimit = 20
	FastMinLimit     = 5
	FastMaxLimit     = 100
	// overlay cap used by the simplified variant
	FastFacilityLimit = 50
)

// Set names the result sets produced by a batch.
const (
	SetSamplePoints = "samplepoints"
	SetSurfaceWater = "surfacewater"
	SetFacilities   = "facilities"
	SetCounties     = "counties"
)

var (
	ErrUnknownShape = errors.New("unknown query shape")
	ErrInvalidLimit = errors.New("invalid result limit")
	ErrInvalidDepth = errors.New("invalid query depth")
)

// Spec is the per-interaction selection. Industries and Counties are
// vocabulary labels, never identifiers or free text.
type Spec struct {
	Shape      Shape
	Industries []string
	Counties   []string
	Limit      int
	Depth      Depth
}

type Query struct {
	Shape Shape
	Set   string
	Text  string
	Hash  string
}

type shapeDef struct {
	title          string
	set            string
	geometryColumn string
	countyBounded  bool
	primary        bool
	full           *template.Template
	fast           *template.Template
}

var shapes = map[Shape]*shapeDef{
	ShapeNearFacilities: {
		title: "Samples near facilities", set: SetSamplePoints, geometryColumn: "spWKT", primary: true,
		full: mustTemplate("near-facilities", samplePrefixes, nearFacilitiesFull),
		fast: mustTemplate("near-facilities-fast", samplePrefixes, nearFacilitiesFast),
	},
	ShapeCountySamples: {
		title: "Samples near facilities in selected counties", set: SetSamplePoints, geometryColumn: "spWKT",
		countyBounded: true, primary: true,
		full: mustTemplate("county-samples", samplePrefixes, countySamplesFull),
		fast: mustTemplate("county-samples-fast", samplePrefixes, countySamplesFast),
	},
	ShapeSurfaceWater: {
		title: "Surface water near facilities", set: SetSurfaceWater, geometryColumn: "swWKT",
		countyBounded: true, primary: true,
		full: mustTemplate("surface-water", waterPrefixes, surfaceWater),
	},
	ShapeDownstreamWater: {
		title: "Downstream surface water", set: SetSurfaceWater, geometryColumn: "swWKT",
		countyBounded: true, primary: true,
		full: mustTemplate("downstream-water", waterPrefixes, downstreamWater),
	},
	ShapeFacilities: {
		title: "Facilities", set: SetFacilities, geometryColumn: "facWKT",
		full: mustTemplate("facilities", []string{"geo", "rdfs", "naics", "fio"}, facilities),
	},
	ShapeCounties: {
		title: "County boundaries", set: SetCounties, geometryColumn: "countyWKT",
		full: mustTemplate("counties", []string{"geo", "rdfs", "kwgr", "kwg-ont", "rdf"}, counties),
	},
	ShapeSamplePoints: {
		title: "Sample points", set: SetSamplePoints, geometryColumn: "spWKT", primary: true,
		full: mustTemplate("sample-points", []string{"geo", "coso", "rdf", "dcterms"}, samplePoints),
	},
}

func mustTemplate(name string, prefixes []string, body string) *template.Template {
	header, err := vocabulary.PrefixHeader(prefixes...)
	if err != nil {
		panic(fmt.Sprintf("query template %s: %v", name, err))
	}
	return template.Must(template.New(name).Option("missingkey=error").Parse(header + body))
}

var shapeAliases = map[string]Shape{
	"q1": ShapeNearFacilities,
	"q2": ShapeCountySamples,
	"q3": ShapeSurfaceWater,
	"q4": ShapeDownstreamWater,
}

// ParseShape accepts a shape id or its short alias (q1..q4).
func ParseShape(s string) (Shape, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if sh, ok := shapeAliases[s]; ok {
		return sh, nil
	}
	if _, ok := shapes[Shape(s)]; ok {
		return Shape(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownShape, s)
}

func ParseDepth(s string) (Depth, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(DepthFull):
		return DepthFull, nil
	case string(DepthFast):
		return DepthFast, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDepth, s)
	}
}

// Primary shapes are the ones a user selects; overlays are composed around them.
func PrimaryShapes() []Shape {
	return []Shape{ShapeNearFacilities, ShapeCountySamples, ShapeSurfaceWater, ShapeDownstreamWater, ShapeSamplePoints}
}

func Title(sh Shape) string {
	if d, ok := shapes[sh]; ok {
		return d.title
	}
	return string(sh)
}

func GeometryColumn(sh Shape) string {
	if d, ok := shapes[sh]; ok {
		return d.geometryColumn
	}
	return ""
}

func CountyBounded(sh Shape) bool {
	d, ok := shapes[sh]
	return ok && d.countyBounded
}

type templateData struct {
	Industries string
	Counties   string
	WaterTypes string
	Limit      int
}

// Build renders the query for spec.Shape.
func Build(spec Spec, v *vocabulary.Vocabulary) (Query, error) {
	def, ok := shapes[spec.Shape]
	if !ok {
		return Query{}, fmt.Errorf("%w: %q", ErrUnknownShape, spec.Shape)
	}
	depth := spec.Depth
	if depth == "" {
		depth = DepthFull
	}
	if depth != DepthFull && depth != DepthFast {
		return Query{}, fmt.Errorf("%w: %q", ErrInvalidDepth, depth)
	}
	limit, err := effectiveLimit(spec.Shape, spec.Limit, depth)
	if err != nil {
		return Query{}, err
	}

	industries, err := resolveValues(v, vocabulary.Industry, spec.Industries)
	if err != nil {
		return Query{}, err
	}
	counties, err := resolveValues(v, vocabulary.County, spec.Counties)
	if err != nil {
		return Query{}, err
	}
	waterTypes, err := valuesBlock(v, vocabulary.WaterType, v.IDs(vocabulary.WaterType))
	if err != nil {
		return Query{}, err
	}

	tmpl := def.full
	if depth == DepthFast && def.fast != nil {
		tmpl = def.fast
	}

	var b strings.Builder
	err = tmpl.Execute(&b, templateData{
		Industries: industries,
		Counties:   counties,
		WaterTypes: waterTypes,
		Limit:      limit,
	})
	if err != nil {
		return Query{}, fmt.Errorf("render %s: %w", spec.Shape, err)
	}
	text := b.String()
	return Query{
		Shape: spec.Shape,
		Set:   def.set,
		Text:  text,
		Hash:  Fingerprint(text),
	}, nil
}

// Plan returns the batch for one interaction: the selected shape followed by
// the facility overlay and, for county-bounded shapes, the county boundaries.
func Plan(spec Spec, v *vocabulary.Vocabulary) ([]Query, error) {
	def, ok := shapes[spec.Shape]
	if !ok || !def.primary {
		return nil, fmt.Errorf("%w: %q is not selectable", ErrUnknownShape, spec.Shape)
	}
	primary, err := Build(spec, v)
	if err != nil {
		return nil, err
	}
	out := []Query{primary}

	fac := spec
	fac.Shape = ShapeFacilities
	fac.Limit = 0
	facQ, err := Build(fac, v)
	if err != nil {
		return nil, err
	}
	out = append(out, facQ)

	if def.countyBounded {
		cs := spec
		cs.Shape = ShapeCounties
		cs.Limit = 0
		csQ, err := Build(cs, v)
		if err != nil {
			return nil, err
		}
		out = append(out, csQ)
	}
	return out, nil
}

func effectiveLimit(sh Shape, limit int, depth Depth) (int, error) {
	if limit < 0 || limit > MaxLimit {
		return 0, fmt.Errorf("%w: %d (must be 0..%d)", ErrInvalidLimit, limit, MaxLimit)
	}
	switch sh {
	case ShapeCounties:
		return 0, nil
	case ShapeFacilities:
		if depth == DepthFast {
			return FastFacilityLimit, nil
		}
		return limit, nil
	case ShapeSamplePoints:
		return clampFast(limit), nil
	}
	if depth == DepthFast {
		return clampFast(limit), nil
	}
	return limit, nil
}

func clampFast(limit int) int {
	switch {
	case limit == 0:
		return FastDefaultLimit
	case limit < FastMinLimit:
		return FastMinLimit
	case limit > FastMaxLimit:
		return FastMaxLimit
	default:
		return limit
	}
}

func resolveValues(v *vocabulary.Vocabulary, d vocabulary.Dimension, labels []string) (string, error) {
	ids, err := v.Resolve(d, labels)
	if err != nil {
		return "", err
	}
	return valuesBlock(v, d, ids)
}

// valuesBlock renders "{ id1 id2 }"; every id is re-checked against the catalog.
func valuesBlock(v *vocabulary.Vocabulary, d vocabulary.Dimension, ids []string) (string, error) {
	if len(ids) == 0 {
		return "{ }", nil
	}
	for _, id := range ids {
		if !vocabulary.ValidID(id) || !v.Contains(d, id) {
			return "", fmt.Errorf("identifier %q is not declared for %s", id, d)
		}
	}
	return "{ " + strings.Join(ids, " ") + " }", nil
}

func Fingerprint(text string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(text))
}

// Balanced reports whether braces nest correctly.
func Balanced(text string) bool {
	depth := 0
	for _, r := range text {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
