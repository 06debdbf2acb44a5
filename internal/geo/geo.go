// Package geo attaches parsed WKT geometry to normalized result tables.
package geo

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/SAWGraph/public/internal/sparql/results"
)

// CRS is pinned for every attached table; source geometry is assumed WGS84.
const CRS = "EPSG:4326"

var (
	ErrMissingColumn = errors.New("geometry column not in table")
	ErrUnbound       = errors.New("geometry value is unbound")
)

type GeometryParseError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *GeometryParseError) Error() string {
	v := e.Value
	if len(v) > 80 {
		v = v[:77] + "..."
	}
	return fmt.Sprintf("geometry parse error: row %d column %q value %q: %v", e.Row, e.Column, v, e.Err)
}

func (e *GeometryParseError) Unwrap() error { return e.Err }

type Record struct {
	Values   results.Record
	Geometry orb.Geometry
}

type Table struct {
	Columns        []string
	GeometryColumn string
	CRS            string
	Rows           []Record
}

func (t Table) Len() int { return len(t.Rows) }

// Attach parses column in every row. Any value that is not valid WKT fails
// the whole table.
func Attach(t results.Table, column string) (Table, error) {
	out := Table{
		Columns:        t.Columns,
		GeometryColumn: column,
		CRS:            CRS,
		Rows:           make([]Record, 0, len(t.Rows)),
	}
	if len(t.Rows) > 0 && !hasColumn(t.Columns, column) {
		return Table{}, &GeometryParseError{Row: 0, Column: column, Err: ErrMissingColumn}
	}
	for i, rec := range t.Rows {
		raw, ok := rec[column].(string)
		if !ok {
			return Table{}, &GeometryParseError{Row: i, Column: column, Value: results.AsString(rec[column]), Err: ErrUnbound}
		}
		g, err := Parse(raw)
		if err != nil {
			return Table{}, &GeometryParseError{Row: i, Column: column, Value: raw, Err: err}
		}
		out.Rows = append(out.Rows, Record{Values: rec, Geometry: g})
	}
	return out, nil
}

// Parse reads WKT, dropping a leading GeoSPARQL CRS IRI when present. Z and M
// ordinates are discarded; everything downstream is 2D.
func Parse(s string) (orb.Geometry, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "<") {
		end := strings.Index(s, ">")
		if end < 0 {
			return nil, errors.New("unterminated crs iri")
		}
		s = strings.TrimSpace(s[end+1:])
	}
	if s == "" {
		return nil, errors.New("empty wkt")
	}
	s = flatten(s)
	if m := emptyRe.FindStringSubmatch(s); m != nil {
		return emptyOf(m[1]), nil
	}
	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, fmt.Errorf("wkt: %w", err)
	}
	return g, nil
}

const (
	wktTypes = `MULTIPOINT|MULTILINESTRING|MULTIPOLYGON|GEOMETRYCOLLECTION|POINT|LINESTRING|POLYGON`
	wktNum   = `[-+]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][-+]?\d+)?`
)

var (
	spaceRe = regexp.MustCompile(`\s+`)
	dimRe   = regexp.MustCompile(`(?i)\b(` + wktTypes + `) ?(ZM|Z|M)\b`)
	openRe  = regexp.MustCompile(`(?i)\b(` + wktTypes + `) ?\( ?`)
	commaRe = regexp.MustCompile(` ?, ?`)
	closeRe = regexp.MustCompile(` ?\)`)
	tupleRe = regexp.MustCompile(`(` + wktNum + `) (` + wktNum + `)(?: ` + wktNum + `)+`)
	emptyRe = regexp.MustCompile(`(?i)^(` + wktTypes + `) EMPTY$`)
)

// flatten rewrites WKT into the compact 2D form the orb decoder accepts:
// single spaces, no dimension tags, no space around parens or commas, and
// only x y per coordinate.
func flatten(s string) string {
	s = spaceRe.ReplaceAllString(s, " ")
	s = dimRe.ReplaceAllString(s, "$1")
	s = openRe.ReplaceAllString(s, "$1(")
	s = strings.ReplaceAll(s, "( ", "(")
	s = commaRe.ReplaceAllString(s, ",")
	s = closeRe.ReplaceAllString(s, ")")
	return tupleRe.ReplaceAllString(s, "${1} ${2}")
}

// emptyOf returns the zero-length geometry for a WKT type. orb has no empty
// point, so POINT EMPTY becomes an empty MultiPoint.
func emptyOf(kind string) orb.Geometry {
	switch strings.ToUpper(kind) {
	case "POINT", "MULTIPOINT":
		return orb.MultiPoint{}
	case "LINESTRING":
		return orb.LineString{}
	case "POLYGON":
		return orb.Polygon{}
	case "MULTILINESTRING":
		return orb.MultiLineString{}
	case "MULTIPOLYGON":
		return orb.MultiPolygon{}
	default:
		return orb.Collection{}
	}
}

// IsEmpty reports whether g has no coordinates at all.
func IsEmpty(g orb.Geometry) bool {
	switch g := g.(type) {
	case nil:
		return true
	case orb.Point, orb.Bound:
		return false
	case orb.MultiPoint:
		return len(g) == 0
	case orb.LineString:
		return len(g) == 0
	case orb.Ring:
		return len(g) == 0
	case orb.Polygon:
		return len(g) == 0 || len(g[0]) == 0
	case orb.MultiLineString:
		for _, ls := range g {
			if len(ls) > 0 {
				return false
			}
		}
		return true
	case orb.MultiPolygon:
		for _, p := range g {
			if !IsEmpty(p) {
				return false
			}
		}
		return true
	case orb.Collection:
		for _, c := range g {
			if !IsEmpty(c) {
				return false
			}
		}
		return true
	}
	return false
}

// Kind names the geometry type as GeoJSON does (Point, LineString, Polygon...).
func Kind(g orb.Geometry) string {
	if g == nil {
		return ""
	}
	return g.GeoJSONType()
}

// Bounds is the union envelope of all rows; ok is false for an empty table.
func (t Table) Bounds() (orb.Bound, bool) {
	var (
		b  orb.Bound
		ok bool
	)
	for _, r := range t.Rows {
		if IsEmpty(r.Geometry) {
			continue
		}
		rb := r.Geometry.Bound()
		if !ok {
			b, ok = rb, true
			continue
		}
		b = b.Union(rb)
	}
	return b, ok
}

// Anchor is the point a marker is drawn at: the point itself, or the center
// of the geometry's envelope.
func Anchor(g orb.Geometry) orb.Point {
	if p, ok := g.(orb.Point); ok {
		return p
	}
	return g.Bound().Center()
}

func hasColumn(cols []string, c string) bool {
	for _, x := range cols {
		if x == c {
			return true
		}
	}
	return false
}
