// Package mapview composes geometry tables into toggleable map layers
// (GeoJSON plus Leaflet style hints) and summary tables.
package mapview

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/SAWGraph/public/internal/geo"
	"github.com/SAWGraph/public/internal/sparql/results"
)

type Role string

const (
	RolePoints     Role = "points"
	RoleShapes     Role = "shapes"
	RoleBoundaries Role = "boundaries"
)

type PopupField struct {
	Label  string `json:"label"`
	Column string `json:"column"`
}

// LayerSet is one named geometry table plus how to draw it.
type LayerSet struct {
	Name            string
	Title           string
	Table           geo.Table
	Role            Role
	CategoryColumn  string
	MagnitudeColumn string
	ItemsColumn     string
	Popup           []PopupField
	Hidden          bool
}

type PathStyle struct {
	Color       string  `json:"color"`
	FillColor   string  `json:"fillColor,omitempty"`
	Weight      float64 `json:"weight"`
	FillOpacity float64 `json:"fillOpacity"`
	DashArray   string  `json:"dashArray,omitempty"`
	Radius      float64 `json:"radius,omitempty"`
}

type Layer struct {
	Name     string                     `json:"name"`
	Set      string                     `json:"set"`
	Role     Role                       `json:"role"`
	Category string                     `json:"category,omitempty"`
	Visible  bool                       `json:"visible"`
	Style    PathStyle                  `json:"style"`
	Features *geojson.FeatureCollection `json:"features"`
}

type Map struct {
	// Center is [lat, lng], the order Leaflet expects.
	Center       [2]float64 `json:"center"`
	Zoom         int        `json:"zoom"`
	LayerControl bool       `json:"layerControl"`
	Layers       []Layer    `json:"layers"`
}

// Compose builds the layers for sets in order. Boundary layers come first so
// markers draw above them.
func Compose(sets []LayerSet, style Style) Map {
	var layers []Layer
	for _, s := range sets {
		if s.Role == RoleBoundaries {
			layers = append(layers, layersFor(s, style)...)
		}
	}
	for _, s := range sets {
		if s.Role != RoleBoundaries {
			layers = append(layers, layersFor(s, style)...)
		}
	}

	m := Map{Layers: layers, LayerControl: len(layers) >= 2}
	center, zoom := viewport(sets, style)
	m.Center = [2]float64{center.Lat(), center.Lon()}
	m.Zoom = zoom
	return m
}

func viewport(sets []LayerSet, style Style) (orb.Point, int) {
	var (
		b  orb.Bound
		ok bool
	)
	for _, s := range sets {
		if s.Role != RoleBoundaries {
			continue
		}
		sb, has := s.Table.Bounds()
		if !has {
			continue
		}
		if !ok {
			b, ok = sb, true
		} else {
			b = b.Union(sb)
		}
	}
	if ok {
		return b.Center(), style.BoundsZoom
	}
	return style.FallbackCenter, style.FallbackZoom
}

// layersFor splits a set into one layer per distinct category value, in
// first-seen order. Sets without a category column yield a single layer.
func layersFor(s LayerSet, style Style) []Layer {
	if s.Table.Len() == 0 {
		return nil
	}
	title := s.Title
	if title == "" {
		title = s.Name
	}

	var (
		order []string
		byCat = map[string]*Layer{}
	)
	for _, rec := range s.Table.Rows {
		if geo.IsEmpty(rec.Geometry) {
			continue
		}
		cat := ""
		if s.CategoryColumn != "" {
			cat = results.AsString(rec.Values[s.CategoryColumn])
			if cat == "" {
				cat = "Other"
			}
		}
		l, ok := byCat[cat]
		if !ok {
			l = newLayer(s, title, cat, style)
			byCat[cat] = l
			order = append(order, cat)
		}
		l.Features.Append(feature(s, rec, l.Style, style))
	}

	if len(order) == 0 {
		return nil
	}
	out := make([]Layer, 0, len(order))
	for _, c := range order {
		out = append(out, *byCat[c])
	}
	return out
}

func newLayer(s LayerSet, title, cat string, style Style) *Layer {
	l := &Layer{
		Name:     title,
		Set:      s.Name,
		Role:     s.Role,
		Category: cat,
		Visible:  !s.Hidden,
		Features: geojson.NewFeatureCollection(),
	}
	switch s.Role {
	case RoleBoundaries:
		if cat != "" {
			l.Name = "County: " + cat
		}
		l.Style = PathStyle{Color: style.BoundaryColor, FillColor: "none", Weight: 2, DashArray: "5, 5"}
	case RoleShapes:
		l.Style = PathStyle{Color: style.ShapeColor, FillColor: style.ShapeColor, Weight: 2, FillOpacity: 0.3}
	default:
		color := style.PointColor
		if s.CategoryColumn != "" {
			color = style.Color(cat)
			l.Name = cat
		}
		l.Style = PathStyle{Color: color, FillColor: color, Weight: 2, FillOpacity: 0.6, Radius: DefaultRadius}
	}
	return l
}

func feature(s LayerSet, rec geo.Record, ls PathStyle, style Style) *geojson.Feature {
	g := rec.Geometry
	if s.Role == RolePoints {
		g = geo.Anchor(g)
	}
	f := geojson.NewFeature(g)
	if s.Role == RolePoints {
		r := ls.Radius
		if s.MagnitudeColumn != "" {
			v, ok := results.AsFloat(rec.Values[s.MagnitudeColumn])
			if !ok {
				v = -1
			}
			r = Radius(v)
		}
		f.Properties["radius"] = r
	}
	if popup := popupLines(s.Popup, rec.Values, style.DisplayItems); len(popup) > 0 {
		f.Properties["popup"] = popup
	}
	return f
}

type PopupLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// popupLines renders bound popup fields; unbound values are skipped.
func popupLines(fields []PopupField, rec results.Record, limit int) []PopupLine {
	out := make([]PopupLine, 0, len(fields))
	for _, f := range fields {
		v := results.AsString(rec[f.Column])
		if v == "" {
			continue
		}
		out = append(out, PopupLine{Label: f.Label, Value: results.TruncateDisplay(v, limit)})
	}
	return out
}
