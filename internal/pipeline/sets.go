package pipeline

import (
	"github.com/SAWGraph/public/internal/geo"
	"github.com/SAWGraph/public/internal/mapview"
	"github.com/SAWGraph/public/internal/sparql/query"
	"github.com/SAWGraph/public/internal/sparql/results"
	"github.com/SAWGraph/public/internal/vocabulary"
)

// layerSet decides how a query set is drawn.
func layerSet(q query.Query, primary query.Shape, t geo.Table) mapview.LayerSet {
	ls := mapview.LayerSet{
		Name:  q.Set,
		Title: query.Title(q.Shape),
		Table: t,
	}
	switch q.Set {
	case query.SetSamplePoints:
		ls.Role = mapview.RolePoints
		ls.MagnitudeColumn = "Max"
		ls.ItemsColumn = "results"
		ls.Popup = []mapview.PopupField{
			{Label: "Sample point", Column: "samplePoint"},
			{Label: "Samples", Column: "samples"},
			{Label: "Sample", Column: "sampleId"},
			{Label: "Max", Column: "Max"},
			{Label: "Unit", Column: "unit"},
			{Label: "Results", Column: "results"},
		}
	case query.SetSurfaceWater:
		ls.Role = mapview.RoleShapes
		ls.Popup = []mapview.PopupField{
			{Label: "Name", Column: "surfacewatername"},
			{Label: "Type", Column: "waterType"},
			{Label: "Reach code", Column: "reachCode"},
			{Label: "COMID", Column: "COMID"},
		}
	case query.SetFacilities:
		ls.Role = mapview.RolePoints
		ls.CategoryColumn = "industryName"
		ls.Popup = []mapview.PopupField{
			{Label: "Facility", Column: "facilityName"},
			{Label: "Industry", Column: "industryName"},
		}
		// Water views keep facilities available but switched off.
		ls.Hidden = primary == query.ShapeSurfaceWater || primary == query.ShapeDownstreamWater
	case query.SetCounties:
		ls.Role = mapview.RoleBoundaries
		ls.CategoryColumn = "countyName"
	}
	return ls
}

// catalogLabels names facility industries by their catalog label so category
// colors follow the vocabulary rather than the endpoint's rdfs:label.
func catalogLabels(t geo.Table, v *vocabulary.Vocabulary) {
	for _, rec := range t.Rows {
		iri := results.AsString(rec.Values["industry"])
		if iri == "" {
			continue
		}
		if l := v.LabelFor(vocabulary.Industry, iri); l != iri {
			rec.Values["industryName"] = l
		}
	}
}
