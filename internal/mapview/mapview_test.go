package mapview

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/SAWGraph/public/internal/geo"
	h3mapper "github.com/SAWGraph/public/internal/mapper/h3"
	"github.com/SAWGraph/public/internal/sparql/results"
)

func mustAttach(t *testing.T, col string, cols []string, rows ...results.Record) geo.Table {
	t.Helper()
	gt, err := geo.Attach(results.Table{Columns: cols, Rows: rows}, col)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	return gt
}

func facilitySet(t *testing.T) LayerSet {
	cols := []string{"facility", "facWKT", "facilityName", "industryName"}
	return LayerSet{
		Name:           "facilities",
		Title:          "Facilities",
		Role:           RolePoints,
		CategoryColumn: "industryName",
		Popup:          []PopupField{{Label: "Facility", Column: "facilityName"}, {Label: "Industry", Column: "industryName"}},
		Table: mustAttach(t, "facWKT", cols,
			results.Record{"facility": "f1", "facWKT": "POINT (-69.7 44.3)", "facilityName": "Augusta Landfill", "industryName": "Solid Waste Landfill"},
			results.Record{"facility": "f2", "facWKT": "POINT (-68.8 44.8)", "facilityName": "Bangor ANG", "industryName": "National Security"},
			results.Record{"facility": "f3", "facWKT": "POINT (-70.2 43.6)", "facilityName": "Scrapyard", "industryName": "Scrap Metal Recycling"},
			results.Record{"facility": "f4", "facWKT": "POINT (-69.9 44.1)", "facilityName": "Landfill B", "industryName": "Solid Waste Landfill"},
		),
	}
}

func TestRadius(t *testing.T) {
	cases := map[float64]float64{
		5:   5,
		9.5: 9.5,
		12:  12,
		50:  20,
		0:   DefaultRadius,
		-3:  DefaultRadius,
	}
	for in, want := range cases {
		if got := Radius(in); got != want {
			t.Errorf("Radius(%v)=%v want %v", in, got, want)
		}
	}
	if Radius(math.NaN()) != DefaultRadius || Radius(math.Inf(1)) != DefaultRadius {
		t.Errorf("non-finite values must use default radius")
	}
}

func TestColor_UnknownCategoryIsGray(t *testing.T) {
	s := DefaultStyle()
	if s.Color("Solid Waste Landfill") != "brown" || s.Color("National Security") != "darkblue" {
		t.Fatalf("known categories")
	}
	if s.Color("Scrap Metal Recycling") != "gray" {
		t.Fatalf("unknown category should be gray, got %q", s.Color("Scrap Metal Recycling"))
	}
}

func TestCompose_CategorySubLayers(t *testing.T) {
	m := Compose([]LayerSet{facilitySet(t)}, DefaultStyle())
	if len(m.Layers) != 3 {
		t.Fatalf("layers=%d want 3", len(m.Layers))
	}
	want := []struct {
		name, color string
		n           int
	}{
		{"Solid Waste Landfill", "brown", 2},
		{"National Security", "darkblue", 1},
		{"Scrap Metal Recycling", "gray", 1},
	}
	for i, w := range want {
		l := m.Layers[i]
		if l.Name != w.name || l.Style.Color != w.color || len(l.Features.Features) != w.n {
			t.Fatalf("layer %d = %s/%s/%d want %+v", i, l.Name, l.Style.Color, len(l.Features.Features), w)
		}
	}
	if !m.LayerControl {
		t.Fatalf("layer control expected with 3 layers")
	}
	if m.Zoom != DefaultZoom || m.Center != [2]float64{45.2538, -69.4455} {
		t.Fatalf("fallback viewport expected, got %v z%d", m.Center, m.Zoom)
	}
	f := m.Layers[0].Features.Features[0]
	if f.Properties["radius"] != DefaultRadius {
		t.Fatalf("facility radius=%v", f.Properties["radius"])
	}
}

func TestCompose_SingleLayerHasNoControl(t *testing.T) {
	cols := []string{"samplePoint", "spWKT", "Max", "results"}
	set := LayerSet{
		Name:            "samplepoints",
		Title:           "Sample Points",
		Role:            RolePoints,
		MagnitudeColumn: "Max",
		Table: mustAttach(t, "spWKT", cols,
			results.Record{"samplePoint": "a", "spWKT": "POINT (-69 44)", "Max": 5.0, "results": "x"},
			results.Record{"samplePoint": "b", "spWKT": "POINT (-69.1 44.1)", "Max": int64(50), "results": "y"},
			results.Record{"samplePoint": "c", "spWKT": "POINT (-69.2 44.2)", "Max": nil, "results": nil},
		),
	}
	m := Compose([]LayerSet{set}, DefaultStyle())
	if len(m.Layers) != 1 || m.LayerControl {
		t.Fatalf("one layer without control expected, got %d control=%v", len(m.Layers), m.LayerControl)
	}
	fs := m.Layers[0].Features.Features
	radii := []float64{5, 20, DefaultRadius}
	for i, r := range radii {
		if fs[i].Properties["radius"] != r {
			t.Fatalf("feature %d radius=%v want %v", i, fs[i].Properties["radius"], r)
		}
	}
	if m.Layers[0].Style.Color != "DarkOrange" {
		t.Fatalf("sample color=%s", m.Layers[0].Style.Color)
	}
}

func TestCompose_BoundariesDriveViewport(t *testing.T) {
	counties := LayerSet{
		Name:           "counties",
		Role:           RoleBoundaries,
		CategoryColumn: "countyName",
		Table: mustAttach(t, "countyWKT", []string{"county", "countyWKT", "countyName"},
			results.Record{"county": "k", "countyWKT": "POLYGON ((-69.4 43.9, -68.9 43.9, -68.9 44.3, -69.4 44.3, -69.4 43.9))", "countyName": "Knox"},
			results.Record{"county": "p", "countyWKT": "POLYGON ((-69.0 44.6, -68.0 44.6, -68.0 45.9, -69.0 45.9, -69.0 44.6))", "countyName": "Penobscot"},
		),
	}
	fac := facilitySet(t)
	fac.Hidden = true
	m := Compose([]LayerSet{fac, counties}, DefaultStyle())

	if m.Zoom != BoundsZoom {
		t.Fatalf("zoom=%d want %d", m.Zoom, BoundsZoom)
	}
	if math.Abs(m.Center[0]-44.9) > 1e-9 || math.Abs(m.Center[1]+68.7) > 1e-9 {
		t.Fatalf("center=%v want envelope center [44.9 -68.7]", m.Center)
	}
	if m.Layers[0].Name != "County: Knox" || m.Layers[0].Style.DashArray != "5, 5" {
		t.Fatalf("boundary layers should come first, got %q", m.Layers[0].Name)
	}
	if m.Layers[2].Visible {
		t.Fatalf("hidden set should produce hidden layers")
	}

	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"type":"FeatureCollection"`) {
		t.Fatalf("layers should carry GeoJSON: %s", b[:200])
	}
}

func TestCompose_EmptySetsUseFallback(t *testing.T) {
	m := Compose([]LayerSet{{Name: "samplepoints", Role: RolePoints}}, DefaultStyle())
	if len(m.Layers) != 0 || m.LayerControl || m.Zoom != DefaultZoom {
		t.Fatalf("unexpected map %+v", m)
	}
}

func TestSummaries_TruncateDisplayKeepCounts(t *testing.T) {
	items := make([]string, 25)
	for i := range items {
		items[i] = "PFOA: 1 ng/L"
	}
	set := LayerSet{
		Name:        "samplepoints",
		Role:        RolePoints,
		ItemsColumn: "results",
		Table: mustAttach(t, "spWKT", []string{"samplePoint", "spWKT", "results"},
			results.Record{"samplePoint": "a", "spWKT": "POINT (-69.4455 45.2538)", "results": strings.Join(items, "\n")},
			results.Record{"samplePoint": "b", "spWKT": "POINT (-69.4455 45.2538)", "results": "PFOS: 2 ng/L"},
		),
	}
	cells, err := h3mapper.New(8)
	if err != nil {
		t.Fatal(err)
	}
	sums, err := Summaries([]LayerSet{set}, DefaultStyle(), cells)
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	s := sums[0]
	if s.Count != 2 || s.Items != 26 {
		t.Fatalf("count=%d items=%d want 2/26", s.Count, s.Items)
	}
	if s.Cells != 1 || s.H3Res != 8 {
		t.Fatalf("cells=%d res=%d want 1/8", s.Cells, s.H3Res)
	}
	for _, c := range s.Columns {
		if c == "spWKT" {
			t.Fatalf("geometry column must be dropped")
		}
	}
	if _, ok := s.Records[0]["spWKT"]; ok {
		t.Fatalf("geometry value must be dropped")
	}
	shown := strings.Split(s.Records[0]["results"].(string), "\n")
	if len(shown) != 21 || shown[20] != "..." {
		t.Fatalf("display lines=%d", len(shown))
	}
	if strings.Count(set.Table.Rows[0].Values["results"].(string), "\n") != 24 {
		t.Fatalf("underlying record was modified")
	}
}

func TestCompose_EmptyGeometryIsCountedNotDrawn(t *testing.T) {
	set := LayerSet{
		Name: "samplepoints",
		Role: RolePoints,
		Table: mustAttach(t, "spWKT", []string{"samplePoint", "spWKT"},
			results.Record{"samplePoint": "a", "spWKT": "POINT EMPTY"},
			results.Record{"samplePoint": "b", "spWKT": "POINT Z (-69.7 44.3 10)"},
		),
	}
	m := Compose([]LayerSet{set}, DefaultStyle())
	if len(m.Layers) != 1 || len(m.Layers[0].Features.Features) != 1 {
		t.Fatalf("want one layer with one feature, got %+v", m.Layers)
	}

	cells, err := h3mapper.New(8)
	if err != nil {
		t.Fatal(err)
	}
	sums, err := Summaries([]LayerSet{set}, DefaultStyle(), cells)
	if err != nil {
		t.Fatalf("Summaries: %v", err)
	}
	if sums[0].Count != 2 || sums[0].Cells != 1 {
		t.Fatalf("count=%d cells=%d want 2/1", sums[0].Count, sums[0].Cells)
	}
}
