package results

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"
)

const sampleBody = `{
  "head": {"vars": ["samplePoint", "spWKT", "resultCount", "Max", "unit"]},
  "results": {"bindings": [
    {
      "samplePoint": {"type": "uri", "value": "http://example.org/sp/1"},
      "spWKT": {"type": "literal", "datatype": "http://www.opengis.net/ont/geosparql#wktLiteral", "value": "POINT (-69.1 44.2)"},
      "resultCount": {"type": "literal", "datatype": "http://www.w3.org/2001/XMLSchema#integer", "value": "7"},
      "Max": {"type": "literal", "datatype": "http://www.w3.org/2001/XMLSchema#decimal", "value": "12.75"},
      "unit": {"type": "literal", "value": "ng/L"}
    },
    {
      "samplePoint": {"type": "uri", "value": "http://example.org/sp/2"},
      "spWKT": {"type": "literal", "value": "POINT (-68.9 44.9)"}
    }
  ]}
}`

func TestDecodeAndNormalize_TypedBindings(t *testing.T) {
	raw, err := Decode([]byte(sampleBody))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	tbl, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	wantCols := []string{"samplePoint", "spWKT", "resultCount", "Max", "unit"}
	if !reflect.DeepEqual(tbl.Columns, wantCols) {
		t.Fatalf("columns=%v want %v", tbl.Columns, wantCols)
	}
	if tbl.Len() != 2 {
		t.Fatalf("rows=%d want 2", tbl.Len())
	}
	first := tbl.Rows[0]
	if first["resultCount"] != int64(7) {
		t.Fatalf("resultCount=%#v want int64(7)", first["resultCount"])
	}
	if f, ok := first["Max"].(float64); !ok || math.Abs(f-12.75) > 1e-9 {
		t.Fatalf("Max=%#v want 12.75", first["Max"])
	}
	if first["unit"] != "ng/L" {
		t.Fatalf("unit=%#v", first["unit"])
	}

	second := tbl.Rows[1]
	for _, c := range wantCols {
		if _, present := second[c]; !present {
			t.Fatalf("row 2 missing column %q", c)
		}
	}
	if second["Max"] != nil || second["unit"] != nil {
		t.Fatalf("unbound columns must be nil, got %#v", second)
	}
}

func TestNormalize_ShapesAgree(t *testing.T) {
	typed, err := Decode([]byte(sampleBody))
	if err != nil {
		t.Fatal(err)
	}
	nested, err := DecodeJSON([]byte(sampleBody))
	if err != nil {
		t.Fatal(err)
	}
	a, err := Normalize(typed)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Normalize(nested)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("shapes disagree:\n%#v\n%#v", a, b)
	}
	c, err := Normalize(&nested)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, c) {
		t.Fatalf("pointer shape disagrees")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw, err := Decode([]byte(sampleBody))
	if err != nil {
		t.Fatal(err)
	}
	a, _ := Normalize(raw)
	b, _ := Normalize(raw)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("normalize is not idempotent")
	}
	if a.Rows[0]["samplePoint"] != "http://example.org/sp/1" || a.Rows[1]["samplePoint"] != "http://example.org/sp/2" {
		t.Fatalf("row order not preserved")
	}
}

func TestNormalize_NumericRoundTrip(t *testing.T) {
	values := []float64{0, 1, -3.5, 0.000123, 70.1, 1e6, 123456.789}
	var b strings.Builder
	b.WriteString(`{"head":{"vars":["v"]},"results":{"bindings":[`)
	for i, v := range values {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"v":{"type":"literal","datatype":"http://www.w3.org/2001/XMLSchema#double","value":"%v"}}`, v)
	}
	b.WriteString(`]}}`)

	raw, err := DecodeJSON([]byte(b.String()))
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := Normalize(raw)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range values {
		got, ok := AsFloat(tbl.Rows[i]["v"])
		if !ok || math.Abs(got-want) > 1e-9 {
			t.Fatalf("row %d: got %v want %v", i, tbl.Rows[i]["v"], want)
		}
	}
}

func TestNormalize_EmptyBindings(t *testing.T) {
	raw, err := Decode([]byte(`{"head":{"vars":["facility","facWKT"]},"results":{"bindings":[]}}`))
	if err != nil {
		t.Fatal(err)
	}
	tbl, err := Normalize(raw)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Len() != 0 || len(tbl.Columns) != 2 {
		t.Fatalf("unexpected table %+v", tbl)
	}
}

func TestNormalize_ColumnsWithoutHead(t *testing.T) {
	raw := BindingObjects{Bindings: []Binding{
		{"b": {Type: "literal", Value: "1"}},
		{"a": {Type: "literal", Value: "2"}},
	}}
	tbl, err := Normalize(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(tbl.Columns, []string{"a", "b"}) {
		t.Fatalf("columns=%v", tbl.Columns)
	}
	if tbl.Rows[0]["a"] != nil || tbl.Rows[1]["b"] != nil {
		t.Fatalf("expected nil fill: %#v", tbl.Rows)
	}
}

func TestMalformed(t *testing.T) {
	bodies := []string{
		`not json`,
		`{"head":{"vars":[]}}`,
		`{"boolean": true}`,
	}
	for _, body := range bodies {
		if _, err := Decode([]byte(body)); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%q): expected ErrMalformed, got %v", body, err)
		}
	}
	nested := []NestedJSON{
		{Doc: map[string]any{"head": map[string]any{}}},
		{Doc: map[string]any{"results": map[string]any{"bindings": "x"}}},
		{Doc: map[string]any{"results": map[string]any{"bindings": []any{"row"}}}},
	}
	for i, n := range nested {
		if _, err := Normalize(n); !errors.Is(err, ErrMalformed) {
			t.Errorf("nested %d: expected ErrMalformed, got %v", i, err)
		}
	}
	if _, err := Normalize(nil); !errors.Is(err, ErrMalformed) {
		t.Errorf("nil raw: expected ErrMalformed, got %v", err)
	}
}

func TestDecodeTerm(t *testing.T) {
	cases := []struct {
		term Term
		want any
	}{
		{Term{Type: "literal", Datatype: xsd + "int", Value: "42"}, int64(42)},
		{Term{Type: "typed-literal", Datatype: xsd + "float", Value: "2.5"}, 2.5},
		{Term{Type: "literal", Datatype: xsd + "boolean", Value: "true"}, true},
		{Term{Type: "literal", Datatype: xsd + "date", Value: "2021-06-30"}, time.Date(2021, 6, 30, 0, 0, 0, 0, time.UTC)},
		{Term{Type: "literal", Datatype: xsd + "dateTime", Value: "2021-06-30T10:00:00Z"}, time.Date(2021, 6, 30, 10, 0, 0, 0, time.UTC)},
		{Term{Type: "literal", Datatype: xsd + "integer", Value: "n/a"}, "n/a"},
		{Term{Type: "literal", Datatype: xsd + "integer", Value: "123456789012345678901234567890"}, 1.2345678901234568e29},
		{Term{Type: "literal", Datatype: xsd + "double", Value: "NaN"}, "NaN"},
		{Term{Type: "literal", Datatype: xsd + "double", Value: "INF"}, "INF"},
		{Term{Type: "literal", Datatype: xsd + "float", Value: "-INF"}, "-INF"},
		{Term{Type: "literal", Datatype: xsd + "decimal", Value: "1e400"}, "1e400"},
		{Term{Type: "literal", Datatype: xsd + "string", Value: "PFOA"}, "PFOA"},
		{Term{Type: "literal", Value: "12"}, "12"},
		{Term{Type: "uri", Value: "http://w3id.org/fio/v1/naics#NAICS-562212"}, "http://w3id.org/fio/v1/naics#NAICS-562212"},
		{Term{Type: "bnode", Value: "b0"}, "b0"},
	}
	for _, c := range cases {
		got := DecodeTerm(c.term)
		if gt, ok := got.(time.Time); ok {
			if !gt.Equal(c.want.(time.Time)) {
				t.Errorf("%+v: got %v want %v", c.term, got, c.want)
			}
			continue
		}
		if got != c.want {
			t.Errorf("%+v: got %#v want %#v", c.term, got, c.want)
		}
	}
}

func TestTruncateDisplay(t *testing.T) {
	items := make([]string, 25)
	for i := range items {
		items[i] = fmt.Sprintf("PFOS: %d ng/L", i)
	}
	full := strings.Join(items, "\n")
	rec := Record{"results": full, "resultCount": int64(25)}

	shown := DisplayRecord(rec, DisplayItems)
	lines := strings.Split(shown["results"].(string), "\n")
	if len(lines) != 21 || lines[20] != Ellipsis || lines[19] != items[19] {
		t.Fatalf("display lines=%d last=%q", len(lines), lines[len(lines)-1])
	}
	if rec["results"] != full || SubItems(rec["results"].(string)) != 25 {
		t.Fatalf("underlying record must keep all 25 items")
	}
	if shown["resultCount"] != int64(25) {
		t.Fatalf("non-string cells pass through")
	}
	if got := TruncateDisplay("a\nb", 20); got != "a\nb" {
		t.Fatalf("short value changed: %q", got)
	}
}

func TestAsString(t *testing.T) {
	if AsString(nil) != "" || AsString(int64(3)) != "3" || AsString(2.5) != "2.5" || AsString(true) != "true" {
		t.Fatal("unexpected scalar rendering")
	}
	if AsString(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)) != "2020-01-02" {
		t.Fatal("date rendering")
	}
}
