// Package results turns SPARQL JSON result documents into rectangular tables
// of decoded scalars.
package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var ErrMalformed = errors.New("malformed sparql results")

// Term is one bound RDF term as it appears in application/sparql-results+json.
type Term struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

type Binding map[string]Term

// Raw is either BindingObjects or NestedJSON.
type Raw interface {
	isRaw()
}

// BindingObjects is the typed convention: variables plus bindings already
// split into terms.
type BindingObjects struct {
	Variables []string
	Bindings  []Binding
}

// NestedJSON is a generically decoded result document; rows live under
// results.bindings.
type NestedJSON struct {
	Doc map[string]any
}

func (BindingObjects) isRaw() {}
func (NestedJSON) isRaw()     {}

type document struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results *struct {
		Bindings []Binding `json:"bindings"`
	} `json:"results"`
}

// Decode parses a result body into typed bindings.
func Decode(body []byte) (BindingObjects, error) {
	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return BindingObjects{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Results == nil {
		return BindingObjects{}, fmt.Errorf("%w: missing results.bindings", ErrMalformed)
	}
	return BindingObjects{Variables: doc.Head.Vars, Bindings: doc.Results.Bindings}, nil
}

// DecodeJSON parses a result body without interpreting it.
func DecodeJSON(body []byte) (NestedJSON, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return NestedJSON{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc == nil {
		return NestedJSON{}, fmt.Errorf("%w: empty document", ErrMalformed)
	}
	return NestedJSON{Doc: doc}, nil
}

type Record map[string]any

// Table is rectangular: every row carries every column, nil when unbound.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Record `json:"rows"`
}

func (t Table) Len() int { return len(t.Rows) }

// Normalize decodes either raw shape into a Table. Row order is preserved and
// the input is not modified.
func Normalize(raw Raw) (Table, error) {
	switch r := raw.(type) {
	case BindingObjects:
		return fromBindings(r.Variables, r.Bindings), nil
	case *BindingObjects:
		if r == nil {
			return Table{}, fmt.Errorf("%w: nil bindings", ErrMalformed)
		}
		return fromBindings(r.Variables, r.Bindings), nil
	case NestedJSON:
		return fromNested(r.Doc)
	case *NestedJSON:
		if r == nil {
			return Table{}, fmt.Errorf("%w: nil document", ErrMalformed)
		}
		return fromNested(r.Doc)
	case nil:
		return Table{}, fmt.Errorf("%w: no result", ErrMalformed)
	default:
		return Table{}, fmt.Errorf("%w: unsupported shape %T", ErrMalformed, raw)
	}
}

func fromBindings(vars []string, bindings []Binding) Table {
	cols := columns(vars, func(yield func(string)) {
		for _, b := range bindings {
			for k := range b {
				yield(k)
			}
		}
	})
	rows := make([]Record, 0, len(bindings))
	for _, b := range bindings {
		rec := make(Record, len(cols))
		for _, c := range cols {
			if term, ok := b[c]; ok {
				rec[c] = DecodeTerm(term)
			} else {
				rec[c] = nil
			}
		}
		rows = append(rows, rec)
	}
	return Table{Columns: cols, Rows: rows}
}

func fromNested(doc map[string]any) (Table, error) {
	res, ok := doc["results"].(map[string]any)
	if !ok {
		return Table{}, fmt.Errorf("%w: missing results object", ErrMalformed)
	}
	rawRows, ok := res["bindings"].([]any)
	if !ok {
		if res["bindings"] == nil {
			rawRows = nil
		} else {
			return Table{}, fmt.Errorf("%w: results.bindings is not an array", ErrMalformed)
		}
	}

	var vars []string
	if head, ok := doc["head"].(map[string]any); ok {
		if vs, ok := head["vars"].([]any); ok {
			for _, v := range vs {
				if s, ok := v.(string); ok {
					vars = append(vars, s)
				}
			}
		}
	}

	bindings := make([]Binding, 0, len(rawRows))
	for i, rr := range rawRows {
		obj, ok := rr.(map[string]any)
		if !ok {
			return Table{}, fmt.Errorf("%w: binding %d is not an object", ErrMalformed, i)
		}
		b := make(Binding, len(obj))
		for name, tv := range obj {
			tm, ok := tv.(map[string]any)
			if !ok {
				return Table{}, fmt.Errorf("%w: binding %d variable %q is not a term", ErrMalformed, i, name)
			}
			b[name] = Term{
				Type:     str(tm["type"]),
				Value:    str(tm["value"]),
				Datatype: str(tm["datatype"]),
				Lang:     str(tm["xml:lang"]),
			}
		}
		bindings = append(bindings, b)
	}
	return fromBindings(vars, bindings), nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// columns keeps declared variables first, then any undeclared keys sorted.
func columns(vars []string, keys func(yield func(string))) []string {
	out := make([]string, 0, len(vars))
	seen := make(map[string]struct{}, len(vars))
	for _, v := range vars {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	var extra []string
	keys(func(k string) {
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		extra = append(extra, k)
	})
	sort.Strings(extra)
	return append(out, extra...)
}
