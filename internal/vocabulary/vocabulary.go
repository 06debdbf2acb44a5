// Package vocabulary holds the closed set of graph identifiers that may be
// substituted into query templates, keyed by the labels shown to users.
package vocabulary

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var ErrUnknownLabel = errors.New("unknown vocabulary label")

type Dimension string

const (
	Industry  Dimension = "industry"
	County    Dimension = "county"
	WaterType Dimension = "water_type"
)

type Term struct {
	Label string `yaml:"label" json:"label"`
	ID    string `yaml:"id" json:"id"`
}

type Vocabulary struct {
	Industries []Term `yaml:"industries" json:"industries"`
	Counties   []Term `yaml:"counties" json:"counties"`
	WaterTypes []Term `yaml:"water_types" json:"water_types"`
}

// Default returns the embedded catalog.
func Default() *Vocabulary {
	v, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("vocabulary: embedded catalog: %v", err))
	}
	return v
}

// Load reads a catalog file; an empty path yields the embedded default.
func Load(path string) (*Vocabulary, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary %q: %w", path, err)
	}
	v, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %q: %w", path, err)
	}
	return v, nil
}

func Parse(b []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	for _, d := range []Dimension{Industry, County, WaterType} {
		if err := validateTerms(d, v.Terms(d)); err != nil {
			return nil, err
		}
	}
	return &v, nil
}

var localPartPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.\-]*$`)

// ValidID reports whether id is a prefixed name over a pinned prefix with a
// local part that cannot carry SPARQL syntax.
func ValidID(id string) bool {
	prefix, local, ok := strings.Cut(id, ":")
	if !ok {
		return false
	}
	if _, known := Prefixes[prefix]; !known {
		return false
	}
	return localPartPattern.MatchString(local)
}

func validateTerms(d Dimension, terms []Term) error {
	seen := make(map[string]struct{}, len(terms))
	for i, t := range terms {
		label := strings.TrimSpace(t.Label)
		if label == "" {
			return fmt.Errorf("%s term %d: empty label", d, i)
		}
		if _, dup := seen[label]; dup {
			return fmt.Errorf("%s term %d: duplicate label %q", d, i, label)
		}
		seen[label] = struct{}{}
		if !ValidID(t.ID) {
			return fmt.Errorf("%s term %q: invalid identifier %q", d, label, t.ID)
		}
	}
	return nil
}

func (v *Vocabulary) Terms(d Dimension) []Term {
	switch d {
	case Industry:
		return v.Industries
	case County:
		return v.Counties
	case WaterType:
		return v.WaterTypes
	default:
		return nil
	}
}

func (v *Vocabulary) Labels(d Dimension) []string {
	terms := v.Terms(d)
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, strings.TrimSpace(t.Label))
	}
	return out
}

func (v *Vocabulary) IDs(d Dimension) []string {
	terms := v.Terms(d)
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, t.ID)
	}
	return out
}

// Resolve maps labels to identifiers in input order, dropping repeats.
// A label outside the catalog is an error; it is never passed through.
func (v *Vocabulary) Resolve(d Dimension, labels []string) ([]string, error) {
	terms := v.Terms(d)
	byLabel := make(map[string]string, len(terms))
	for _, t := range terms {
		byLabel[strings.TrimSpace(t.Label)] = t.ID
	}
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		id, ok := byLabel[strings.TrimSpace(l)]
		if !ok {
			return nil, fmt.Errorf("%w: %s %q", ErrUnknownLabel, d, l)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// Contains reports whether id is declared for dimension d.
func (v *Vocabulary) Contains(d Dimension, id string) bool {
	for _, t := range v.Terms(d) {
		if t.ID == id {
			return true
		}
	}
	return false
}

// LabelFor returns the label declared for id, given either as a prefixed
// name or as the full IRI an endpoint binds, or id itself when undeclared.
func (v *Vocabulary) LabelFor(d Dimension, id string) string {
	for _, t := range v.Terms(d) {
		if t.ID == id {
			return t.Label
		}
		if iri, ok := Expand(t.ID); ok && iri == id {
			return t.Label
		}
	}
	return id
}
