package query

import (
	"fmt"
	"sort"

	"github.com/SAWGraph/public/internal/vocabulary"
)

// Probe is a canned connectivity check run from the debug surface.
type Probe struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Text        string `json:"query"`
}

var probes = map[string]Probe{
	"triple": {
		ID:          "triple",
		Title:       "Simplest triple",
		Description: "Any single triple; proves the endpoint answers at all.",
		Text: `SELECT * WHERE {
    ?s ?p ?o .
} LIMIT 1
`,
	},
	"count": {
		ID:          "count",
		Title:       "Simple COUNT",
		Description: "Counts sample points in the default graph.",
		Text: mustProbe([]string{"coso"}, `SELECT (COUNT(?s) AS ?count) WHERE {
    ?s a coso:SamplePoint .
} LIMIT 1
`),
	},
	"sample-points": {
		ID:          "sample-points",
		Title:       "Basic sample points",
		Description: "Ten sample points with geometry.",
		Text: mustProbe([]string{"geo", "coso", "rdf"}, `SELECT ?samplePoint ?spWKT WHERE {
    ?samplePoint rdf:type coso:SamplePoint;
        geo:hasGeometry/geo:asWKT ?spWKT .
} LIMIT 10
`),
	},
	"facilities": {
		ID:          "facilities",
		Title:       "Facilities only",
		Description: "Landfill facilities from the FIO repository.",
		Text: mustProbe([]string{"fio", "rdfs", "naics"}, `SELECT ?facility ?facilityName WHERE {
    SERVICE <repository:FIO> {
        ?facility fio:ofIndustry naics:NAICS-562212 ;
            rdfs:label ?facilityName .
    }
} LIMIT 10
`),
	},
	"simple-join": {
		ID:          "simple-join",
		Title:       "Simple join",
		Description: "Sample points inside level 13 S2 cells.",
		Text: mustProbe([]string{"kwg-ont", "coso", "rdf"}, `SELECT DISTINCT ?s2 ?samplePoint WHERE {
    ?s2 rdf:type kwg-ont:S2Cell_Level13 .
    ?samplePoint kwg-ont:sfWithin ?s2 ;
        rdf:type coso:SamplePoint .
} LIMIT 5
`),
	},
	"federated-join": {
		ID:          "federated-join",
		Title:       "Federated join",
		Description: "Sample points sharing an S2 cell with a landfill.",
		Text: mustProbe([]string{"naics", "kwg-ont", "coso", "rdf", "fio"}, `SELECT ?samplePoint ?facility WHERE {
    SERVICE <repository:FIO> {
        ?facility fio:ofIndustry naics:NAICS-562212 .
    }
    SERVICE <repository:Spatial> {
        ?s2 kwg-ont:sfContains ?facility ;
            rdf:type kwg-ont:S2Cell_Level13 .
    }
    ?samplePoint kwg-ont:sfWithin ?s2 ;
        rdf:type coso:SamplePoint .
} LIMIT 2
`),
	},
}

func mustProbe(prefixes []string, body string) string {
	header, err := vocabulary.PrefixHeader(prefixes...)
	if err != nil {
		panic(err)
	}
	return header + "\n" + body
}

// Probes lists the canned probes ordered by id.
func Probes() []Probe {
	out := make([]Probe, 0, len(probes))
	for _, p := range probes {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func LookupProbe(id string) (Probe, error) {
	p, ok := probes[id]
	if !ok {
		return Probe{}, fmt.Errorf("unknown probe %q", id)
	}
	return p, nil
}
