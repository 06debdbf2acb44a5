package vocabulary

import (
	"fmt"
	"strings"
)

// Prefixes pins every namespace the query templates may use.
var Prefixes = map[string]string{
	"dcterms":   "http://purl.org/dc/terms/",
	"qudt":      "http://qudt.org/schema/qudt/",
	"skos":      "http://www.w3.org/2004/02/skos/core#",
	"geo":       "http://www.opengis.net/ont/geosparql#",
	"rdfs":      "http://www.w3.org/2000/01/rdf-schema#",
	"naics":     "http://w3id.org/fio/v1/naics#",
	"spatial":   "http://purl.org/spatialai/spatial/spatial-full#",
	"kwgr":      "http://stko-kwg.geog.ucsb.edu/lod/resource/",
	"kwg-ont":   "http://stko-kwg.geog.ucsb.edu/lod/ontology/",
	"coso":      "http://w3id.org/coso/v1/contaminoso#",
	"rdf":       "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
	"fio":       "http://w3id.org/fio/v1/fio#",
	"owl":       "http://www.w3.org/2002/07/owl#",
	"hyf":       "https://www.opengis.net/def/schema/hy_features/hyf/",
	"nhdplusv2": "http://nhdplusv2.spatialai.org/v1/nhdplusv2#",
	"hyfo":      "http://hyfo.spatialai.org/v1/hyfo#",
}

// PrefixHeader renders PREFIX lines for names in the given order.
func PrefixHeader(names ...string) (string, error) {
	var b strings.Builder
	for _, n := range names {
		iri, ok := Prefixes[n]
		if !ok {
			return "", fmt.Errorf("unpinned prefix %q", n)
		}
		fmt.Fprintf(&b, "PREFIX %s: <%s>\n", n, iri)
	}
	return b.String(), nil
}

// Expand turns a prefixed name into a full IRI.
func Expand(id string) (string, bool) {
	prefix, local, ok := strings.Cut(id, ":")
	if !ok {
		return "", false
	}
	iri, ok := Prefixes[prefix]
	if !ok {
		return "", false
	}
	return iri + local, true
}
