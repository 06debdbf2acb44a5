package query

// Template bodies. The only substitution points are the VALUES blocks, which
// are rendered from vocabulary identifiers, and the numeric LIMIT.

var samplePrefixes = []string{
	"dcterms", "qudt", "skos", "geo", "rdfs", "naics", "spatial",
	"kwgr", "kwg-ont", "coso", "rdf", "fio", "owl",
}

var waterPrefixes = []string{
	"dcterms", "geo", "rdfs", "naics", "spatial", "kwgr", "kwg-ont",
	"coso", "rdf", "fio", "owl", "hyf", "nhdplusv2", "hyfo",
}

const nearFacilitiesFull = `
SELECT DISTINCT ?samplePoint ?spWKT ?sample
    (GROUP_CONCAT(DISTINCT ?sampleId; separator="; ") AS ?samples)
    (COUNT(DISTINCT ?subVal) AS ?resultCount)
    (MAX(?result) AS ?Max) ?unit
    (GROUP_CONCAT(DISTINCT ?subVal; separator="\n") AS ?results)
WHERE {
    SERVICE <repository:FIO> {
        ?s2neighbor kwg-ont:sfContains ?facility.
        ?facility fio:ofIndustry ?industry.
        VALUES ?industry {{.Industries}}
    }
    SERVICE <repository:Spatial> {
        ?s2 kwg-ont:sfTouches|owl:sameAs ?s2neighbor.
        ?s2neighbor rdf:type kwg-ont:S2Cell_Level13.
    }

    ?samplePoint kwg-ont:sfWithin ?s2;
        rdf:type coso:SamplePoint;
        geo:hasGeometry/geo:asWKT ?spWKT.
    ?s2 rdf:type kwg-ont:S2Cell_Level13.

    ?sample coso:fromSamplePoint ?samplePoint;
        dcterms:identifier ?sampleId;
        coso:sampleOfMaterialType ?type.
    ?type rdfs:label ?type_label.

    ?observation rdf:type coso:ContaminantObservation;
        coso:observedAtSamplePoint ?samplePoint;
        coso:ofSubstance ?substance;
        coso:hasResult/coso:measurementValue ?result;
        coso:hasResult/coso:measurementUnit/qudt:symbol ?unit.
    ?substance skos:altLabel ?substance_label.

    BIND((CONCAT(?substance_label, ": ", str(?result), " ", ?unit)) AS ?subVal)
}
GROUP BY ?samplePoint ?spWKT ?sample ?unit
{{with .Limit}}LIMIT {{.}}
{{end}}`

const countySamplesFull = `
SELECT DISTINCT ?samplePoint ?spWKT ?sample
    (GROUP_CONCAT(DISTINCT ?sampleId; separator="; ") AS ?samples)
    (COUNT(DISTINCT ?subVal) AS ?resultCount)
    (MAX(?result) AS ?Max) ?unit
    (GROUP_CONCAT(DISTINCT ?subVal; separator="\n") AS ?results)
WHERE {
    SERVICE <repository:FIO> {
        ?s2neighbor kwg-ont:sfContains ?facility.
        ?facility fio:ofIndustry ?industry.
        VALUES ?industry {{.Industries}}
    }
    SERVICE <repository:Spatial> {
        ?s2 kwg-ont:sfTouches|owl:sameAs ?s2neighbor.
        ?s2neighbor rdf:type kwg-ont:S2Cell_Level13.
        ?countySub rdf:type kwg-ont:AdministrativeRegion_3;
            kwg-ont:administrativePartOf ?county.
        VALUES ?county {{.Counties}}
    }

    ?samplePoint kwg-ont:sfWithin ?s2;
        kwg-ont:sfWithin ?countySub;
        rdf:type coso:SamplePoint;
        geo:hasGeometry/geo:asWKT ?spWKT.
    ?s2 rdf:type kwg-ont:S2Cell_Level13.

    ?sample coso:fromSamplePoint ?samplePoint;
        dcterms:identifier ?sampleId;
        coso:sampleOfMaterialType ?type.
    ?type rdfs:label ?type_label.

    ?observation rdf:type coso:ContaminantObservation;
        coso:observedAtSamplePoint ?samplePoint;
        coso:ofSubstance ?substance;
        coso:hasResult/coso:measurementValue ?result;
        coso:hasResult/coso:measurementUnit/qudt:symbol ?unit.
    ?substance skos:altLabel ?substance_label.

    BIND((CONCAT(?substance_label, ": ", str(?result), " ", ?unit)) AS ?subVal)
}
GROUP BY ?samplePoint ?spWKT ?sample ?unit
{{with .Limit}}LIMIT {{.}}
{{end}}`

// Simplified join path: facility cell only, no aggregation.
const nearFacilitiesFast = `
SELECT DISTINCT ?samplePoint ?spWKT ?sampleId WHERE {
    SERVICE <repository:FIO> {
        ?facility fio:ofIndustry ?industry.
        VALUES ?industry {{.Industries}}
    }
    SERVICE <repository:Spatial> {
        ?s2 kwg-ont:sfContains ?facility;
            rdf:type kwg-ont:S2Cell_Level13.
    }

    ?samplePoint kwg-ont:sfWithin ?s2;
        rdf:type coso:SamplePoint;
        geo:hasGeometry/geo:asWKT ?spWKT.

    OPTIONAL {
        ?sample coso:fromSamplePoint ?samplePoint;
            dcterms:identifier ?sampleId.
    }
}
LIMIT {{.Limit}}
`

const countySamplesFast = `
SELECT DISTINCT ?samplePoint ?spWKT ?sampleId WHERE {
    SERVICE <repository:FIO> {
        ?facility fio:ofIndustry ?industry.
        VALUES ?industry {{.Industries}}
    }
    SERVICE <repository:Spatial> {
        ?s2 kwg-ont:sfContains ?facility;
            rdf:type kwg-ont:S2Cell_Level13.
        ?countySub rdf:type kwg-ont:AdministrativeRegion_3;
            kwg-ont:administrativePartOf ?county.
        VALUES ?county {{.Counties}}
    }

    ?samplePoint kwg-ont:sfWithin ?s2;
        kwg-ont:sfWithin ?countySub;
        rdf:type coso:SamplePoint;
        geo:hasGeometry/geo:asWKT ?spWKT.

    OPTIONAL {
        ?sample coso:fromSamplePoint ?samplePoint;
            dcterms:identifier ?sampleId.
    }
}
LIMIT {{.Limit}}
`

const surfaceWater = `
SELECT DISTINCT ?surfacewater ?surfacewatername ?waterType ?swWKT ?reachCode ?COMID
WHERE {
    SERVICE <repository:FIO> {
        ?s2neighbor kwg-ont:sfContains ?facility.
        ?facility fio:ofIndustry ?industry.
        VALUES ?industry {{.Industries}}
    }
    SERVICE <repository:Spatial> {
        ?s2 kwg-ont:sfTouches|owl:sameAs ?s2neighbor.
        ?s2neighbor rdf:type kwg-ont:S2Cell_Level13;
            spatial:connectedTo ?countySub.
        ?countySub rdf:type kwg-ont:AdministrativeRegion_3;
            kwg-ont:administrativePartOf ?county.
        VALUES ?county {{.Counties}}
    }
    SERVICE <repository:Hydrology> {
        ?surfacewater rdf:type ?watertype;
            spatial:connectedTo ?s2neighbor;
            geo:hasGeometry/geo:asWKT ?swWKT.
        OPTIONAL {
            ?surfacewater rdfs:label ?surfacewatername;
                nhdplusv2:hasFTYPE ?waterType;
                nhdplusv2:hasCOMID ?COMID;
                nhdplusv2:hasReachCode ?reachCode.
        }
        VALUES ?watertype {{.WaterTypes}}
    }
}
{{with .Limit}}LIMIT {{.}}
{{end}}`

const downstreamWater = `
SELECT DISTINCT ?surfacewater ?surfacewatername ?waterType ?swWKT ?reachCode ?COMID
WHERE {
    SERVICE <repository:FIO> {
        ?s2neighbor kwg-ont:sfContains ?facility.
        ?facility fio:ofIndustry ?industry.
        VALUES ?industry {{.Industries}}
    }
    SERVICE <repository:Spatial> {
        ?s2 kwg-ont:sfTouches|owl:sameAs ?s2neighbor.
        ?s2neighbor rdf:type kwg-ont:S2Cell_Level13;
            spatial:connectedTo ?countySub.
        ?countySub rdf:type kwg-ont:AdministrativeRegion_3;
            kwg-ont:administrativePartOf ?county.
        VALUES ?county {{.Counties}}
    }
    SERVICE <repository:Hydrology> {
        ?stream rdf:type hyfo:WaterFeatureRepresentation;
            spatial:connectedTo ?s2neighbor;
            hyf:downstreamWaterBody+ ?surfacewater.
        ?surfacewater geo:hasGeometry/geo:asWKT ?swWKT.
        OPTIONAL {
            ?surfacewater rdfs:label ?surfacewatername;
                nhdplusv2:hasFTYPE ?waterType;
                nhdplusv2:hasCOMID ?COMID;
                nhdplusv2:hasReachCode ?reachCode.
        }
    }
}
{{with .Limit}}LIMIT {{.}}
{{end}}`

const facilities = `
SELECT DISTINCT ?facility ?facWKT ?facilityName ?industry ?industryName WHERE {
    SERVICE <repository:FIO> {
        ?facility fio:ofIndustry ?industry;
            geo:hasGeometry/geo:asWKT ?facWKT;
            rdfs:label ?facilityName.
        ?industry rdfs:label ?industryName.
        VALUES ?industry {{.Industries}}
    }
}
{{with .Limit}}LIMIT {{.}}
{{end}}`

const counties = `
SELECT ?county ?countyWKT ?countyName WHERE {
    SERVICE <repository:Spatial> {
        VALUES ?county {{.Counties}}
        ?county geo:hasGeometry/geo:asWKT ?countyWKT;
            rdfs:label ?countyName.
    }
}
`

const samplePoints = `
SELECT DISTINCT ?samplePoint ?spWKT ?sampleId WHERE {
    ?samplePoint rdf:type coso:SamplePoint;
        geo:hasGeometry/geo:asWKT ?spWKT.
    OPTIONAL {
        ?sample coso:fromSamplePoint ?samplePoint;
            dcterms:identifier ?sampleId.
    }
}
LIMIT {{.Limit}}
`
