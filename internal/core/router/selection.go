package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/SAWGraph/public/internal/sparql/query"
	"github.com/SAWGraph/public/internal/vocabulary"
)

const maxSelectionBody = 64 << 10

// SelectionRequest is the JSON body of POST /api/query. A missing label list
// selects every label of that dimension; an empty list selects none.
type SelectionRequest struct {
	Shape      string   `json:"shape"`
	Industries []string `json:"industries"`
	Counties   []string `json:"counties"`
	Limit      *int     `json:"limit"`
	Depth      string   `json:"depth"`
}

func ParseSelection(r *http.Request, v *vocabulary.Vocabulary) (query.Spec, error) {
	var req SelectionRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxSelectionBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return query.Spec{}, fmt.Errorf("parse selection: %w", err)
	}
	return req.Spec(v)
}

// Spec validates the request against v. Labels are checked here so a bad
// selection is rejected before anything is sent upstream.
func (req SelectionRequest) Spec(v *vocabulary.Vocabulary) (query.Spec, error) {
	if req.Shape == "" {
		return query.Spec{}, errors.New("missing required field: shape")
	}
	shape, err := query.ParseShape(req.Shape)
	if err != nil {
		return query.Spec{}, err
	}
	depth, err := query.ParseDepth(req.Depth)
	if err != nil {
		return query.Spec{}, err
	}

	industries := req.Industries
	if industries == nil {
		industries = v.Labels(vocabulary.Industry)
	}
	if _, err := v.Resolve(vocabulary.Industry, industries); err != nil {
		return query.Spec{}, err
	}

	var counties []string
	if query.CountyBounded(shape) {
		counties = req.Counties
		if counties == nil {
			counties = v.Labels(vocabulary.County)
		}
		if _, err := v.Resolve(vocabulary.County, counties); err != nil {
			return query.Spec{}, err
		}
	} else if len(req.Counties) > 0 {
		return query.Spec{}, fmt.Errorf("shape %s does not take counties", shape)
	}

	limit := 0
	if req.Limit != nil {
		limit = *req.Limit
	}
	return query.Spec{
		Shape:      shape,
		Industries: industries,
		Counties:   counties,
		Limit:      limit,
		Depth:      depth,
	}, nil
}
