package h3mapper

import (
	"errors"
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	h3 "github.com/uber/h3-go/v4"
)

type Mapper struct {
	res int
}

func New(res int) (*Mapper, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	return &Mapper{res: res}, nil
}

func (m *Mapper) Res() int { return m.res }

// CellForPoint indexes a lon/lat point (EPSG:4326).
func (m *Mapper) CellForPoint(p orb.Point) (string, error) {
	c, err := h3.LatLngToCell(h3.LatLng{Lat: p.Lat(), Lng: p.Lon()}, m.res)
	if err != nil {
		return "", fmt.Errorf("h3 cell for %v: %w", p, err)
	}
	return c.String(), nil
}

// DistinctCells returns the sorted set of cells hit by points.
func (m *Mapper) DistinctCells(points []orb.Point) ([]string, error) {
	seen := make(map[string]struct{}, len(points))
	out := make([]string, 0, len(points))
	for _, p := range points {
		c, err := m.CellForPoint(p)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// Coverage fills polygons and indexes everything else at its envelope center.
func (m *Mapper) Coverage(g orb.Geometry) ([]string, error) {
	switch t := g.(type) {
	case nil:
		return nil, errors.New("nil geometry")
	case orb.Point:
		c, err := m.CellForPoint(t)
		if err != nil {
			return nil, err
		}
		return []string{c}, nil
	case orb.Polygon:
		return m.cellsForPolygon(t)
	case orb.MultiPolygon:
		seen := make(map[string]struct{})
		var out []string
		for pi, p := range t {
			cells, err := m.cellsForPolygon(p)
			if err != nil {
				return nil, fmt.Errorf("polygon %d: %w", pi, err)
			}
			for _, c := range cells {
				if _, ok := seen[c]; !ok {
					seen[c] = struct{}{}
					out = append(out, c)
				}
			}
		}
		sort.Strings(out)
		return out, nil
	default:
		c, err := m.CellForPoint(g.Bound().Center())
		if err != nil {
			return nil, err
		}
		return []string{c}, nil
	}
}

// --- helpers ---

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}

func (m *Mapper) cellsForPolygon(p orb.Polygon) ([]string, error) {
	if len(p) == 0 {
		return nil, errors.New("empty polygon")
	}
	outer := toLoop(p[0])
	var holes []h3.GeoLoop
	for i := 1; i < len(p); i++ {
		h := toLoop(p[i])
		if len(h) < 3 {
			return nil, fmt.Errorf("hole %d has < 3 distinct vertices", i-1)
		}
		holes = append(holes, h)
	}
	return polyfillOne(outer, holes, m.res)
}

// toLoop converts an orb ring to an h3.GeoLoop, dropping the closing vertex.
func toLoop(r orb.Ring) h3.GeoLoop {
	loop := make(h3.GeoLoop, 0, len(r))
	for _, p := range r {
		loop = append(loop, h3.LatLng{Lat: p.Lat(), Lng: p.Lon()})
	}
	if len(loop) >= 2 {
		last := loop[len(loop)-1]
		first := loop[0]
		if last.Lat == first.Lat && last.Lng == first.Lng {
			loop = loop[:len(loop)-1]
		}
	}
	return loop
}

// polyfillOne computes unique cells and returns them sorted for determinism.
func polyfillOne(outer h3.GeoLoop, holes []h3.GeoLoop, res int) ([]string, error) {
	if len(outer) < 3 {
		return nil, errors.New("outer ring has < 3 distinct vertices")
	}
	poly := h3.GeoPolygon{
		GeoLoop: outer,
		Holes:   holes,
	}

	indexes, err := h3.PolygonToCells(poly, res)
	if err != nil {
		return nil, fmt.Errorf("h3 polyfill: %w", err)
	}

	out := make([]string, 0, len(indexes))
	seen := make(map[string]struct{}, len(indexes))
	for _, idx := range indexes {
		s := idx.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}
