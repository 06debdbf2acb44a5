package mapview

import (
	"fmt"

	"github.com/SAWGraph/public/internal/geo"
	"github.com/SAWGraph/public/internal/mapper"
	"github.com/SAWGraph/public/internal/sparql/results"
)

// Summary is the tabular view of one set. Counts come from the full records;
// only Records is display-truncated.
type Summary struct {
	Set     string           `json:"set"`
	Title   string           `json:"title"`
	Count   int              `json:"count"`
	Items   int              `json:"items,omitempty"`
	Cells   int              `json:"h3Cells,omitempty"`
	H3Res   int              `json:"h3Res,omitempty"`
	Columns []string         `json:"columns"`
	Records []results.Record `json:"records"`
}

// Summaries builds one table per set, geometry column dropped. When cells is
// non-nil each set also reports the number of distinct H3 cells it touches.
func Summaries(sets []LayerSet, style Style, cells mapper.Interface) ([]Summary, error) {
	out := make([]Summary, 0, len(sets))
	for _, s := range sets {
		sum := Summary{
			Set:     s.Name,
			Title:   s.Title,
			Count:   s.Table.Len(),
			Columns: dropColumn(s.Table.Columns, s.Table.GeometryColumn),
			Records: make([]results.Record, 0, s.Table.Len()),
		}
		for _, rec := range s.Table.Rows {
			if s.ItemsColumn != "" {
				if v, ok := rec.Values[s.ItemsColumn].(string); ok {
					sum.Items += results.SubItems(v)
				}
			}
			shown := results.DisplayRecord(rec.Values, style.DisplayItems)
			delete(shown, s.Table.GeometryColumn)
			sum.Records = append(sum.Records, shown)
		}
		if cells != nil && s.Table.Len() > 0 {
			n, err := countCells(s, cells)
			if err != nil {
				return nil, fmt.Errorf("h3 cells for %s: %w", s.Name, err)
			}
			sum.Cells = n
			sum.H3Res = cells.Res()
		}
		out = append(out, sum)
	}
	return out, nil
}

func countCells(s LayerSet, cells mapper.Interface) (int, error) {
	seen := map[string]struct{}{}
	for _, rec := range s.Table.Rows {
		if geo.IsEmpty(rec.Geometry) {
			continue
		}
		var (
			cs  []string
			err error
		)
		if s.Role == RoleBoundaries {
			cs, err = cells.Coverage(rec.Geometry)
		} else {
			var c string
			c, err = cells.CellForPoint(geo.Anchor(rec.Geometry))
			cs = []string{c}
		}
		if err != nil {
			return 0, err
		}
		for _, c := range cs {
			seen[c] = struct{}{}
		}
	}
	return len(seen), nil
}

func dropColumn(cols []string, drop string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if c != drop {
			out = append(out, c)
		}
	}
	return out
}
