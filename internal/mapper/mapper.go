// Package mapper converts between geometries and H3 cells.
package mapper

import "github.com/paulmach/orb"

type Interface interface {
	Res() int
	CellForPoint(p orb.Point) (string, error)
	Coverage(g orb.Geometry) ([]string, error)
}
