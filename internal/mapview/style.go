package mapview

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	RadiusCap       = 20.0
	RadiusRawBelow  = 10.0
	DefaultRadius   = 6.0
	DefaultColor    = "gray"
	DefaultZoom     = 7
	BoundsZoom      = 8
	DisplayMaxItems = 20
)

// FallbackCenter covers the whole state of Maine at DefaultZoom.
var FallbackCenter = orb.Point{-69.4455, 45.2538}

type Style struct {
	Colors         map[string]string
	DefaultColor   string
	PointColor     string
	ShapeColor     string
	BoundaryColor  string
	FallbackCenter orb.Point
	FallbackZoom   int
	BoundsZoom     int
	DisplayItems   int
}

func DefaultStyle() Style {
	return Style{
		Colors: map[string]string{
			"Solid Waste Landfill": "brown",
			"National Security":    "darkblue",
		},
		DefaultColor:   DefaultColor,
		PointColor:     "DarkOrange",
		ShapeColor:     "blue",
		BoundaryColor:  "gray",
		FallbackCenter: FallbackCenter,
		FallbackZoom:   DefaultZoom,
		BoundsZoom:     BoundsZoom,
		DisplayItems:   DisplayMaxItems,
	}
}

// Color looks up a category; unknown categories get the neutral default.
func (s Style) Color(category string) string {
	if c, ok := s.Colors[category]; ok && c != "" {
		return c
	}
	if s.DefaultColor != "" {
		return s.DefaultColor
	}
	return DefaultColor
}

// Radius maps a magnitude to a marker radius: raw below 10, capped at 20.
// Missing, non-positive or non-finite magnitudes use DefaultRadius.
func Radius(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return DefaultRadius
	}
	if value < RadiusRawBelow {
		return value
	}
	return math.Min(value, RadiusCap)
}
