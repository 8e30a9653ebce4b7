package geometry

import "math"

// Precision is the number of decimal places kept when comparing coordinates.
const Precision = 3

// Equal reports whether a and b have the same type, the same structure and the same coordinates once
// rounded to Precision decimal places. Collections are compared element by element, in order.
func Equal(a, b Geometry) bool {
	return EqualWithPrecision(a, b, Precision)
}

// EqualWithPrecision is Equal with a custom number of decimal places.
func EqualWithPrecision(a, b Geometry, precision int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if a.Kind() != b.Kind() {
		return false
	}

	switch ga := a.(type) {
	case Point:
		gb, ok := b.(Point)

		return ok && equalCoords(ga.Coord, gb.Coord, precision)
	case LineString:
		gb, ok := b.(LineString)

		return ok && EqualSequences(ga.Coords, gb.Coords, precision)
	case Polygon:
		gb, ok := b.(Polygon)

		return ok && equalParts(ga.Rings, gb.Rings, precision)
	case MultiPoint:
		gb, ok := b.(MultiPoint)

		return ok && EqualSequences(ga.Points, gb.Points, precision)
	case MultiLineString:
		gb, ok := b.(MultiLineString)

		return ok && equalParts(ga.Lines, gb.Lines, precision)
	case MultiPolygon:
		gb, ok := b.(MultiPolygon)
		if !ok || len(ga.Polygons) != len(gb.Polygons) {
			return false
		}
		for i := range ga.Polygons {
			if !equalParts(ga.Polygons[i].Rings, gb.Polygons[i].Rings, precision) {
				return false
			}
		}

		return true
	case Collection:
		gb, ok := b.(Collection)
		if !ok || len(ga.Geometries) != len(gb.Geometries) {
			return false
		}
		for i := range ga.Geometries {
			if !EqualWithPrecision(ga.Geometries[i], gb.Geometries[i], precision) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// EqualSequences compares two coordinate sequences: same length, same number of axes for every
// coordinate and the same rounded axis values.
func EqualSequences(a, b Sequence, precision int) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !equalCoords(a[i], b[i], precision) {
			return false
		}
	}

	return true
}

func equalParts(a, b []Sequence, precision int) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !EqualSequences(a[i], b[i], precision) {
			return false
		}
	}

	return true
}

func equalCoords(a, b Coord, precision int) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		ra, rb := Round(a[i], precision), Round(b[i], precision)
		if ra == rb || (math.IsNaN(ra) && math.IsNaN(rb)) {
			continue
		}

		return false
	}

	return true
}

// Round rounds v to the given number of decimal places, halves away from zero.
func Round(v float64, precision int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}

	scale := math.Pow(10, float64(precision))

	return math.Round(v*scale) / scale
}
