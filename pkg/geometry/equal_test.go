package geometry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/askiada/go-geodiff/pkg/geometry"
)

func square(offset float64) geometry.Sequence {
	return geometry.Sequence{
		{offset, offset},
		{offset + 1, offset},
		{offset + 1, offset + 1},
		{offset, offset + 1},
		{offset, offset},
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		a, b     geometry.Geometry
		expected bool
	}{
		"both nil": {expected: true},
		"one nil":  {a: geometry.NewPoint(1, 2)},
		"points within tolerance": {
			a:        geometry.NewPoint(1.00001, 2.00001),
			b:        geometry.NewPoint(1.00009, 2.00009),
			expected: true,
		},
		"points differ on third decimal": {
			a: geometry.NewPoint(1.001, 2),
			b: geometry.NewPoint(1.002, 2),
		},
		"points rounding to the same value": {
			a:        geometry.NewPoint(1.0004, -2.0004),
			b:        geometry.NewPoint(0.9996, -1.9996),
			expected: true,
		},
		"different axis count": {
			a: geometry.NewPoint(1, 2),
			b: geometry.NewPoint(1, 2, 0),
		},
		"different kinds": {
			a: geometry.NewPoint(1, 2),
			b: geometry.MultiPoint{Points: geometry.Sequence{{1, 2}}},
		},
		"equal line strings": {
			a:        geometry.LineString{Coords: geometry.Sequence{{0, 0}, {1, 1}}},
			b:        geometry.LineString{Coords: geometry.Sequence{{0, 0}, {1.0001, 1}}},
			expected: true,
		},
		"line strings with different point count": {
			a: geometry.LineString{Coords: geometry.Sequence{{0, 0}, {1, 1}}},
			b: geometry.LineString{Coords: geometry.Sequence{{0, 0}, {1, 1}, {2, 2}}},
		},
		"polygons with holes": {
			a:        geometry.Polygon{Rings: []geometry.Sequence{square(0), square(0.25)}},
			b:        geometry.Polygon{Rings: []geometry.Sequence{square(0), square(0.25)}},
			expected: true,
		},
		"polygons with different ring count": {
			a: geometry.Polygon{Rings: []geometry.Sequence{square(0), square(0.25)}},
			b: geometry.Polygon{Rings: []geometry.Sequence{square(0)}},
		},
		"multi line strings": {
			a:        geometry.MultiLineString{Lines: []geometry.Sequence{{{0, 0}, {1, 1}}, {{2, 2}, {3, 3}}}},
			b:        geometry.MultiLineString{Lines: []geometry.Sequence{{{0, 0}, {1, 1}}, {{2, 2}, {3, 3}}}},
			expected: true,
		},
		"multi polygons with different polygons": {
			a: geometry.MultiPolygon{Polygons: []geometry.Polygon{{Rings: []geometry.Sequence{square(0)}}}},
			b: geometry.MultiPolygon{Polygons: []geometry.Polygon{{Rings: []geometry.Sequence{square(5)}}}},
		},
		"collections in order": {
			a: geometry.Collection{Geometries: []geometry.Geometry{
				geometry.NewPoint(1, 1),
				geometry.LineString{Coords: geometry.Sequence{{0, 0}, {1, 1}}},
			}},
			b: geometry.Collection{Geometries: []geometry.Geometry{
				geometry.NewPoint(1, 1),
				geometry.LineString{Coords: geometry.Sequence{{0, 0}, {1, 1}}},
			}},
			expected: true,
		},
		"collections in another order": {
			a: geometry.Collection{Geometries: []geometry.Geometry{
				geometry.NewPoint(1, 1),
				geometry.LineString{Coords: geometry.Sequence{{0, 0}, {1, 1}}},
			}},
			b: geometry.Collection{Geometries: []geometry.Geometry{
				geometry.LineString{Coords: geometry.Sequence{{0, 0}, {1, 1}}},
				geometry.NewPoint(1, 1),
			}},
		},
		"nested collections": {
			a: geometry.Collection{Geometries: []geometry.Geometry{
				geometry.Collection{Geometries: []geometry.Geometry{geometry.NewPoint(1, 1)}},
			}},
			b: geometry.Collection{Geometries: []geometry.Geometry{
				geometry.Collection{Geometries: []geometry.Geometry{geometry.NewPoint(1, 1.01)}},
			}},
		},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, geometry.Equal(tc.a, tc.b))
			assert.Equal(t, tc.expected, geometry.Equal(tc.b, tc.a))
		})
	}
}

func TestEqualSequences(t *testing.T) {
	t.Parallel()

	a := geometry.Sequence{{1.00001, 2.00001, 3}}
	b := geometry.Sequence{{1.00009, 2.00009, 3}}
	assert.True(t, geometry.EqualSequences(a, b, 3))
	assert.False(t, geometry.EqualSequences(a, b, 5))
	assert.False(t, geometry.EqualSequences(a, geometry.Sequence{{1, 2}}, 3))
	assert.True(t, geometry.EqualSequences(nil, geometry.Sequence{}, 3))
}

func TestRound(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, geometry.Round(1.00049, 3), 1e-12)
	assert.InDelta(t, 1.001, geometry.Round(1.0006, 3), 1e-12)
	assert.InDelta(t, -1.001, geometry.Round(-1.0006, 3), 1e-12)
}
