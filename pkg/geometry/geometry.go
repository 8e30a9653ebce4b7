// Package geometry holds an engine independent geometry model: every shape is broken down into
// ordered sequences of coordinate tuples, which is all the record comparison needs.
package geometry

// Kind identifies the concrete geometry type.
type Kind int

const (
	KindPoint Kind = iota + 1
	KindLineString
	KindPolygon
	KindMultiPoint
	KindMultiLineString
	KindMultiPolygon
	KindCollection
)

var kindNames = map[Kind]string{
	KindPoint:           "POINT",
	KindLineString:      "LINESTRING",
	KindPolygon:         "POLYGON",
	KindMultiPoint:      "MULTIPOINT",
	KindMultiLineString: "MULTILINESTRING",
	KindMultiPolygon:    "MULTIPOLYGON",
	KindCollection:      "GEOMETRYCOLLECTION",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return "UNKNOWN"
}

// Coord is a coordinate tuple. Its length is the number of axes (x, y and optionally z and m).
type Coord []float64

// Sequence is an ordered list of coordinates.
type Sequence []Coord

// Geometry is implemented by the value types of this package.
type Geometry interface {
	Kind() Kind
}

type Point struct {
	Coord Coord
}

type LineString struct {
	Coords Sequence
}

// Polygon holds its exterior ring first, followed by the interior rings.
type Polygon struct {
	Rings []Sequence
}

type MultiPoint struct {
	Points Sequence
}

type MultiLineString struct {
	Lines []Sequence
}

type MultiPolygon struct {
	Polygons []Polygon
}

type Collection struct {
	Geometries []Geometry
}

func (Point) Kind() Kind           { return KindPoint }
func (LineString) Kind() Kind      { return KindLineString }
func (Polygon) Kind() Kind         { return KindPolygon }
func (MultiPoint) Kind() Kind      { return KindMultiPoint }
func (MultiLineString) Kind() Kind { return KindMultiLineString }
func (MultiPolygon) Kind() Kind    { return KindMultiPolygon }
func (Collection) Kind() Kind      { return KindCollection }

// NewPoint is a shorthand for a point built from its axis values.
func NewPoint(axes ...float64) Point {
	return Point{Coord: Coord(axes)}
}
