package geometry

import (
	"strconv"
	"strings"
)

// WKT returns the well-known text form of g, used when logging records.
func WKT(g Geometry) string {
	if g == nil {
		return ""
	}

	var sb strings.Builder
	writeWKT(&sb, g)

	return sb.String()
}

func writeWKT(sb *strings.Builder, g Geometry) {
	sb.WriteString(g.Kind().String())

	switch geom := g.(type) {
	case Point:
		if len(geom.Coord) == 0 {
			sb.WriteString(" EMPTY")

			return
		}
		sb.WriteString(" (")
		writeCoord(sb, geom.Coord)
		sb.WriteString(")")
	case LineString:
		writeSequence(sb, geom.Coords)
	case Polygon:
		writeParts(sb, geom.Rings)
	case MultiPoint:
		if len(geom.Points) == 0 {
			sb.WriteString(" EMPTY")

			return
		}
		sb.WriteString(" (")
		for i, coord := range geom.Points {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(")
			writeCoord(sb, coord)
			sb.WriteString(")")
		}
		sb.WriteString(")")
	case MultiLineString:
		writeParts(sb, geom.Lines)
	case MultiPolygon:
		if len(geom.Polygons) == 0 {
			sb.WriteString(" EMPTY")

			return
		}
		sb.WriteString(" (")
		for i, poly := range geom.Polygons {
			if i > 0 {
				sb.WriteString(", ")
			}
			writePartsBody(sb, poly.Rings)
		}
		sb.WriteString(")")
	case Collection:
		if len(geom.Geometries) == 0 {
			sb.WriteString(" EMPTY")

			return
		}
		sb.WriteString(" (")
		for i, child := range geom.Geometries {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeWKT(sb, child)
		}
		sb.WriteString(")")
	}
}

func writeParts(sb *strings.Builder, parts []Sequence) {
	if len(parts) == 0 {
		sb.WriteString(" EMPTY")

		return
	}

	sb.WriteString(" ")
	writePartsBody(sb, parts)
}

func writePartsBody(sb *strings.Builder, parts []Sequence) {
	sb.WriteString("(")
	for i, part := range parts {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeSequenceBody(sb, part)
	}
	sb.WriteString(")")
}

func writeSequence(sb *strings.Builder, seq Sequence) {
	if len(seq) == 0 {
		sb.WriteString(" EMPTY")

		return
	}

	sb.WriteString(" ")
	writeSequenceBody(sb, seq)
}

func writeSequenceBody(sb *strings.Builder, seq Sequence) {
	if len(seq) == 0 {
		sb.WriteString("EMPTY")

		return
	}

	sb.WriteString("(")
	for i, coord := range seq {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeCoord(sb, coord)
	}
	sb.WriteString(")")
}

func writeCoord(sb *strings.Builder, coord Coord) {
	for i, v := range coord {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
}
