// Package record defines the geospatial records flowing through channels: an ordered set of named
// attribute values, an optional geometry and the schema describing them.
package record

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-geodiff/pkg/geometry"
)

var (
	ErrDuplicateField = errors.New("duplicate field name")
	ErrUnknownField   = errors.New("unknown field")
	ErrValueCount     = errors.New("value count does not match schema")
)

// Schema describes the attributes of a record type.
type Schema struct {
	name          string
	fields        []string
	index         map[string]int
	geometryField string
}

// NewSchema creates a schema. Field names must be unique. geometryField names the attribute holding
// the geometry and may be empty.
func NewSchema(name string, fields []string, geometryField string) (*Schema, error) {
	index := make(map[string]int, len(fields))
	for i, field := range fields {
		if _, ok := index[field]; ok {
			return nil, errors.Wrapf(ErrDuplicateField, "schema %s: %s", name, field)
		}
		index[field] = i
	}

	return &Schema{
		name:          name,
		fields:        append([]string(nil), fields...),
		index:         index,
		geometryField: geometryField,
	}, nil
}

func (s *Schema) Name() string {
	return s.name
}

// FieldNames returns the attribute names in schema order.
func (s *Schema) FieldNames() []string {
	return append([]string(nil), s.fields...)
}

func (s *Schema) GeometryField() string {
	return s.geometryField
}

func (s *Schema) HasField(name string) bool {
	_, ok := s.index[name]

	return ok
}

// Record is an immutable set of attribute values following a schema.
type Record struct {
	schema   *Schema
	values   []any
	geometry geometry.Geometry
}

// New creates a record. values follow the schema field order.
func New(schema *Schema, values []any, geom geometry.Geometry) (*Record, error) {
	if len(values) != len(schema.fields) {
		return nil, errors.Wrapf(ErrValueCount, "schema %s expects %d values, got %d", schema.name, len(schema.fields), len(values))
	}

	return &Record{
		schema:   schema,
		values:   append([]any(nil), values...),
		geometry: geom,
	}, nil
}

// FromMap creates a record from named values. Fields missing from attrs are nil.
func FromMap(schema *Schema, attrs map[string]any, geom geometry.Geometry) (*Record, error) {
	values := make([]any, len(schema.fields))
	for name, value := range attrs {
		idx, ok := schema.index[name]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownField, "schema %s: %s", schema.name, name)
		}
		values[idx] = value
	}

	return &Record{schema: schema, values: values, geometry: geom}, nil
}

func (r *Record) Schema() *Schema {
	return r.schema
}

// Value returns the value of the named attribute, nil when the attribute is unknown or unset.
func (r *Record) Value(name string) any {
	idx, ok := r.schema.index[name]
	if !ok {
		return nil
	}

	return r.values[idx]
}

func (r *Record) Geometry() geometry.Geometry {
	return r.geometry
}

func (r *Record) String() string {
	var sb strings.Builder
	sb.WriteString(r.schema.name)
	sb.WriteString("{")
	for i, field := range r.schema.fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%v", field, r.values[i])
	}
	if r.geometry != nil {
		name := r.schema.geometryField
		if name == "" {
			name = "geometry"
		}
		fmt.Fprintf(&sb, ", %s=%s", name, geometry.WKT(r.geometry))
	}
	sb.WriteString("}")

	return sb.String()
}
