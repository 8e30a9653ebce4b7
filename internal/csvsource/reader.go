// Package csvsource reads geospatial records from CSV exports. The first row names the columns; the
// coordinate columns become a point geometry and every other column an attribute. Files may be
// compressed with gzip or zstd.
package csvsource

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/askiada/go-geodiff/pkg/channel"
	"github.com/askiada/go-geodiff/pkg/geometry"
	"github.com/askiada/go-geodiff/pkg/record"
)

var (
	ErrDelimiter  = errors.New("delimiter must be a single character")
	ErrNotSorted  = errors.New("rows are not sorted by key")
	ErrEmptyFile  = errors.New("missing header row")
	ErrCoordinate = errors.New("coordinate must be a finite number")
)

// Config holds the layout of the CSV files.
type Config struct {
	Delimiter     string `yaml:"delimiter" toml:"delimiter" split_words:"true"`
	XColumn       string `yaml:"x_column" toml:"x_column" split_words:"true"`
	YColumn       string `yaml:"y_column" toml:"y_column" split_words:"true"`
	ZColumn       string `yaml:"z_column" toml:"z_column" split_words:"true"`
	GeometryField string `yaml:"geometry_field" toml:"geometry_field" split_words:"true"`
	// KeyAttribute, when set, makes the reader fail on the first row whose key is lower than the
	// key of the previous row.
	KeyAttribute string `yaml:"-" toml:"-" ignored:"true"`
}

func DefaultConfig() Config {
	return Config{
		Delimiter:     ",",
		XColumn:       "x",
		YColumn:       "y",
		ZColumn:       "z",
		GeometryField: "geometry",
	}
}

func (c Config) Validate() error {
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return errors.Wrapf(ErrDelimiter, "got %q", c.Delimiter)
	}

	return nil
}

// Reader reads records one row at a time.
type Reader struct {
	cfg     Config
	csv     *csv.Reader
	schema  *record.Schema
	closer  io.Closer
	x, y, z int
	attrs   []int
	line    int
	prevKey any
}

// NewReader reads the header row of r. name becomes the schema name.
func NewReader(r io.Reader, name string, cfg Config) (*Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	delimiter, _ := utf8.DecodeRuneInString(cfg.Delimiter)

	csvReader := csv.NewReader(r)
	csvReader.Comma = delimiter
	csvReader.ReuseRecord = true

	header, err := csvReader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.Wrap(ErrEmptyFile, name)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "unable to read header of %s", name)
	}

	res := &Reader{cfg: cfg, csv: csvReader, x: -1, y: -1, z: -1, line: 1}

	var fields []string
	for i, column := range header {
		switch column {
		case cfg.XColumn:
			res.x = i
		case cfg.YColumn:
			res.y = i
		case cfg.ZColumn:
			res.z = i
		default:
			fields = append(fields, column)
			res.attrs = append(res.attrs, i)
		}
	}

	schema, err := record.NewSchema(name, fields, cfg.GeometryField)
	if err != nil {
		return nil, err
	}

	res.schema = schema

	return res, nil
}

// Open opens a CSV file, decompressing it when its content is gzip or zstd.
func Open(path string, cfg Config) (*Reader, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to detect type of %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", path)
	}

	var (
		r      io.Reader = file
		closer io.Closer = file
	)

	switch {
	case mtype.Is("application/gzip"):
		gzReader, err := gzip.NewReader(file)
		if err != nil {
			file.Close()

			return nil, errors.Wrapf(err, "unable to read gzip file %s", path)
		}

		r = gzReader
		closer = multiCloser{gzReader, file}
	case mtype.Is("application/zstd"):
		decoder, err := zstd.NewReader(file)
		if err != nil {
			file.Close()

			return nil, errors.Wrapf(err, "unable to read zstd file %s", path)
		}

		rc := decoder.IOReadCloser()
		r = rc
		closer = multiCloser{rc, file}
	}

	reader, err := NewReader(r, path, cfg)
	if err != nil {
		closer.Close()

		return nil, err
	}

	reader.closer = closer

	return reader, nil
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}

func (r *Reader) Schema() *record.Schema {
	return r.schema
}

// Next returns the record of the next row, or io.EOF once every row has been read.
func (r *Reader) Next() (*record.Record, error) {
	row, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}

		return nil, errors.Wrapf(err, "%s", r.schema.Name())
	}

	r.line++

	values := make([]any, len(r.attrs))
	for i, idx := range r.attrs {
		values[i] = ParseValue(row[idx])
	}

	geom, err := r.point(row)
	if err != nil {
		return nil, errors.Wrapf(err, "%s line %d", r.schema.Name(), r.line)
	}

	rec, err := record.New(r.schema, values, geom)
	if err != nil {
		return nil, err
	}

	if err := r.checkOrder(rec); err != nil {
		return nil, err
	}

	return rec, nil
}

func (r *Reader) point(row []string) (geometry.Geometry, error) {
	if r.x < 0 || r.y < 0 || (row[r.x] == "" && row[r.y] == "") {
		return nil, nil
	}

	axes := []int{r.x, r.y}
	if r.z >= 0 && row[r.z] != "" {
		axes = append(axes, r.z)
	}

	coord := make([]float64, len(axes))
	for i, idx := range axes {
		value, err := strconv.ParseFloat(row[idx], 64)
		if err != nil {
			return nil, errors.Wrap(err, "invalid coordinate")
		}

		if !finite(value) {
			return nil, errors.Wrapf(ErrCoordinate, "got %q", row[idx])
		}

		coord[i] = value
	}

	return geometry.NewPoint(coord...), nil
}

func (r *Reader) checkOrder(rec *record.Record) error {
	if r.cfg.KeyAttribute == "" {
		return nil
	}

	key := rec.Value(r.cfg.KeyAttribute)
	if key == nil {
		return nil
	}

	if r.prevKey != nil {
		res, err := record.CompareValues(key, r.prevKey)
		if err != nil {
			return errors.Wrapf(err, "%s line %d", r.schema.Name(), r.line)
		}

		if res < 0 {
			return errors.Wrapf(ErrNotSorted, "%s line %d: %v after %v", r.schema.Name(), r.line, key, r.prevKey)
		}
	}

	r.prevKey = key

	return nil
}

// Close releases the file opened by Open.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}

	return r.closer.Close()
}

// ParseValue converts a CSV cell: empty cells are null, integers and finite floats are numbers and
// anything else, "NaN" and "Infinity" included, stays a string.
func ParseValue(cell string) any {
	if cell == "" {
		return nil
	}

	if i, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return i
	}

	if f, err := strconv.ParseFloat(cell, 64); err == nil && finite(f) {
		return f
	}

	return cell
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Stream writes every record of r to output.
func Stream(ctx context.Context, r *Reader, output *channel.Channel[*record.Record]) error {
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		if err := output.Write(ctx, rec); err != nil {
			return err
		}
	}
}

// Source returns a pipeline source function streaming the records of the file at path.
func Source(path string, cfg Config) func(ctx context.Context, output *channel.Channel[*record.Record]) error {
	return func(ctx context.Context, output *channel.Channel[*record.Record]) error {
		reader, err := Open(path, cfg)
		if err != nil {
			return err
		}
		defer reader.Close()

		return Stream(ctx, reader, output)
	}
}
