package compare_test

import (
	"context"

	"github.com/stretchr/testify/require"

	"github.com/askiada/go-geodiff/pkg/channel"
	"github.com/askiada/go-geodiff/pkg/compare"
	"github.com/askiada/go-geodiff/pkg/geometry"
	"github.com/askiada/go-geodiff/pkg/process"
	"github.com/askiada/go-geodiff/pkg/record"
)

// tb is satisfied by *testing.T and *rapid.T.
type tb interface {
	require.TestingT
	Helper()
}

var testSchema = mustSchema("parcels", []string{"ID", "NAME", "STATUS", "UPDATED"}, "GEOM")

func mustSchema(name string, fields []string, geometryField string) *record.Schema {
	schema, err := record.NewSchema(name, fields, geometryField)
	if err != nil {
		panic(err)
	}

	return schema
}

type recordOption func(attrs map[string]any, geom *geometry.Geometry)

func withAttr(name string, value any) recordOption {
	return func(attrs map[string]any, _ *geometry.Geometry) {
		attrs[name] = value
	}
}

func withGeometry(g geometry.Geometry) recordOption {
	return func(_ map[string]any, geom *geometry.Geometry) {
		*geom = g
	}
}

func newRecord(t tb, id any, opts ...recordOption) *record.Record {
	t.Helper()

	attrs := map[string]any{
		"ID":      id,
		"NAME":    "parcel",
		"STATUS":  "active",
		"UPDATED": "2024-01-01",
	}
	var geom geometry.Geometry = geometry.NewPoint(1, 2)
	for _, opt := range opts {
		opt(attrs, &geom)
	}

	rec, err := record.FromMap(testSchema, attrs, geom)
	require.NoError(t, err)

	return rec
}

func newRecords(t tb, ids ...any) []*record.Record {
	t.Helper()

	res := make([]*record.Record, len(ids))
	for i, id := range ids {
		res[i] = newRecord(t, id)
	}

	return res
}

type harness struct {
	proc   *compare.Processor
	sink   *compare.MemorySink
	source *channel.Channel[*record.Record]
}

func newHarness(t tb, cfg compare.Config, opts ...channel.Option) *harness {
	t.Helper()

	sink := compare.NewMemorySink()
	proc, err := compare.New(cfg, sink)
	require.NoError(t, err)

	source, err := channel.New[*record.Record]("source", opts...)
	require.NoError(t, err)
	source.ReadConnect()
	require.NoError(t, source.WriteConnect())
	require.NoError(t, proc.Other().WriteConnect())

	return &harness{proc: proc, sink: sink, source: source}
}

func (h *harness) run(t tb) error {
	t.Helper()

	return process.RunSink(context.Background(), process.NewRunner("compare"), h.proc, h.source)
}

// feed writes recs on ch from its own goroutine, then disconnects.
func feed(ch *channel.Channel[*record.Record], recs []*record.Record) {
	go func() {
		defer ch.WriteDisconnect()
		for _, rec := range recs {
			if err := ch.Write(context.Background(), rec); err != nil {
				return
			}
		}
	}()
}

// compareStreams runs a full comparison of two streams fed concurrently.
func compareStreams(t tb, cfg compare.Config, source, other []*record.Record) ([]compare.Entry, compare.Stats) {
	t.Helper()

	h := newHarness(t, cfg)
	feed(h.source, source)
	feed(h.proc.Other(), other)

	require.NoError(t, h.run(t))

	return h.sink.Entries(), h.proc.Stats()
}

type step struct {
	side int
	rec  *record.Record
}

// feedInOrder writes every step from a single goroutine, so each record is read by the processor
// before the next one is written.
func (h *harness) feedInOrder(steps ...step) {
	inputs := [2]*channel.Channel[*record.Record]{h.source, h.proc.Other()}
	go func() {
		defer inputs[0].WriteDisconnect()
		defer inputs[1].WriteDisconnect()
		for _, s := range steps {
			if err := inputs[s.side].Write(context.Background(), s.rec); err != nil {
				return
			}
		}
	}()
}

type loggedEntry struct {
	Kind    compare.Kind
	Side    string
	Message string
	Key     any
}

func simplify(entries []compare.Entry) []loggedEntry {
	res := make([]loggedEntry, len(entries))
	for i, entry := range entries {
		res[i] = loggedEntry{Kind: entry.Kind, Side: entry.Side, Message: entry.Message, Key: entry.Key}
	}

	return res
}
