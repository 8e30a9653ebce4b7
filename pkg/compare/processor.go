// Package compare diffs two record streams sorted by the same key attribute.
//
// The Processor reads its source stream from the channel it is run with and its other stream from a
// channel it owns. Both streams are walked in lockstep: at most one record waits for its counterpart
// at any time, so memory use does not depend on the stream sizes. For every key the processor logs
// either a geometry or attribute mismatch, or the record that has no counterpart on the other side.
package compare

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/askiada/go-geodiff/pkg/channel"
	"github.com/askiada/go-geodiff/pkg/geometry"
	"github.com/askiada/go-geodiff/pkg/process"
	"github.com/askiada/go-geodiff/pkg/record"
)

const (
	sourceSide = 0
	otherSide  = 1
)

// defaultGeometryName names geometry mismatches when the schema has no geometry field.
const defaultGeometryName = "GEOMETRY"

var ErrNilSink = errors.New("log sink must be set")

// Stats counts the outcomes of a comparison.
type Stats struct {
	Matched             int
	GeometryMismatches  int
	AttributeMismatches int
	SourceUnmatched     int
	OtherUnmatched      int
	MissingKeys         int
	InvalidKeys         int
}

// Differences returns the number of logged entries.
func (s Stats) Differences() int {
	return 2*(s.GeometryMismatches+s.AttributeMismatches) + s.SourceUnmatched + s.OtherUnmatched + s.MissingKeys + s.InvalidKeys
}

// pending is the single record waiting for its counterpart. Only one side can be pending at a time.
type pending struct {
	side int
	rec  *record.Record
	key  any
}

type Option func(p *Processor)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithKeyCompare replaces the natural ordering of key values.
func WithKeyCompare(fn func(a, b any) (int, error)) Option {
	return func(p *Processor) {
		p.compareKeys = fn
	}
}

// Processor is the ordered equal compare process.
type Processor struct {
	cfg         Config
	labels      [2]string
	exclude     map[string]struct{}
	sink        LogSink
	other       *channel.Channel[*record.Record]
	compareKeys func(a, b any) (int, error)
	logger      *zap.Logger

	pending *pending
	stats   Stats
}

// New creates a processor and its other input channel. The processor is registered as the reader of
// that channel; writers must WriteConnect to Other before the processor starts.
func New(cfg Config, sink LogSink, opts ...Option) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid compare config")
	}

	if sink == nil {
		return nil, ErrNilSink
	}

	cfg = cfg.WithDefaults()

	p := &Processor{
		cfg:         cfg,
		labels:      [2]string{cfg.SourceLabel, cfg.OtherLabel},
		exclude:     make(map[string]struct{}, len(cfg.ExcludeAttributes)),
		sink:        sink,
		compareKeys: record.CompareValues,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, name := range cfg.ExcludeAttributes {
		p.exclude[name] = struct{}{}
	}

	other, err := channel.New[*record.Record](cfg.OtherLabel, channel.WithBuffer(cfg.OtherBufferSize), channel.WithLogger(p.logger))
	if err != nil {
		return nil, errors.Wrap(err, "unable to create other input")
	}

	other.ReadConnect()
	p.other = other

	return p, nil
}

// Other returns the input channel of the other stream.
func (p *Processor) Other() *channel.Channel[*record.Record] {
	return p.other
}

// Stats returns the counters of the comparison. It must not be called while Run is in progress.
func (p *Processor) Stats() Stats {
	return p.stats
}

// Init connects the log sink.
func (p *Processor) Init(ctx context.Context) error {
	p.pending = nil
	p.stats = Stats{}

	if err := p.sink.Connect(ctx); err != nil {
		return errors.Wrap(err, "unable to connect log sink")
	}

	return nil
}

// Destroy disconnects the log sink and releases the other input.
func (p *Processor) Destroy() error {
	p.other.ReadDisconnect()

	if err := p.sink.Disconnect(); err != nil {
		return errors.Wrap(err, "unable to disconnect log sink")
	}

	return nil
}

// Run compares the source stream read from in with the other stream until both are closed.
func (p *Processor) Run(ctx context.Context, in *channel.Channel[*record.Record]) error {
	inputs := [2]*channel.Channel[*record.Record]{in, p.other}
	sel := channel.NewSelector(p.logger, in, p.other)

	for {
		idx, err := sel.Select(ctx, p.guards())
		if err != nil {
			return err
		}

		if idx == channel.AllClosed {
			return p.drain(ctx, inputs)
		}

		rec, ok, err := inputs[idx].Read(ctx)
		if err != nil {
			return err
		}

		if !ok || rec == nil {
			continue
		}

		if err := p.handle(idx, rec); err != nil {
			return err
		}
	}
}

// guards keeps the pending side disabled so that it is not read again before its counterpart arrives.
func (p *Processor) guards() []bool {
	guards := []bool{true, true}
	if p.pending != nil {
		guards[p.pending.side] = false
	}

	return guards
}

func (p *Processor) handle(side int, rec *record.Record) error {
	key := rec.Value(p.cfg.KeyAttribute)
	if key == nil {
		return p.missingKey(side, rec)
	}

	if p.pending == nil {
		p.pending = &pending{side: side, rec: rec, key: key}

		return nil
	}

	if p.pending.side == side {
		return errors.Errorf("%s record read while one is already pending", p.labels[side])
	}

	res, err := p.compareKeys(key, p.pending.key)
	if err != nil {
		p.stats.InvalidKeys++
		p.logger.Debug("key values cannot be ordered", zap.Error(err))

		return p.log(Entry{
			Kind:    KindInvalidKey,
			Side:    p.labels[side],
			Message: fmt.Sprintf("key %s cannot be compared with %s: %v", p.cfg.KeyAttribute, p.labels[p.pending.side], err),
			Key:     key,
			Record:  rec,
		})
	}

	switch {
	case res == 0:
		var records [2]*record.Record
		records[side] = rec
		records[p.pending.side] = p.pending.rec
		p.pending = nil

		return p.match(key, records[sourceSide], records[otherSide])
	case res > 0:
		// the incoming stream is past the pending key, the pending record has no counterpart
		ahead := &pending{side: side, rec: rec, key: key}
		behind := p.pending
		p.pending = ahead

		return p.unmatched(behind.side, behind.rec, behind.key)
	default:
		return p.unmatched(side, rec, key)
	}
}

func (p *Processor) match(key any, source, other *record.Record) error {
	p.stats.Matched++

	if !geometry.Equal(source.Geometry(), other.Geometry()) {
		p.stats.GeometryMismatches++

		return p.logBoth(KindGeometryMismatch, p.geometryName(source), key, source, other)
	}

	if names := p.differingAttributes(source, other); len(names) > 0 {
		p.stats.AttributeMismatches++

		return p.logBoth(KindAttributeMismatch, strings.Join(names, ","), key, source, other)
	}

	return nil
}

func (p *Processor) geometryName(rec *record.Record) string {
	if name := rec.Schema().GeometryField(); name != "" {
		return name
	}

	return defaultGeometryName
}

// differingAttributes returns the names of the compared attributes holding different values, in
// source schema order followed by the attributes only the other schema has, sorted.
func (p *Processor) differingAttributes(source, other *record.Record) []string {
	skip := func(name string) bool {
		if _, ok := p.exclude[name]; ok {
			return true
		}

		return name == p.cfg.KeyAttribute || name == source.Schema().GeometryField() || name == other.Schema().GeometryField()
	}

	var names []string
	for _, name := range source.Schema().FieldNames() {
		if skip(name) {
			continue
		}

		if !record.ValuesEqual(source.Value(name), other.Value(name)) {
			names = append(names, name)
		}
	}

	var extra []string
	for _, name := range other.Schema().FieldNames() {
		if skip(name) || source.Schema().HasField(name) {
			continue
		}

		if other.Value(name) != nil {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)

	return append(names, extra...)
}

func (p *Processor) logBoth(kind Kind, message string, key any, source, other *record.Record) error {
	if err := p.log(Entry{Kind: kind, Side: p.labels[sourceSide], Message: message, Key: key, Record: source}); err != nil {
		return err
	}

	return p.log(Entry{Kind: kind, Side: p.labels[otherSide], Message: message, Key: key, Record: other})
}

func (p *Processor) unmatched(side int, rec *record.Record, key any) error {
	if side == sourceSide {
		p.stats.SourceUnmatched++
	} else {
		p.stats.OtherUnmatched++
	}

	return p.log(Entry{
		Kind:    KindUnmatched,
		Side:    p.labels[side],
		Message: fmt.Sprintf("%s has no match in %s", p.labels[side], p.labels[1-side]),
		Key:     key,
		Record:  rec,
	})
}

func (p *Processor) missingKey(side int, rec *record.Record) error {
	p.stats.MissingKeys++

	return p.log(Entry{
		Kind:    KindMissingKey,
		Side:    p.labels[side],
		Message: fmt.Sprintf("%s record has no value for key %s", p.labels[side], p.cfg.KeyAttribute),
		Record:  rec,
	})
}

// drain runs once the selector reports that no enabled input can be read. The pending record has no
// counterpart anymore and every record still arriving on an open input is unmatched.
func (p *Processor) drain(ctx context.Context, inputs [2]*channel.Channel[*record.Record]) error {
	if p.pending != nil {
		behind := p.pending
		p.pending = nil

		if err := p.unmatched(behind.side, behind.rec, behind.key); err != nil {
			return err
		}
	}

	for side, input := range inputs {
		for {
			rec, ok, err := input.Read(ctx)
			if err != nil {
				return err
			}

			if !ok {
				break
			}

			if rec == nil {
				continue
			}

			key := rec.Value(p.cfg.KeyAttribute)
			if key == nil {
				err = p.missingKey(side, rec)
			} else {
				err = p.unmatched(side, rec, key)
			}

			if err != nil {
				return err
			}
		}
	}

	p.logger.Debug("comparison finished", zap.Any("stats", p.stats))

	return nil
}

func (p *Processor) log(entry Entry) error {
	if err := p.sink.Log(entry); err != nil {
		return errors.Wrapf(err, "unable to log %s entry", entry.Kind)
	}

	return nil
}

var _ process.Sink[*record.Record] = (*Processor)(nil)
