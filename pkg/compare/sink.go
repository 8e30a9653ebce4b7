package compare

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/askiada/go-geodiff/pkg/geometry"
	"github.com/askiada/go-geodiff/pkg/record"
)

var ErrSinkNotConnected = errors.New("log sink is not connected")

// Kind classifies a diff entry.
type Kind string

const (
	KindMissingKey        Kind = "missing_key"
	KindInvalidKey        Kind = "invalid_key"
	KindGeometryMismatch  Kind = "geometry_mismatch"
	KindAttributeMismatch Kind = "attribute_mismatch"
	KindUnmatched         Kind = "unmatched"
)

// Entry is a single line of the diff log.
type Entry struct {
	Kind Kind
	// Side is the label of the stream the record comes from.
	Side string
	// Message names the differing attributes for mismatches, or describes the problem otherwise.
	Message string
	Key     any
	Record  *record.Record
}

// LogSink receives the diff log of a comparison. Connect is called once from the processor Init and
// Disconnect once from its Destroy.
type LogSink interface {
	Connect(ctx context.Context) error
	Log(entry Entry) error
	Disconnect() error
}

// MemorySink keeps every entry in memory.
type MemorySink struct {
	mu        sync.Mutex
	connected bool
	entries   []Entry
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Connect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = true

	return nil
}

func (s *MemorySink) Log(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return ErrSinkNotConnected
	}

	s.entries = append(s.entries, entry)

	return nil
}

func (s *MemorySink) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = false

	return nil
}

// Entries returns a copy of the logged entries.
func (s *MemorySink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Entry(nil), s.entries...)
}

// ZapSink writes every entry as a structured log line.
type ZapSink struct {
	logger    *zap.Logger
	mu        sync.Mutex
	connected bool
}

// NewZapSink creates a sink writing to logger. Entries are written at warn level.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return &ZapSink{
		logger: logger.Named("diff"),
	}
}

func (s *ZapSink) Connect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = true
	s.logger.Debug("diff log connected")

	return nil
}

func (s *ZapSink) Log(entry Entry) error {
	s.mu.Lock()
	connected := s.connected
	s.mu.Unlock()

	if !connected {
		return ErrSinkNotConnected
	}

	fields := []zap.Field{
		zap.String("kind", string(entry.Kind)),
		zap.String("side", entry.Side),
		zap.Any("key", entry.Key),
	}
	if entry.Record != nil {
		fields = append(fields, zap.Stringer("record", entry.Record))
		if geom := entry.Record.Geometry(); geom != nil {
			fields = append(fields, zap.String("wkt", geometry.WKT(geom)))
		}
	}

	s.logger.Warn(entry.Message, fields...)

	return nil
}

func (s *ZapSink) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = false
	// stdout and stderr do not support sync on every platform
	_ = s.logger.Sync()

	return nil
}

var (
	_ LogSink = (*MemorySink)(nil)
	_ LogSink = (*ZapSink)(nil)
)
