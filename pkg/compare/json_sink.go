package compare

import (
	"context"
	"io"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/askiada/go-geodiff/pkg/geometry"
)

// JSONSink writes every entry as a JSON object on its own line.
type JSONSink struct {
	mu        sync.Mutex
	w         io.Writer
	connected bool
}

func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{w: w}
}

type jsonEntry struct {
	Kind       Kind           `json:"kind"`
	Side       string         `json:"side"`
	Message    string         `json:"message"`
	Key        any            `json:"key,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	WKT        string         `json:"wkt,omitempty"`
}

func (s *JSONSink) Connect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = true

	return nil
}

func (s *JSONSink) Log(entry Entry) error {
	line := jsonEntry{
		Kind:    entry.Kind,
		Side:    entry.Side,
		Message: entry.Message,
		Key:     entry.Key,
	}

	if rec := entry.Record; rec != nil {
		names := rec.Schema().FieldNames()
		line.Attributes = make(map[string]any, len(names))
		for _, name := range names {
			line.Attributes[name] = rec.Value(name)
		}

		if geom := rec.Geometry(); geom != nil {
			line.WKT = geometry.WKT(geom)
		}
	}

	data, err := sonic.Marshal(line)
	if err != nil {
		return errors.Wrap(err, "unable to encode diff entry")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return ErrSinkNotConnected
	}

	if _, err := s.w.Write(append(data, '\n')); err != nil {
		return errors.Wrap(err, "unable to write diff entry")
	}

	return nil
}

func (s *JSONSink) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = false

	return nil
}

var _ LogSink = (*JSONSink)(nil)
