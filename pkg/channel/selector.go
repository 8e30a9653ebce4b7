package channel

import (
	"context"
	"reflect"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// AllClosed is returned by Select when no enabled channel can become ready anymore.
const AllClosed = -1

// Selectable is a channel a Selector can wait on. It is implemented by *Channel[T] for any T.
type Selectable interface {
	Name() string
	IsClosed() bool
	poll() (ready, closed bool, notify <-chan struct{})
}

// Selector waits on several channels at once.
//
// A Selector keeps the round-robin offset between calls, so it must be used by a single goroutine.
type Selector struct {
	inputs []Selectable
	next   int
	logger *zap.Logger
}

// NewSelector creates a selector over inputs. Indexes returned by Select refer to this order.
func NewSelector(logger *zap.Logger, inputs ...Selectable) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Selector{
		inputs: inputs,
		logger: logger,
	}
}

// Select blocks until one of the enabled channels has an item ready to be read and returns its index.
// guards[i] set to false excludes channel i from this call even if it is ready.
//
// Select returns AllClosed when every enabled channel is closed, which includes the case where every
// channel is closed and the case where no channel is enabled. Callers should check IsClosed on each
// channel to decide whether to stop.
func (s *Selector) Select(ctx context.Context, guards []bool) (int, error) {
	if len(guards) != len(s.inputs) {
		return AllClosed, errors.Wrapf(ErrGuardMismatch, "%d guards for %d channels", len(guards), len(s.inputs))
	}

	total := len(s.inputs)
	cases := make([]reflect.SelectCase, 0, total+1)

	for {
		cases = cases[:0]
		waiting := false

		for offset := 0; offset < total; offset++ {
			idx := (s.next + offset) % total
			if !guards[idx] {
				continue
			}

			ready, closed, notify := s.inputs[idx].poll()
			if ready {
				s.next = (idx + 1) % total

				return idx, nil
			}

			if closed {
				continue
			}

			waiting = true

			cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(notify)})
		}

		if !waiting {
			s.logger.Debug("no enabled channel left open")

			return AllClosed, nil
		}

		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())})

		chosen, _, _ := reflect.Select(cases)
		if chosen == len(cases)-1 {
			return AllClosed, errors.Wrap(ctx.Err(), "select")
		}
	}
}
