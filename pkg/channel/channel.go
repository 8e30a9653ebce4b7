package channel

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type state int

const (
	stateOpen state = iota
	stateClosing
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateOpen:
		return "open"
	case stateClosing:
		return "closing"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// WritePolicy decides what a write does once every connected reader has gone.
type WritePolicy int

const (
	// WritePolicyError makes Write return ErrNoReaders.
	WritePolicyError WritePolicy = iota
	// WritePolicyDrop makes Write silently drop the item.
	WritePolicyDrop
)

type settings struct {
	bufferSize int
	policy     WritePolicy
	logger     *zap.Logger
}

type Option func(s *settings)

// WithBuffer backs the channel with a buffer of the given size. 0 keeps the rendezvous behaviour.
func WithBuffer(size int) Option {
	return func(s *settings) {
		s.bufferSize = size
	}
}

func WithWritePolicy(policy WritePolicy) Option {
	return func(s *settings) {
		s.policy = policy
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Channel is a typed, blocking conduit between connected writers and readers.
type Channel[T any] struct {
	name       string
	policy     WritePolicy
	rendezvous bool
	logger     *zap.Logger

	mu     sync.Mutex
	notify chan struct{}
	state  state
	store  *Buffer[T]

	// written counts items put in the store, taken counts items removed by readers. A rendezvous
	// writer waits until taken catches up with its own sequence number.
	written uint64
	taken   uint64

	readers     int
	writers     int
	readersSeen bool
}

// New creates an open channel.
func New[T any](name string, opts ...Option) (*Channel[T], error) {
	cfg := &settings{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.bufferSize < 0 {
		return nil, errors.Wrapf(ErrBufferSize, "channel %s", name)
	}

	capacity := cfg.bufferSize
	if capacity == 0 {
		capacity = 1
	}

	store, err := NewBuffer[T](capacity)
	if err != nil {
		return nil, errors.Wrapf(err, "channel %s", name)
	}

	return &Channel[T]{
		name:       name,
		policy:     cfg.policy,
		rendezvous: cfg.bufferSize == 0,
		logger:     cfg.logger.With(zap.String("channel", name)),
		notify:     make(chan struct{}),
		store:      store,
	}, nil
}

func (c *Channel[T]) Name() string {
	return c.name
}

// Cap returns the buffer size, 0 for a rendezvous channel.
func (c *Channel[T]) Cap() int {
	if c.rendezvous {
		return 0
	}

	return c.store.Cap()
}

// Len returns the number of items waiting to be read.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Len()
}

// IsClosed reports whether the channel is closed and fully drained.
func (c *Channel[T]) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closedLocked()
}

// Write hands item over to a reader. It blocks until a reader takes the item, or, for a buffered
// channel, until a slot is free.
func (c *Channel[T]) Write(ctx context.Context, item T) error {
	c.mu.Lock()
	for {
		if err := c.writableLocked(); err != nil {
			c.mu.Unlock()

			return c.rejected(err)
		}

		if !c.store.Full() {
			break
		}

		wait := c.notify
		c.mu.Unlock()

		if err := c.wait(ctx, wait); err != nil {
			return err
		}

		c.mu.Lock()
	}

	_ = c.store.Put(item)
	c.written++
	seq := c.written
	c.broadcastLocked()

	if !c.rendezvous {
		c.mu.Unlock()

		return nil
	}

	for c.taken < seq {
		if c.state == stateClosed {
			c.mu.Unlock()

			return errors.Wrapf(ErrClosed, "channel %s", c.name)
		}

		if c.readersGoneLocked() {
			c.withdrawLocked()
			c.mu.Unlock()

			return c.rejected(ErrNoReaders)
		}

		wait := c.notify
		c.mu.Unlock()

		if err := c.wait(ctx, wait); err != nil {
			c.mu.Lock()
			if c.taken < seq && c.state != stateClosed {
				c.withdrawLocked()
			}
			c.mu.Unlock()

			return err
		}

		c.mu.Lock()
	}
	c.mu.Unlock()

	return nil
}

// Read takes the next item. ok is false, with a nil error, once the channel is closed and empty.
func (c *Channel[T]) Read(ctx context.Context) (T, bool, error) {
	var zero T

	c.mu.Lock()
	for {
		if c.store.Len() > 0 {
			item, _ := c.store.Get()
			c.taken++

			if c.state == stateClosing && c.store.Len() == 0 {
				c.setStateLocked(stateClosed)
			}

			c.broadcastLocked()
			c.mu.Unlock()

			return item, true, nil
		}

		if c.state != stateOpen {
			if c.state == stateClosing {
				c.setStateLocked(stateClosed)
				c.broadcastLocked()
			}
			c.mu.Unlock()

			return zero, false, nil
		}

		wait := c.notify
		c.mu.Unlock()

		if err := c.wait(ctx, wait); err != nil {
			return zero, false, err
		}

		c.mu.Lock()
	}
}

// ReadConnect registers a reader.
func (c *Channel[T]) ReadConnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.readers++
	c.readersSeen = true
}

// ReadDisconnect unregisters a reader. Writers blocked on a channel without readers are released.
func (c *Channel[T]) ReadDisconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.readers == 0 {
		c.logger.Debug("read disconnect without connected reader")

		return
	}

	c.readers--
	if c.readers == 0 {
		c.logger.Debug("last reader disconnected")
		c.broadcastLocked()
	}
}

// WriteConnect registers a writer. It fails once the channel has started closing.
func (c *Channel[T]) WriteConnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != stateOpen {
		return errors.Wrapf(ErrClosed, "channel %s", c.name)
	}

	c.writers++

	return nil
}

// WriteDisconnect unregisters a writer. The last writer leaving closes the channel once it is drained.
func (c *Channel[T]) WriteDisconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writers == 0 {
		c.logger.Debug("write disconnect without connected writer")

		return
	}

	c.writers--
	if c.writers > 0 || c.state != stateOpen {
		return
	}

	if c.store.Len() == 0 {
		c.setStateLocked(stateClosed)
	} else {
		c.setStateLocked(stateClosing)
	}

	c.broadcastLocked()
}

// Close force-closes the channel. Buffered items are discarded.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == stateClosed {
		return
	}

	if dropped := c.store.Len(); dropped > 0 {
		c.logger.Debug("discarding buffered items", zap.Int("dropped", dropped))
	}

	c.store.Reset()
	c.setStateLocked(stateClosed)
	c.broadcastLocked()
}

// poll returns the readiness of the channel together with the notification channel to wait on when
// it is not ready. Both are captured under the same lock so a change happening right after the call
// still closes the returned notification channel.
func (c *Channel[T]) poll() (bool, bool, <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Len() > 0, c.closedLocked(), c.notify
}

func (c *Channel[T]) closedLocked() bool {
	return c.state == stateClosed || (c.state == stateClosing && c.store.Len() == 0)
}

func (c *Channel[T]) readersGoneLocked() bool {
	return c.readersSeen && c.readers == 0
}

func (c *Channel[T]) writableLocked() error {
	if c.state != stateOpen {
		return ErrClosed
	}

	if c.readersGoneLocked() {
		return ErrNoReaders
	}

	return nil
}

// withdrawLocked removes the item a rendezvous writer left in the store before any reader took it.
func (c *Channel[T]) withdrawLocked() {
	_, _ = c.store.Get()
	c.written--
	c.broadcastLocked()
}

func (c *Channel[T]) rejected(err error) error {
	if errors.Is(err, ErrNoReaders) && c.policy == WritePolicyDrop {
		c.logger.Debug("dropping item written without readers")

		return nil
	}

	return errors.Wrapf(err, "channel %s", c.name)
}

func (c *Channel[T]) setStateLocked(s state) {
	c.logger.Debug("channel state change", zap.Stringer("from", c.state), zap.Stringer("to", s))
	c.state = s
}

func (c *Channel[T]) broadcastLocked() {
	close(c.notify)
	c.notify = make(chan struct{})
}

func (c *Channel[T]) wait(ctx context.Context, notify <-chan struct{}) error {
	select {
	case <-ctx.Done():
		return errors.Wrapf(ctx.Err(), "channel %s", c.name)
	case <-notify:
		return nil
	}
}
