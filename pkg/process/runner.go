package process

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/askiada/go-geodiff/pkg/channel"
)

var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// State is a step of the process lifecycle: Created, Initialized, Running, Destroyed.
type State int32

const (
	StateCreated State = iota
	StateInitialized
	StateRunning
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// OutputHook is called after every item a transform writes. iteration covers the whole loop turn,
// computation only the Transform call. An error stops the transform.
type OutputHook func(iteration, computation time.Duration) error

type RunnerOption func(r *Runner)

func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithOutputHook(hook OutputHook) RunnerOption {
	return func(r *Runner) {
		r.onOutput = hook
	}
}

// Runner drives a single run of a process and tracks its lifecycle state. A runner cannot be reused.
type Runner struct {
	name     string
	logger   *zap.Logger
	onOutput OutputHook

	state       atomic.Int32
	destroyOnce sync.Once
}

func NewRunner(name string, opts ...RunnerOption) *Runner {
	r := &Runner{
		name:   name,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.logger = r.logger.With(zap.String("process", name))

	return r
}

func (r *Runner) Name() string {
	return r.name
}

func (r *Runner) State() State {
	return State(r.state.Load())
}

func (r *Runner) transition(from, to State) error {
	if !r.state.CompareAndSwap(int32(from), int32(to)) {
		return errors.Wrapf(ErrInvalidTransition, "process %s: %s to %s while %s", r.name, from, to, r.State())
	}

	r.logger.Debug("process state change", zap.Stringer("from", from), zap.Stringer("to", to))

	return nil
}

func (r *Runner) init(ctx context.Context, initFn func(context.Context) error) error {
	if err := r.transition(StateCreated, StateInitialized); err != nil {
		return err
	}

	if err := initFn(ctx); err != nil {
		return &LifecycleError{Process: r.name, Phase: PhaseInit, Err: err}
	}

	return r.transition(StateInitialized, StateRunning)
}

// destroy calls destroyFn once, the first time it is reached.
func (r *Runner) destroy(destroyFn func() error) error {
	var err error

	r.destroyOnce.Do(func() {
		r.state.Store(int32(StateDestroyed))
		r.logger.Debug("process destroyed")

		if destroyErr := destroyFn(); destroyErr != nil {
			err = &LifecycleError{Process: r.name, Phase: PhaseDestroy, Err: destroyErr}
		}
	})

	return err
}

func (r *Runner) finish(runErr error, destroyFn func() error) error {
	err := r.destroy(destroyFn)
	if runErr == nil {
		return err
	}

	if err != nil {
		r.logger.Error("process failed and could not release its resources", zap.Error(err))

		return stderrors.Join(runErr, err)
	}

	return runErr
}

// RunSink runs a sink process on the calling goroutine. The caller must have read-connected in; the
// connection is released when RunSink returns.
func RunSink[I any](ctx context.Context, r *Runner, p Sink[I], in *channel.Channel[I]) (err error) {
	defer in.ReadDisconnect()

	defer func() {
		err = r.finish(err, p.Destroy)
	}()

	if err := r.init(ctx, p.Init); err != nil {
		return err
	}

	if err := p.Run(ctx, in); err != nil {
		return errors.Wrapf(err, "process %s", r.name)
	}

	return nil
}

// RunTransform runs a transform process on the calling goroutine. The caller must have read-connected
// in and write-connected out. When in is closed, RunTransform returns and its write connection to out
// is released, which closes out once no other writer is left.
func RunTransform[I, O any](ctx context.Context, r *Runner, p Transform[I, O], in *channel.Channel[I], out *channel.Channel[O]) (err error) {
	defer out.WriteDisconnect()
	defer in.ReadDisconnect()

	defer func() {
		err = r.finish(err, p.Destroy)
	}()

	if err := r.init(ctx, p.Init); err != nil {
		return err
	}

	for {
		start := time.Now()

		item, ok, err := in.Read(ctx)
		if err != nil {
			return errors.Wrapf(err, "process %s", r.name)
		}

		if !ok {
			return nil
		}

		startFn := time.Now()

		res, keep, err := p.Transform(ctx, item)
		if err != nil {
			return errors.Wrapf(err, "process %s", r.name)
		}

		endFn := time.Since(startFn)

		if !keep {
			continue
		}

		if err := out.Write(ctx, res); err != nil {
			return errors.Wrapf(err, "process %s", r.name)
		}

		if r.onOutput != nil {
			if err := r.onOutput(time.Since(start), endFn); err != nil {
				return errors.Wrapf(err, "process %s: output hook", r.name)
			}
		}
	}
}
