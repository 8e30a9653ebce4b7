// Package process runs pipeline processes: single goroutine units of work reading from and writing to
// channels, with an Init, Run and Destroy lifecycle.
//
// Two shapes exist. A Sink only consumes its input channel and drives its own loop. A Transform maps
// or filters every record of its input channel onto an output channel; the loop is provided by
// RunTransform. Both runners guarantee that Destroy is called exactly once, whether the process
// returns normally, fails or panics.
package process

import (
	"context"
	"fmt"

	"github.com/askiada/go-geodiff/pkg/channel"
)

// Sink is an input only process.
type Sink[I any] interface {
	// Init acquires the resources needed by Run.
	Init(ctx context.Context) error
	// Run consumes in until it is closed or the process decides to stop.
	Run(ctx context.Context, in *channel.Channel[I]) error
	// Destroy releases the resources acquired by Init. It is called even when Init failed.
	Destroy() error
}

// Transform is an input to output process. Transform returns false to filter an item out.
type Transform[I, O any] interface {
	Init(ctx context.Context) error
	Transform(ctx context.Context, input I) (O, bool, error)
	Destroy() error
}

// Phase identifies the lifecycle hook that failed.
type Phase string

const (
	PhaseInit    Phase = "init"
	PhaseDestroy Phase = "destroy"
)

// LifecycleError reports a failure while acquiring or releasing the resources of a process.
type LifecycleError struct {
	Process string
	Phase   Phase
	Err     error
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("process %s: %s: %v", e.Process, e.Phase, e.Err)
}

func (e *LifecycleError) Unwrap() error {
	return e.Err
}

type transformFunc[I, O any] struct {
	fn func(ctx context.Context, input I) (O, bool, error)
}

// TransformFunc adapts a function into a Transform without resources to manage.
func TransformFunc[I, O any](fn func(ctx context.Context, input I) (O, bool, error)) Transform[I, O] {
	return &transformFunc[I, O]{fn: fn}
}

func (t *transformFunc[I, O]) Init(context.Context) error {
	return nil
}

func (t *transformFunc[I, O]) Transform(ctx context.Context, input I) (O, bool, error) {
	return t.fn(ctx, input)
}

func (t *transformFunc[I, O]) Destroy() error {
	return nil
}

// MapFunc adapts a one to one function into a Transform.
func MapFunc[I, O any](fn func(ctx context.Context, input I) (O, error)) Transform[I, O] {
	return TransformFunc(func(ctx context.Context, input I) (O, bool, error) {
		out, err := fn(ctx, input)

		return out, err == nil, err
	})
}

// FilterFunc adapts a predicate into a Transform keeping the items it accepts.
func FilterFunc[I any](fn func(ctx context.Context, input I) (bool, error)) Transform[I, I] {
	return TransformFunc(func(ctx context.Context, input I) (I, bool, error) {
		keep, err := fn(ctx, input)

		return input, keep, err
	})
}
