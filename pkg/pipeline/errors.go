package pipeline

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/askiada/go-geodiff/pkg/channel"
)

var (
	ErrPipelineMustBeSet = errors.New("p must be set")
	ErrInputMustBeSet    = errors.New("input must be set")
	ErrSplitterTotal     = errors.New("total must be greater than 0")
	ErrMergerInputs      = errors.New("merger needs at least one input")
	ErrAlreadyRun        = errors.New("pipeline has already been run")
	ErrStepName          = errors.New("step name is already used")
)

// stepError wraps the error returned by a step with its name.
func stepError(name string, err error) error {
	if err == nil {
		return nil
	}

	return errors.Wrapf(err, "step %s", name)
}

type stepErrors struct {
	mu   sync.Mutex
	list []error
}

func (se *stepErrors) add(err error) {
	se.mu.Lock()
	defer se.mu.Unlock()
	se.list = append(se.list, err)
}

// cause returns the first error that is not the consequence of another step stopping: a cancelled
// context or a write with no reader left. It falls back to the first error.
func (se *stepErrors) cause() error {
	se.mu.Lock()
	defer se.mu.Unlock()

	for _, err := range se.list {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, channel.ErrNoReaders) {
			return err
		}
	}

	if len(se.list) > 0 {
		return se.list[0]
	}

	return nil
}
