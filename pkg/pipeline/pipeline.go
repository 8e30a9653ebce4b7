package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-geodiff/pkg/pipeline/model"
	"github.com/askiada/go-geodiff/pkg/process"
)

type runFn struct {
	name string
	fn   func(ctx context.Context) error
}

// Pipeline is a pipeline of steps.
type Pipeline struct {
	opts      []model.PipelineOption
	startTime time.Time
	logger    *zap.Logger
	names     map[string]struct{}
	steps     []runFn
	ran       atomic.Bool
}

// New creates a new pipeline.
func New(opts ...model.PipelineOption) (*Pipeline, error) {
	pipe := &Pipeline{
		startTime: time.Now(),
		opts:      opts,
		logger:    zap.NewNop(),
		names:     make(map[string]struct{}),
	}

	for _, opt := range opts {
		err := opt.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

// SetLogger sets the logger given to the channels and processes added afterwards.
func (p *Pipeline) SetLogger(logger *zap.Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// Run starts the pipeline and waits for it to finish. The first step error cancels the other steps.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.ran.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}

	errs := &stepErrors{}

	errGrp, dCtx := errgroup.WithContext(ctx)
	for _, step := range p.steps {
		step := step
		errGrp.Go(func() error {
			p.logger.Debug("step started", zap.String("step", step.name))

			err := stepError(step.name, step.fn(dCtx))
			if err != nil {
				p.logger.Debug("step failed", zap.String("step", step.name), zap.Error(err))
				errs.add(err)
			}

			return err
		})
	}

	// Wait for all steps to finish.
	_ = errGrp.Wait()

	if err := errs.cause(); err != nil {
		return err
	}

	return p.finishRun()
}

func (p *Pipeline) finishRun() error {
	for _, opt := range p.opts {
		err := opt.Finish()
		if err != nil {
			return errors.Wrap(err, "unable to finish pipeline option")
		}
	}

	return nil
}

func (p *Pipeline) register(name string) error {
	if _, ok := p.names[name]; ok {
		return errors.Wrap(ErrStepName, name)
	}

	p.names[name] = struct{}{}

	return nil
}

func (p *Pipeline) addRun(name string, fn func(ctx context.Context) error) {
	p.steps = append(p.steps, runFn{name: name, fn: fn})
}

func (p *Pipeline) prepareStep(parents []*model.StepInfo, step *model.StepInfo) error {
	for _, opt := range p.opts {
		err := opt.PrepareStep(parents, step)
		if err != nil {
			return errors.Wrapf(err, "unable to prepare step %s", step.Name)
		}
	}

	return nil
}

// outputHook forwards the durations of every item flowing from parent to step to the options.
func (p *Pipeline) outputHook(parent, step *model.StepInfo) process.OutputHook {
	if len(p.opts) == 0 {
		return nil
	}

	return func(iteration, computation time.Duration) error {
		for _, opt := range p.opts {
			err := opt.OnStepOutput(parent, step, iteration, computation)
			if err != nil {
				return errors.Wrap(err, "unable to run step output option")
			}
		}

		return nil
	}
}

func (p *Pipeline) afterStep(step *model.StepInfo) error {
	total := time.Since(p.startTime)
	for _, opt := range p.opts {
		err := opt.AfterStep(step, total)
		if err != nil {
			return errors.Wrap(err, "unable to run after step option")
		}
	}

	return nil
}

// finishStep runs the after step options unless the step failed.
func (p *Pipeline) finishStep(step *model.StepInfo, err error) error {
	if err != nil {
		return err
	}

	return p.afterStep(step)
}

func (p *Pipeline) runner(name string, hook process.OutputHook) *process.Runner {
	return process.NewRunner(name, process.WithLogger(p.logger), process.WithOutputHook(hook))
}
