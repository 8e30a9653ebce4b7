package pipeline

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-geodiff/pkg/channel"
	"github.com/askiada/go-geodiff/pkg/pipeline/model"
	"github.com/askiada/go-geodiff/pkg/process"
)

// Step is a step with an output channel that other steps can read from.
type Step[O any] struct {
	Output  *channel.Channel[O]
	details *model.StepInfo
}

func (s *Step[O]) Name() string {
	return s.details.Name
}

// Info describes the step.
func (s *Step[O]) Info() *model.StepInfo {
	return s.details
}

func newStep[O any](p *Pipeline, stepType model.StepType, name string, cfg stepConfig) (*Step[O], error) {
	if err := p.register(name); err != nil {
		return nil, err
	}

	output, err := channel.New[O](name,
		channel.WithBuffer(cfg.bufferSize),
		channel.WithWritePolicy(cfg.writePolicy),
		channel.WithLogger(p.logger),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create output of step %s", name)
	}

	return &Step[O]{
		Output: output,
		details: &model.StepInfo{
			Type:       stepType,
			Name:       name,
			Concurrent: cfg.concurrent,
			BufferSize: cfg.bufferSize,
		},
	}, nil
}

// AddSource adds a step producing items. sourceFn writes into the output channel of the step, which
// is released once sourceFn returns.
func AddSource[O any](p *Pipeline, name string, sourceFn func(ctx context.Context, output *channel.Channel[O]) error, opts ...StepOption) (*Step[O], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	step, err := newStep[O](p, model.SourceStepType, name, newStepConfig(opts))
	if err != nil {
		return nil, err
	}

	err = p.prepareStep([]*model.StepInfo{model.StartStep}, step.details)
	if err != nil {
		return nil, err
	}

	if err := step.Output.WriteConnect(); err != nil {
		return nil, errors.Wrapf(err, "unable to connect source %s", name)
	}

	p.addRun(name, func(ctx context.Context) error {
		defer step.Output.WriteDisconnect()

		return p.finishStep(step.details, sourceFn(ctx, step.Output))
	})

	return step, nil
}

// AddTransform adds a step running proc on every item of input. With a concurrency greater than one,
// the workers share proc: Init and Destroy run once per worker.
func AddTransform[I, O any](p *Pipeline, name string, input *Step[I], proc process.Transform[I, O], opts ...StepOption) (*Step[O], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	if input == nil {
		return nil, ErrInputMustBeSet
	}

	step, err := newStep[O](p, model.TransformStepType, name, newStepConfig(opts))
	if err != nil {
		return nil, err
	}

	err = p.prepareStep([]*model.StepInfo{input.details}, step.details)
	if err != nil {
		return nil, err
	}

	workers := step.details.Concurrent
	conns := &wiring{}
	for i := 0; i < workers; i++ {
		conns.connectReader(input.Output)

		if err := conns.connectWriter(step.Output); err != nil {
			conns.rollback()

			return nil, errors.Wrapf(err, "unable to connect transform %s", name)
		}
	}

	hook := p.outputHook(input.details, step.details)

	p.addRun(name, func(ctx context.Context) error {
		if workers == 1 {
			err := process.RunTransform(ctx, p.runner(name, hook), proc, input.Output, step.Output)

			return p.finishStep(step.details, err)
		}

		errGrp, dCtx := errgroup.WithContext(ctx)
		errGrp.SetLimit(workers)
		// each worker stops as soon as one of them fails
		for goIdx := 0; goIdx < workers; goIdx++ {
			runner := p.runner(fmt.Sprintf("%s/%d", name, goIdx), hook)
			errGrp.Go(func() error {
				return process.RunTransform(dCtx, runner, proc, input.Output, step.Output)
			})
		}

		return p.finishStep(step.details, errGrp.Wait())
	})

	return step, nil
}

// AddMap adds a transform step applying mapFn to every item of input.
func AddMap[I, O any](p *Pipeline, name string, input *Step[I], mapFn func(ctx context.Context, input I) (O, error), opts ...StepOption) (*Step[O], error) {
	return AddTransform(p, name, input, process.MapFunc(mapFn), opts...)
}

// AddFilter adds a transform step keeping the items of input accepted by filterFn.
func AddFilter[I any](p *Pipeline, name string, input *Step[I], filterFn func(ctx context.Context, input I) (bool, error), opts ...StepOption) (*Step[I], error) {
	return AddTransform(p, name, input, process.FilterFunc(filterFn), opts...)
}
