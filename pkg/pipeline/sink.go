package pipeline

import (
	"context"
	"time"

	"github.com/askiada/go-geodiff/pkg/channel"
	"github.com/askiada/go-geodiff/pkg/pipeline/model"
	"github.com/askiada/go-geodiff/pkg/process"
)

func addTerminal(p *Pipeline, stepType model.StepType, name string, parents ...*model.StepInfo) (*model.StepInfo, error) {
	if err := p.register(name); err != nil {
		return nil, err
	}

	details := &model.StepInfo{
		Type:       stepType,
		Name:       name,
		Concurrent: 1,
	}

	if err := p.prepareStep(parents, details); err != nil {
		return nil, err
	}

	return details, nil
}

// AddSink adds a step consuming input with proc.
func AddSink[I any](p *Pipeline, name string, input *Step[I], proc process.Sink[I]) error {
	if p == nil {
		return ErrPipelineMustBeSet
	}

	if input == nil {
		return ErrInputMustBeSet
	}

	details, err := addTerminal(p, model.SinkStepType, name, input.details)
	if err != nil {
		return err
	}

	input.Output.ReadConnect()

	p.addRun(name, func(ctx context.Context) error {
		err := process.RunSink(ctx, p.runner(name, nil), proc, input.Output)

		return p.finishStep(details, err)
	})

	return nil
}

// AddSinkFunc adds a step calling sinkFn on every item of input.
func AddSinkFunc[I any](p *Pipeline, name string, input *Step[I], sinkFn func(ctx context.Context, input I) error) error {
	if p == nil {
		return ErrPipelineMustBeSet
	}

	if input == nil {
		return ErrInputMustBeSet
	}

	details, err := addTerminal(p, model.SinkStepType, name, input.details)
	if err != nil {
		return err
	}

	input.Output.ReadConnect()

	proc := &funcSink[I]{fn: sinkFn, hook: p.outputHook(input.details, details)}

	p.addRun(name, func(ctx context.Context) error {
		err := process.RunSink(ctx, p.runner(name, nil), proc, input.Output)

		return p.finishStep(details, err)
	})

	return nil
}

type funcSink[I any] struct {
	fn   func(ctx context.Context, input I) error
	hook process.OutputHook
}

func (s *funcSink[I]) Init(context.Context) error {
	return nil
}

func (s *funcSink[I]) Run(ctx context.Context, in *channel.Channel[I]) error {
	for {
		startInputChan := time.Now()

		item, ok, err := in.Read(ctx)
		if err != nil {
			return err
		}

		if !ok {
			return nil
		}

		startFn := time.Now()
		if err := s.fn(ctx, item); err != nil {
			return err
		}

		if s.hook != nil {
			if err := s.hook(time.Since(startInputChan), time.Since(startFn)); err != nil {
				return err
			}
		}
	}
}

func (s *funcSink[I]) Destroy() error {
	return nil
}
