package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-geodiff/pkg/pipeline/model"
	"github.com/askiada/go-geodiff/pkg/process"
)

// AddMerger adds a step merging the output of the steps into a single channel. Items keep the order
// they have within their own input; the inputs are interleaved as they arrive. The output is closed
// once every input is closed.
func AddMerger[I any](p *Pipeline, name string, steps []*Step[I], opts ...StepOption) (*Step[I], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	if len(steps) == 0 {
		return nil, ErrMergerInputs
	}

	parents := make([]*model.StepInfo, len(steps))
	for i, step := range steps {
		if step == nil {
			return nil, ErrInputMustBeSet
		}

		parents[i] = step.details
	}

	outputStep, err := newStep[I](p, model.TransformStepType, name, newStepConfig(opts))
	if err != nil {
		return nil, err
	}

	err = p.prepareStep(parents, outputStep.details)
	if err != nil {
		return nil, err
	}

	// one writer per input, the output closes when the last one returns
	conns := &wiring{}
	for _, step := range steps {
		conns.connectReader(step.Output)

		if err := conns.connectWriter(outputStep.Output); err != nil {
			conns.rollback()

			return nil, err
		}
	}

	identity := process.MapFunc(func(_ context.Context, item I) (I, error) {
		return item, nil
	})

	p.addRun(name, func(ctx context.Context) error {
		errGrp, dCtx := errgroup.WithContext(ctx)
		for _, step := range steps {
			runner := p.runner(name+"/"+step.Name(), p.outputHook(step.details, outputStep.details))
			input := step.Output
			errGrp.Go(func() error {
				return process.RunTransform(dCtx, runner, identity, input, outputStep.Output)
			})
		}

		return p.finishStep(outputStep.details, errGrp.Wait())
	})

	return outputStep, nil
}
