package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-geodiff/pkg/channel"
	"github.com/askiada/go-geodiff/pkg/pipeline/model"
	"github.com/askiada/go-geodiff/pkg/process"
)

// AddSplitter adds a step copying every item of input to total output steps. The outputs are named
// after the splitter with their index. A slow output holds the others back once its buffer is full.
func AddSplitter[I any](p *Pipeline, name string, input *Step[I], total int, opts ...StepOption) ([]*Step[I], error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	if input == nil {
		return nil, ErrInputMustBeSet
	}

	if total <= 0 {
		return nil, ErrSplitterTotal
	}

	cfg := newStepConfig(opts)
	if cfg.bufferSize == 0 {
		cfg.bufferSize = 1
	}

	if err := p.register(name); err != nil {
		return nil, err
	}

	details := &model.StepInfo{
		Type:       model.TransformStepType,
		Name:       name,
		Concurrent: 1,
		BufferSize: cfg.bufferSize,
	}

	err := p.prepareStep([]*model.StepInfo{input.details}, details)
	if err != nil {
		return nil, err
	}

	conns := &wiring{}
	outputs := make([]*Step[I], total)
	for i := range outputs {
		output, err := newStep[I](p, model.TransformStepType, fmt.Sprintf("%s/%d", name, i), cfg)
		if err != nil {
			conns.rollback()

			return nil, err
		}

		err = p.prepareStep([]*model.StepInfo{details}, output.details)
		if err != nil {
			conns.rollback()

			return nil, err
		}

		if err := conns.connectWriter(output.Output); err != nil {
			conns.rollback()

			return nil, errors.Wrapf(err, "unable to connect splitter output %s", output.Name())
		}

		outputs[i] = output
	}

	conns.connectReader(input.Output)

	p.addRun(name, func(ctx context.Context) error {
		defer func() {
			for _, output := range outputs {
				output.Output.WriteDisconnect()
			}
		}()
		defer input.Output.ReadDisconnect()

		return p.finishStep(details, runSplitter(ctx, p, input, details, outputs))
	})

	return outputs, nil
}

func runSplitter[I any](ctx context.Context, p *Pipeline, input *Step[I], details *model.StepInfo, outputs []*Step[I]) error {
	hooks := make([]process.OutputHook, len(outputs))
	for i, output := range outputs {
		hooks[i] = p.outputHook(details, output.details)
	}

	for {
		startIter := time.Now()

		entry, ok, err := input.Output.Read(ctx)
		if err != nil {
			return err
		}

		if !ok {
			return nil
		}

		for i, output := range outputs {
			startFn := time.Now()

			err := output.Output.Write(ctx, entry)
			if errors.Is(err, channel.ErrNoReaders) {
				// the output has no consumer left, the other outputs still get the item
				continue
			}

			if err != nil {
				return err
			}

			if hooks[i] != nil {
				if err := hooks[i](time.Since(startIter), time.Since(startFn)); err != nil {
					return err
				}
			}
		}
	}
}
