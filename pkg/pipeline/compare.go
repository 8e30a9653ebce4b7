package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-geodiff/pkg/compare"
	"github.com/askiada/go-geodiff/pkg/pipeline/model"
	"github.com/askiada/go-geodiff/pkg/process"
	"github.com/askiada/go-geodiff/pkg/record"
)

// AddCompare adds a step diffing the records of source against the records of other. Both inputs
// must be sorted by cfg.KeyAttribute. The records of other are relayed into the input channel owned
// by the processor.
func AddCompare(p *Pipeline, name string, source, other *Step[*record.Record], cfg compare.Config, sink compare.LogSink, opts ...compare.Option) (*compare.Processor, error) {
	if p == nil {
		return nil, ErrPipelineMustBeSet
	}

	if source == nil || other == nil {
		return nil, ErrInputMustBeSet
	}

	procOpts := append([]compare.Option{compare.WithLogger(p.logger)}, opts...)

	proc, err := compare.New(cfg, sink, procOpts...)
	if err != nil {
		return nil, err
	}

	details, err := addTerminal(p, model.CompareStepType, name, source.details, other.details)
	if err != nil {
		return nil, err
	}

	conns := &wiring{}
	conns.connectReader(source.Output)
	conns.connectReader(other.Output)

	if err := conns.connectWriter(proc.Other()); err != nil {
		conns.rollback()
		proc.Other().ReadDisconnect()

		return nil, err
	}

	relayName := name + "/" + other.Name()
	relay := process.MapFunc(func(_ context.Context, rec *record.Record) (*record.Record, error) {
		return rec, nil
	})
	hook := p.outputHook(other.details, details)

	p.addRun(name, func(ctx context.Context) error {
		errGrp, dCtx := errgroup.WithContext(ctx)
		errGrp.Go(func() error {
			return process.RunTransform(dCtx, p.runner(relayName, hook), relay, other.Output, proc.Other())
		})
		errGrp.Go(func() error {
			return process.RunSink(dCtx, p.runner(name, nil), proc, source.Output)
		})

		return p.finishStep(details, errGrp.Wait())
	})

	return proc, nil
}
