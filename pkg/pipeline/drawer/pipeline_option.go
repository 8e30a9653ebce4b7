package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-geodiff/pkg/pipeline/measure"
	"github.com/askiada/go-geodiff/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m         measure.Measure
	startTime time.Time
}

func (pd *pipelineDrawer) New() error {
	err := pd.AddStep(model.StartStep)
	if err != nil {
		return errors.Wrap(err, "unable to add start step to drawer")
	}

	err = pd.AddStep(model.EndStep)
	if err != nil {
		return errors.Wrap(err, "unable to add end step to drawer")
	}

	return nil
}

func (pd *pipelineDrawer) PrepareStep(parentSteps []*model.StepInfo, step *model.StepInfo) error {
	err := pd.AddStep(step)
	if err != nil {
		return err
	}

	for _, parentStep := range parentSteps {
		err := pd.AddLink(parentStep.Name, step.Name)
		if err != nil {
			return err
		}
	}

	if step.Terminal() {
		return pd.AddLink(step.Name, model.EndStep.Name)
	}

	return nil
}

func (pd *pipelineDrawer) OnStepOutput(_, _ *model.StepInfo, _, _ time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) AfterStep(_ *model.StepInfo, _ time.Duration) error {
	return nil
}

func (pd *pipelineDrawer) Finish() error {
	if pd.m != nil {
		err := pd.SetTotalTime(model.EndStep.Name, pd.startTime)
		if err != nil {
			return errors.Wrap(err, "unable to set total time")
		}

		err = pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err := pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer draws the pipeline once it has finished. measure is optional; when set, the graph
// is annotated with its durations.
func PipelineDrawer(drawer Drawer, measure measure.Measure) model.PipelineOption {
	return &pipelineDrawer{drawer, measure, time.Now()}
}
