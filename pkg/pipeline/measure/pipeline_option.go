package measure

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-geodiff/pkg/pipeline/model"
)

var ErrUnknownStep = errors.New("no metric for step")

type pipelineMeasure struct {
	Measure
}

func (pm *pipelineMeasure) New() error {
	pm.AddMetric(model.StartStep.Name, 1)
	pm.AddMetric(model.EndStep.Name, 1)

	return nil
}

func (pm *pipelineMeasure) PrepareStep(_ []*model.StepInfo, step *model.StepInfo) error {
	pm.AddMetric(step.Name, step.Concurrent)

	return nil
}

func (pm *pipelineMeasure) OnStepOutput(parentStep, step *model.StepInfo, iterationDuration, computationDuration time.Duration) error {
	mt := pm.GetMetric(step.Name)
	if mt == nil {
		return errors.Wrap(ErrUnknownStep, step.Name)
	}

	mt.AddDuration(computationDuration)
	mt.AddTransportDuration(parentStep.Name, iterationDuration)

	return nil
}

func (pm *pipelineMeasure) AfterStep(step *model.StepInfo, totalDuration time.Duration) error {
	mt := pm.GetMetric(step.Name)
	if mt == nil {
		return errors.Wrap(ErrUnknownStep, step.Name)
	}

	mt.SetTotalDuration(totalDuration)

	return nil
}

func (pm *pipelineMeasure) Finish() error {
	return nil
}

// PipelineMeasure records the durations of every step of a pipeline into measure.
func PipelineMeasure(measure Measure) model.PipelineOption {
	return &pipelineMeasure{measure}
}
