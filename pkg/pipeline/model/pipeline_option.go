package model

import "time"

// PipelineOption defines the interface for pipeline options.
type PipelineOption interface {
	// New initialises the pipeline option.
	New() error
	// PrepareStep runs when a step is added to the pipeline, before it is started.
	PrepareStep(parents []*StepInfo, step *StepInfo) error
	// OnStepOutput runs everytime something is pushed to the output of the step, or consumed by a
	// terminal step. parent is the step the item was read from.
	OnStepOutput(parent, step *StepInfo, iterationDuration, computationDuration time.Duration) error
	// AfterStep runs once the step returned. totalDuration is measured from the pipeline creation.
	AfterStep(step *StepInfo, totalDuration time.Duration) error
	// Finish runs after the pipeline is finished.
	Finish() error
}
