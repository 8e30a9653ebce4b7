package model

type StepType string

const (
	StartStepType     StepType = "start"
	EndStepType       StepType = "end"
	SourceStepType    StepType = "source"
	TransformStepType StepType = "transform"
	SinkStepType      StepType = "sink"
	CompareStepType   StepType = "compare"
)

// StepInfo describes a step of the pipeline.
type StepInfo struct {
	Type       StepType
	Name       string
	Concurrent int
	BufferSize int
}

// Terminal reports whether the step has no output channel.
func (s *StepInfo) Terminal() bool {
	return s.Type == SinkStepType || s.Type == CompareStepType
}

var (
	// StartStep is the parent of every source.
	StartStep = &StepInfo{Type: StartStepType, Name: "start", Concurrent: 1}
	// EndStep follows every terminal step.
	EndStep = &StepInfo{Type: EndStepType, Name: "end", Concurrent: 1}
)
