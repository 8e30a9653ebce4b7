// Package drawer renders the topology of a pipeline as a Graphviz DOT graph. Steps are shaped by
// type and, once a measure is added, labelled with their durations; links are coloured from blue
// for the fastest transport to red for the slowest.
package drawer

import (
	"time"

	"github.com/askiada/go-geodiff/pkg/pipeline/measure"
	"github.com/askiada/go-geodiff/pkg/pipeline/model"
)

// Drawer draws a pipeline.
type Drawer interface {
	AddStep(step *model.StepInfo) error
	// AddLink links a step to one of its inputs. Both steps must have been added.
	AddLink(parentStepName, childStepName string) error
	// SetTotalTime records the time elapsed since startTime on the step.
	SetTotalTime(stepName string, startTime time.Time) error
	AddMeasure(measure measure.Measure) error
	// Draw writes the graph.
	Draw() error
}
