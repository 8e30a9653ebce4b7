package drawer

import (
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/colors.v1" //nolint

	"github.com/askiada/go-geodiff/pkg/pipeline/measure"
	"github.com/askiada/go-geodiff/pkg/pipeline/model"
)

const maxRGB = 240

var shapes = map[model.StepType]string{
	model.StartStepType:     "circle",
	model.EndStepType:       "doublecircle",
	model.SourceStepType:    "invhouse",
	model.TransformStepType: "box",
	model.SinkStepType:      "house",
	model.CompareStepType:   "diamond",
}

// DOTDrawer writes the pipeline graph to a DOT file.
type DOTDrawer struct {
	dotFileName string
	steps       graph.Graph[string, *model.StepInfo]

	durations  map[string]time.Duration
	ends       map[string]time.Duration
	transports map[string]map[string]time.Duration
	notes      map[string]func() string
}

func stepName(step *model.StepInfo) string {
	return step.Name
}

// NewDOTDrawer creates a drawer writing to dotFileName.
func NewDOTDrawer(dotFileName string) *DOTDrawer {
	return &DOTDrawer{
		dotFileName: dotFileName,
		steps:       graph.New(stepName, graph.Directed()),
		durations:   make(map[string]time.Duration),
		ends:        make(map[string]time.Duration),
		transports:  make(map[string]map[string]time.Duration),
		notes:       make(map[string]func() string),
	}
}

func (d *DOTDrawer) AddStep(step *model.StepInfo) error {
	return errors.Wrapf(d.steps.AddVertex(step), "unable to add step %s", step.Name)
}

func (d *DOTDrawer) AddLink(parentStepName, childStepName string) error {
	return errors.Wrapf(d.steps.AddEdge(parentStepName, childStepName), "unable to link %s to %s", parentStepName, childStepName)
}

func (d *DOTDrawer) SetTotalTime(stepName string, startTime time.Time) error {
	if _, err := d.steps.Vertex(stepName); err != nil {
		return errors.Wrapf(err, "unable to set total time of %s", stepName)
	}

	d.ends[stepName] = time.Since(startTime)

	return nil
}

// Annotate adds the text returned by note to the label of the step. note is called when the graph
// is rendered, so it can report figures known only once the pipeline has run.
func (d *DOTDrawer) Annotate(stepName string, note func() string) error {
	if _, err := d.steps.Vertex(stepName); err != nil {
		return errors.Wrapf(err, "unable to annotate %s", stepName)
	}

	d.notes[stepName] = note

	return nil
}

// AddMeasure keeps the durations of the steps and links of the graph. Metrics of unknown steps or
// links are ignored.
func (d *DOTDrawer) AddMeasure(msr measure.Measure) error {
	for name, mt := range msr.AllMetrics() {
		if _, err := d.steps.Vertex(name); err != nil {
			continue
		}

		if avg := mt.AVGDuration(); avg > 0 {
			d.durations[name] = avg
		}

		if end := mt.GetTotalDuration(); end > 0 {
			d.ends[name] = end
		}

		for input, info := range mt.AVGTransportDuration() {
			if info.Elapsed == 0 {
				continue
			}

			if _, err := d.steps.Edge(input, name); err != nil {
				continue
			}

			if d.transports[input] == nil {
				d.transports[input] = make(map[string]time.Duration)
			}

			d.transports[input][name] = info.Elapsed
		}
	}

	return nil
}

func (d *DOTDrawer) Draw() error {
	file, err := os.Create(d.dotFileName)
	if err != nil {
		return errors.Wrapf(err, "unable to create file %s", d.dotFileName)
	}
	defer file.Close()

	if err := d.Render(file); err != nil {
		return errors.Wrapf(err, "unable to write dot file %s", d.dotFileName)
	}

	return errors.Wrapf(file.Close(), "unable to close dot file %s", d.dotFileName)
}

// Render writes the DOT description of the graph to wrt.
func (d *DOTDrawer) Render(wrt io.Writer) error {
	adjacency, err := d.steps.AdjacencyMap()
	if err != nil {
		return errors.Wrap(err, "unable to list links")
	}

	out := graph.New(graph.StringHash, graph.Directed())

	names := make([]string, 0, len(adjacency))
	for name := range adjacency {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		step, err := d.steps.Vertex(name)
		if err != nil {
			return errors.Wrapf(err, "unable to get step %s", name)
		}

		attrs := []func(*graph.VertexProperties){graph.VertexAttribute("shape", shapes[step.Type])}
		if label := d.label(name); label != "" {
			attrs = append(attrs, graph.VertexAttribute("xlabel", label))
		}

		if err := out.AddVertex(name, attrs...); err != nil {
			return errors.Wrapf(err, "unable to draw step %s", name)
		}
	}

	fastest, slowest := d.transportRange()
	for _, name := range names {
		for child := range adjacency[name] {
			var attrs []func(*graph.EdgeProperties)

			if elapsed, ok := d.transports[name][child]; ok {
				color, err := linkColor(elapsed, fastest, slowest)
				if err != nil {
					return err
				}

				attrs = append(attrs,
					graph.EdgeAttribute("label", elapsed.String()),
					graph.EdgeAttribute("fontcolor", "blue"),
					graph.EdgeAttribute("color", color),
				)
			}

			if err := out.AddEdge(name, child, attrs...); err != nil {
				return errors.Wrapf(err, "unable to draw link %s to %s", name, child)
			}
		}
	}

	return errors.Wrap(draw.DOT(out, wrt, draw.GraphAttribute("rankdir", "LR")), "unable to render graph")
}

func (d *DOTDrawer) label(name string) string {
	var parts []string

	if avg, ok := d.durations[name]; ok {
		parts = append(parts, avg.String())
	}

	if end, ok := d.ends[name]; ok {
		parts = append(parts, "end: "+round(end).String())
	}

	if note, ok := d.notes[name]; ok {
		if text := note(); text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, ", ")
}

func (d *DOTDrawer) transportRange() (time.Duration, time.Duration) {
	var fastest, slowest time.Duration

	for _, children := range d.transports {
		for _, elapsed := range children {
			if fastest == 0 || elapsed < fastest {
				fastest = elapsed
			}

			slowest = max(slowest, elapsed)
		}
	}

	return fastest, slowest
}

// linkColor goes from blue for the fastest link to red for the slowest.
func linkColor(elapsed, fastest, slowest time.Duration) (string, error) {
	fraction := 1.0
	if slowest > fastest {
		fraction = float64(elapsed-fastest) / float64(slowest-fastest)
	}

	red := uint8(maxRGB * fraction)

	color, err := colors.RGB(red, 0, maxRGB-red) //nolint
	if err != nil {
		return "", errors.Wrap(err, "unable to get colour")
	}

	return color.ToHEX().String(), nil
}

func round(d time.Duration) time.Duration {
	if d > time.Millisecond {
		return d.Round(time.Millisecond)
	}

	return d.Round(time.Microsecond)
}

var _ Drawer = (*DOTDrawer)(nil)
