package measure_test

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-geodiff/pkg/pipeline/measure"
	"github.com/askiada/go-geodiff/pkg/pipeline/model"
)

func TestDefaultMetric(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	mt := msr.AddMetric("step", 2)

	assert.Equal(t, time.Duration(0), mt.AVGDuration())

	mt.AddDuration(2 * time.Millisecond)
	mt.AddDuration(4 * time.Millisecond)
	mt.AddTransportDuration("parent", 10*time.Millisecond)
	mt.AddTransportDuration("parent", 30*time.Millisecond)
	mt.SetTotalDuration(time.Second)

	assert.Equal(t, int64(2), mt.Total())
	assert.Equal(t, 3*time.Millisecond, mt.AVGDuration())
	assert.Equal(t, time.Second, mt.GetTotalDuration())

	// average of 20ms shared by two workers
	assert.Equal(t, 10*time.Millisecond, mt.AVGTransportDuration()["parent"].Elapsed)
	assert.Equal(t, 10*time.Millisecond, mt.AVGTransportDuration()["parent"].Elapsed, "averaging twice gives the same result")
	assert.Equal(t, 40*time.Millisecond, mt.AllTransports()["parent"].Elapsed)
	assert.Equal(t, int64(2), mt.AllTransports()["parent"].Count)

	assert.Same(t, mt, msr.GetMetric("step"))
	assert.Nil(t, msr.GetMetric("unknown"))
	assert.Len(t, msr.AllMetrics(), 1)
}

func TestPrometheusMeasure(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	msr := measure.NewPrometheusMeasure(reg, "geodiff")

	mt := msr.AddMetric("compare", 1)
	mt.AddDuration(time.Millisecond)
	mt.AddDuration(time.Millisecond)
	mt.AddTransportDuration("other", time.Millisecond)
	mt.SetTotalDuration(2 * time.Second)

	assert.Equal(t, int64(2), msr.GetMetric("compare").Total())
	assert.Equal(t, time.Millisecond, msr.GetMetric("compare").AVGDuration())

	expected := `
		# HELP geodiff_pipeline_step_items_total Total number of items processed by a step
		# TYPE geodiff_pipeline_step_items_total counter
		geodiff_pipeline_step_items_total{step="compare"} 2
		# HELP geodiff_pipeline_step_end_seconds Time from the pipeline creation to the end of a step in seconds
		# TYPE geodiff_pipeline_step_end_seconds gauge
		geodiff_pipeline_step_end_seconds{step="compare"} 2
	`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"geodiff_pipeline_step_items_total", "geodiff_pipeline_step_end_seconds")
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "geodiff_pipeline_transport_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPipelineMeasure(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	opt := measure.PipelineMeasure(msr)
	require.NoError(t, opt.New())

	step := &model.StepInfo{Type: model.TransformStepType, Name: "map", Concurrent: 1}
	require.NoError(t, opt.PrepareStep([]*model.StepInfo{model.StartStep}, step))
	require.NoError(t, opt.OnStepOutput(model.StartStep, step, 2*time.Millisecond, time.Millisecond))
	require.NoError(t, opt.AfterStep(step, time.Second))
	require.NoError(t, opt.Finish())

	mt := msr.GetMetric("map")
	require.NotNil(t, mt)
	assert.Equal(t, time.Millisecond, mt.AVGDuration())
	assert.Equal(t, 2*time.Millisecond, mt.AllTransports()["start"].Elapsed)
	assert.Equal(t, time.Second, mt.GetTotalDuration())
	assert.NotNil(t, msr.GetMetric("start"))
	assert.NotNil(t, msr.GetMetric("end"))

	unknown := &model.StepInfo{Name: "unknown"}
	require.ErrorIs(t, opt.OnStepOutput(step, unknown, 0, 0), measure.ErrUnknownStep)
	require.ErrorIs(t, opt.AfterStep(unknown, 0), measure.ErrUnknownStep)
}
