package pipeline_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askiada/go-geodiff/pkg/channel"
	"github.com/askiada/go-geodiff/pkg/pipeline"
)

func createSource(total int) func(ctx context.Context, output *channel.Channel[int]) error {
	return func(ctx context.Context, output *channel.Channel[int]) error {
		for i := 0; i < total; i++ {
			if err := output.Write(ctx, i); err != nil {
				return err
			}
		}

		return nil
	}
}

type collector[I any] struct {
	mu  sync.Mutex
	got []I
}

func (c *collector[I]) items() []I {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]I(nil), c.got...)
}

func collect[I any](t *testing.T, pipe *pipeline.Pipeline, name string, input *pipeline.Step[I]) *collector[I] {
	t.Helper()

	res := &collector[I]{}
	err := pipeline.AddSinkFunc(pipe, name, input, func(_ context.Context, item I) error {
		res.mu.Lock()
		defer res.mu.Unlock()
		res.got = append(res.got, item)

		return nil
	})
	require.NoError(t, err)

	return res
}

func identity(_ context.Context, input int) (int, error) {
	return input, nil
}
