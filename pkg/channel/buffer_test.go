package channel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/askiada/go-geodiff/pkg/channel"
)

func TestNewBufferInvalidSize(t *testing.T) {
	t.Parallel()

	_, err := channel.NewBuffer[int](0)
	require.ErrorIs(t, err, channel.ErrBufferSize)

	_, err = channel.NewBuffer[int](-3)
	require.ErrorIs(t, err, channel.ErrBufferSize)
}

func TestBufferFullAndEmpty(t *testing.T) {
	t.Parallel()

	buf, err := channel.NewBuffer[string](2)
	require.NoError(t, err)

	_, err = buf.Get()
	require.ErrorIs(t, err, channel.ErrBufferEmpty)

	require.NoError(t, buf.Put("a"))
	require.NoError(t, buf.Put("b"))
	assert.True(t, buf.Full())
	require.ErrorIs(t, buf.Put("c"), channel.ErrBufferFull)

	got, err := buf.Get()
	require.NoError(t, err)
	assert.Equal(t, "a", got)

	require.NoError(t, buf.Put("c"))
	assert.Equal(t, 2, buf.Len())
	assert.Equal(t, 2, buf.Cap())

	buf.Reset()
	assert.Equal(t, 0, buf.Len())
}

func TestBufferKeepsFIFOOrder(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 8).Draw(rt, "capacity")
		ops := rapid.SliceOf(rapid.Bool()).Draw(rt, "ops")

		buf, err := channel.NewBuffer[int](capacity)
		require.NoError(rt, err)

		var model []int
		next := 0
		for _, put := range ops {
			if put {
				err := buf.Put(next)
				if len(model) == capacity {
					require.ErrorIs(rt, err, channel.ErrBufferFull)

					continue
				}
				require.NoError(rt, err)
				model = append(model, next)
				next++

				continue
			}

			got, err := buf.Get()
			if len(model) == 0 {
				require.ErrorIs(rt, err, channel.ErrBufferEmpty)

				continue
			}
			require.NoError(rt, err)
			require.Equal(rt, model[0], got)
			model = model[1:]
		}
		require.Equal(rt, len(model), buf.Len())
	})
}
