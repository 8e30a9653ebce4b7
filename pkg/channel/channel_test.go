package channel_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-geodiff/pkg/channel"
)

func newConnected[T any](t *testing.T, name string, opts ...channel.Option) *channel.Channel[T] {
	t.Helper()

	ch, err := channel.New[T](name, opts...)
	require.NoError(t, err)
	require.NoError(t, ch.WriteConnect())
	ch.ReadConnect()

	return ch
}

func writeAll[T any](t *testing.T, ch *channel.Channel[T], items ...T) <-chan error {
	t.Helper()

	errC := make(chan error, 1)
	go func() {
		defer close(errC)
		defer ch.WriteDisconnect()
		for _, item := range items {
			if err := ch.Write(context.Background(), item); err != nil {
				errC <- err

				return
			}
		}
	}()

	return errC
}

func readAll[T any](t *testing.T, ch *channel.Channel[T]) []T {
	t.Helper()

	var res []T
	for {
		item, ok, err := ch.Read(context.Background())
		require.NoError(t, err)
		if !ok {
			return res
		}
		res = append(res, item)
	}
}

func TestNewNegativeBuffer(t *testing.T) {
	t.Parallel()

	_, err := channel.New[int]("negative", channel.WithBuffer(-1))
	require.ErrorIs(t, err, channel.ErrBufferSize)
}

func TestChannelDeliversInWriteOrder(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		bufferSize int
	}{
		"rendezvous": {bufferSize: 0},
		"buffer 1":   {bufferSize: 1},
		"buffer 10":  {bufferSize: 10},
	}

	for name, tc := range tcs {
		tc := tc
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ch := newConnected[int](t, name, channel.WithBuffer(tc.bufferSize))
			assert.Equal(t, tc.bufferSize, ch.Cap())

			errC := writeAll(t, ch, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9)
			assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, readAll(t, ch))
			require.NoError(t, <-errC)
			assert.True(t, ch.IsClosed())
		})
	}
}

func TestRendezvousWriteWaitsForReader(t *testing.T) {
	t.Parallel()

	ch := newConnected[string](t, "rendezvous")

	written := make(chan struct{})
	go func() {
		defer close(written)
		assert.NoError(t, ch.Write(context.Background(), "item"))
	}()

	select {
	case <-written:
		t.Fatal("write returned before any read")
	case <-time.After(50 * time.Millisecond):
	}

	got, ok, err := ch.Read(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "item", got)
	<-written
}

func TestBufferedWriteDoesNotWaitUntilFull(t *testing.T) {
	t.Parallel()

	ch := newConnected[int](t, "buffered", channel.WithBuffer(2))

	require.NoError(t, ch.Write(context.Background(), 1))
	require.NoError(t, ch.Write(context.Background(), 2))
	assert.Equal(t, 2, ch.Len())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := ch.Write(ctx, 3)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, ch.Len())
}

func TestReadersDrainAfterLastWriterLeaves(t *testing.T) {
	t.Parallel()

	ch := newConnected[int](t, "drain", channel.WithBuffer(3))
	require.NoError(t, ch.WriteConnect())

	require.NoError(t, ch.Write(context.Background(), 1))
	require.NoError(t, ch.Write(context.Background(), 2))

	ch.WriteDisconnect()
	assert.False(t, ch.IsClosed(), "a writer is still connected")

	ch.WriteDisconnect()
	assert.False(t, ch.IsClosed(), "buffered items are left")

	err := ch.Write(context.Background(), 3)
	require.ErrorIs(t, err, channel.ErrClosed)

	assert.Equal(t, []int{1, 2}, readAll(t, ch))
	assert.True(t, ch.IsClosed())

	_, ok, err := ch.Read(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReadOnClosedEmptyChannelDoesNotBlock(t *testing.T) {
	t.Parallel()

	ch := newConnected[int](t, "empty")
	ch.WriteDisconnect()

	_, ok, err := ch.Read(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	require.ErrorIs(t, ch.WriteConnect(), channel.ErrClosed)
}

func TestCloseDiscardsBufferedItems(t *testing.T) {
	t.Parallel()

	ch := newConnected[int](t, "force", channel.WithBuffer(4))
	require.NoError(t, ch.Write(context.Background(), 1))

	ch.Close()
	assert.True(t, ch.IsClosed())
	assert.Equal(t, 0, ch.Len())

	_, ok, err := ch.Read(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCloseReleasesBlockedWriter(t *testing.T) {
	t.Parallel()

	ch := newConnected[int](t, "blocked")

	errC := make(chan error, 1)
	go func() {
		errC <- ch.Write(context.Background(), 1)
	}()

	time.Sleep(20 * time.Millisecond)
	ch.Close()
	require.ErrorIs(t, <-errC, channel.ErrClosed)
}

func TestWriteWithoutReaders(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		policy      channel.WritePolicy
		expectedErr error
	}{
		"error policy": {policy: channel.WritePolicyError, expectedErr: channel.ErrNoReaders},
		"drop policy":  {policy: channel.WritePolicyDrop},
	}

	for name, tc := range tcs {
		tc := tc
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ch := newConnected[int](t, name, channel.WithWritePolicy(tc.policy), channel.WithBuffer(1))
			ch.ReadDisconnect()

			err := ch.Write(context.Background(), 1)
			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, 0, ch.Len())
		})
	}
}

func TestReaderLeavingReleasesRendezvousWriter(t *testing.T) {
	t.Parallel()

	ch := newConnected[int](t, "leaving")

	errC := make(chan error, 1)
	go func() {
		errC <- ch.Write(context.Background(), 1)
	}()

	time.Sleep(20 * time.Millisecond)
	ch.ReadDisconnect()
	require.ErrorIs(t, <-errC, channel.ErrNoReaders)
	assert.Equal(t, 0, ch.Len())
}

func TestWriteBeforeAnyReaderConnects(t *testing.T) {
	t.Parallel()

	ch, err := channel.New[int]("late reader", channel.WithBuffer(1))
	require.NoError(t, err)
	require.NoError(t, ch.WriteConnect())

	require.NoError(t, ch.Write(context.Background(), 7))

	ch.ReadConnect()
	got, ok, err := ch.Read(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, got)
}

func TestReadCancel(t *testing.T) {
	t.Parallel()

	ch := newConnected[int](t, "cancel")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, ok, err := ch.Read(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}

func TestRendezvousWriteCancelWithdrawsItem(t *testing.T) {
	t.Parallel()

	ch := newConnected[int](t, "withdraw")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, ch.Write(ctx, 1), context.DeadlineExceeded)
	assert.Equal(t, 0, ch.Len())

	errC := writeAll(t, ch, 2)
	assert.Equal(t, []int{2}, readAll(t, ch))
	require.NoError(t, <-errC)
}

func TestConcurrentWritersAndReaders(t *testing.T) {
	t.Parallel()

	const (
		writers   = 4
		readers   = 3
		perWriter = 250
	)

	ch, err := channel.New[int]("concurrent", channel.WithBuffer(5))
	require.NoError(t, err)
	for i := 0; i < writers; i++ {
		require.NoError(t, ch.WriteConnect())
	}
	for i := 0; i < readers; i++ {
		ch.ReadConnect()
	}

	for w := 0; w < writers; w++ {
		w := w
		go func() {
			defer ch.WriteDisconnect()
			for i := 0; i < perWriter; i++ {
				assert.NoError(t, ch.Write(context.Background(), w*perWriter+i))
			}
		}()
	}

	var (
		mu   sync.Mutex
		seen = make(map[int]int)
		wg   sync.WaitGroup
	)
	wg.Add(readers)
	for r := 0; r < readers; r++ {
		go func() {
			defer wg.Done()
			defer ch.ReadDisconnect()
			last := make(map[int]int)
			for {
				item, ok, err := ch.Read(context.Background())
				if !assert.NoError(t, err) || !ok {
					return
				}
				// items of a single writer stay ordered for any reader
				writer := item / perWriter
				if prev, found := last[writer]; found {
					assert.Greater(t, item, prev)
				}
				last[writer] = item
				mu.Lock()
				seen[item]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, writers*perWriter)
	for item, count := range seen {
		assert.Equal(t, 1, count, "item %d", item)
	}
}
