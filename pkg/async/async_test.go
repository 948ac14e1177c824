package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionstore/pkg/async"
)

func TestAsync(t *testing.T) {
	t.Run("returns result", func(t *testing.T) {
		f := async.Async(context.Background(), 21, func(ctx context.Context, n int) (int, error) {
			return n * 2, nil
		})

		result, err := f.Await()
		require.NoError(t, err)
		assert.Equal(t, 42, result)
	})

	t.Run("returns error", func(t *testing.T) {
		boom := errors.New("boom")
		f := async.Async(context.Background(), 0, func(ctx context.Context, n int) (int, error) {
			return 0, boom
		})

		_, err := f.Await()
		assert.ErrorIs(t, err, boom)
	})

	t.Run("pre-canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		f := async.Async(ctx, 0, func(ctx context.Context, n int) (int, error) {
			t.Fatal("must not run")
			return 0, nil
		})

		_, err := f.Await()
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("await with timeout", func(t *testing.T) {
		f := async.Async(context.Background(), 0, func(ctx context.Context, n int) (int, error) {
			time.Sleep(time.Second)
			return 0, nil
		})

		_, err := f.AwaitWithTimeout(10 * time.Millisecond)
		assert.ErrorIs(t, err, async.ErrTimeout)
	})
}

func TestWaitSettled(t *testing.T) {
	boom := errors.New("boom")
	ctx := context.Background()

	ok := func(ctx context.Context, n int) (int, error) { return n, nil }
	bad := func(ctx context.Context, n int) (int, error) { return 0, boom }

	results, errs := async.WaitSettled(
		async.Async(ctx, 1, ok),
		async.Async(ctx, 2, bad),
		async.Async(ctx, 3, ok),
	)

	require.Len(t, results, 3)
	require.Len(t, errs, 3)

	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], boom)
	assert.NoError(t, errs[2])
	assert.Equal(t, 1, results[0])
	assert.Equal(t, 3, results[2])
}
