package future

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromise_SettlesOnce(t *testing.T) {
	p := NewPromise[int]()

	require.True(t, p.TryComplete(1))
	assert.False(t, p.TryComplete(2))
	assert.False(t, p.TryFail(errors.New("late")))
	assert.False(t, p.TrySettle(3, errors.New("late")))

	v, err := p.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestFuture_AwaitFromManyGoroutines(t *testing.T) {
	p := NewPromise[string]()

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := p.Await(context.Background())
			if err == nil {
				results[i] = v
			}
		}(i)
	}

	time.Sleep(10 * time.Millisecond)
	p.TryComplete("done")
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "done", r)
	}
}

func TestFuture_AwaitContext(t *testing.T) {
	p := NewPromise[int]()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, p.IsComplete())

	_, ok := p.Result()
	assert.False(t, ok)
}

func TestPromise_TryFail(t *testing.T) {
	boom := errors.New("boom")
	p := NewPromise[int]()
	p.TryFail(boom)

	_, err := p.Await(context.Background())
	assert.ErrorIs(t, err, boom)

	r, ok := p.Result()
	require.True(t, ok)
	assert.ErrorIs(t, r.Error, boom)
	<-p.Done()
}

func TestPromise_TrySettleKeepsValue(t *testing.T) {
	rejected := errors.New("rejected")
	p := NewPromise[int]()
	p.TrySettle(42, rejected)

	v, err := p.Await(context.Background())
	assert.ErrorIs(t, err, rejected)
	assert.Equal(t, 42, v)
}
