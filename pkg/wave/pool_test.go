package wave

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

// flaky returns a task that fails the first n calls and then returns value.
func flaky(n int, value int) (Task[int], *atomic.Int32) {
	var calls atomic.Int32
	return func(context.Context) (int, error) {
		if int(calls.Add(1)) <= n {
			return 0, errTransient
		}
		return value, nil
	}, &calls
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Size)
	assert.Equal(t, 2, cfg.MaxFailures)
}

func TestPool_CollectsAllResults(t *testing.T) {
	pool := New[int](context.Background(), Config{Size: 3, MaxFailures: 2})

	for i := 1; i <= 7; i++ {
		require.NoError(t, pool.Go(func(context.Context) (int, error) { return i, nil }))
	}
	results, err := pool.Wait()

	require.NoError(t, err)
	sort.Ints(results)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, results)
}

func TestPool_WaveBarrier(t *testing.T) {
	pool := New[int](context.Background(), Config{Size: 2})

	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0
	release := make(chan struct{})
	started := make(chan struct{}, 4)

	task := func(context.Context) (int, error) {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()
		started <- struct{}{}

		<-release

		mu.Lock()
		inFlight--
		mu.Unlock()
		return 1, nil
	}

	require.NoError(t, pool.Go(task))

	// The second submission fills the wave, so Go blocks until both finish.
	done := make(chan error)
	go func() { done <- pool.Go(task) }()

	<-started
	<-started
	close(release)
	require.NoError(t, <-done)

	require.NoError(t, pool.Go(task))
	require.NoError(t, pool.Go(task))
	results, err := pool.Wait()

	require.NoError(t, err)
	assert.Len(t, results, 4)
	assert.Equal(t, 2, maxInFlight)
}

func TestPool_TwoFailuresThenSuccess(t *testing.T) {
	pool := New[int](context.Background(), DefaultConfig())
	task, calls := flaky(2, 42)
	failuresBefore := testutil.ToFloat64(waveTaskFailuresTotal)
	wavesBefore := testutil.ToFloat64(wavesTotal)

	require.NoError(t, pool.Go(task))
	results, err := pool.Wait()

	require.NoError(t, err)
	assert.Equal(t, []int{42}, results)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, failuresBefore+2, testutil.ToFloat64(waveTaskFailuresTotal))
	assert.Equal(t, wavesBefore+1, testutil.ToFloat64(wavesTotal))
}

func TestPool_ThirdFailureIsFatal(t *testing.T) {
	pool := New[int](context.Background(), DefaultConfig())
	task, calls := flaky(3, 42)

	require.NoError(t, pool.Go(task))
	_, err := pool.Wait()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.ErrorIs(t, err, errTransient)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPool_BudgetIsSharedWithinAWave(t *testing.T) {
	pool := New[int](context.Background(), DefaultConfig())
	a, _ := flaky(2, 1)
	b, _ := flaky(1, 2)

	require.NoError(t, pool.Go(a))
	err := pool.Go(b)

	assert.ErrorIs(t, err, ErrRetryExhausted)

	// Once failed, the pool refuses more work.
	assert.ErrorIs(t, pool.Go(a), ErrRetryExhausted)
}

func TestPool_BudgetResetsPerWave(t *testing.T) {
	pool := New[int](context.Background(), DefaultConfig())

	for i := 0; i < 3; i++ {
		first, _ := flaky(1, i)
		second, _ := flaky(1, i)
		require.NoError(t, pool.Go(first))
		require.NoError(t, pool.Go(second))
	}
	results, err := pool.Wait()

	require.NoError(t, err)
	assert.Len(t, results, 6)
}

func TestPool_ZeroBudget(t *testing.T) {
	pool := New[int](context.Background(), Config{Size: 1, MaxFailures: -1})
	task, _ := flaky(1, 1)

	assert.ErrorIs(t, pool.Go(task), ErrRetryExhausted)
}

func TestPool_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := New[int](ctx, DefaultConfig())
	cancel()

	err := pool.Go(func(context.Context) (int, error) { return 1, nil })
	assert.ErrorIs(t, err, context.Canceled)

	_, err = pool.Wait()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPool_CancelDuringWaveStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := New[int](ctx, Config{Size: 1, MaxFailures: 5})

	var calls atomic.Int32
	err := pool.Go(func(context.Context) (int, error) {
		calls.Add(1)
		cancel()
		return 0, errTransient
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), calls.Load())
}

func TestPool_WaitWithoutTasks(t *testing.T) {
	pool := New[string](context.Background(), Config{})

	results, err := pool.Wait()
	require.NoError(t, err)
	assert.Empty(t, results)
}
