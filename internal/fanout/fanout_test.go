package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunJoinsEveryCall(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("boom")

	results := Run(context.Background(),
		Call[string]{Name: "slow", Do: func(ctx context.Context) (string, error) {
			calls.Add(1)
			time.Sleep(20 * time.Millisecond)
			return "done", nil
		}},
		Call[string]{Name: "fast-fail", Do: func(ctx context.Context) (string, error) {
			calls.Add(1)
			return "", boom
		}},
	)

	require.Len(t, results, 2)
	assert.EqualValues(t, 2, calls.Load())

	assert.Equal(t, "slow", results[0].Name)
	assert.Equal(t, "done", results[0].Value)
	assert.True(t, results[0].OK())

	assert.Equal(t, "fast-fail", results[1].Name)
	assert.ErrorIs(t, results[1].Err, boom)
}

func TestRunDoesNotCancelSiblingsOnFailure(t *testing.T) {
	release := make(chan struct{})
	var sawCancel atomic.Bool

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()

	results := Run(context.Background(),
		Call[int]{Name: "fail", Do: func(ctx context.Context) (int, error) {
			return 0, errors.New("nope")
		}},
		Call[int]{Name: "wait", Do: func(ctx context.Context) (int, error) {
			select {
			case <-ctx.Done():
				sawCancel.Store(true)
				return 0, ctx.Err()
			case <-release:
				return 7, nil
			}
		}},
	)

	assert.False(t, sawCancel.Load())
	wait, ok := Find(results, "wait")
	require.True(t, ok)
	assert.Equal(t, 7, wait.Value)
	assert.NoError(t, wait.Err)
}

func TestRunStartsCallsConcurrently(t *testing.T) {
	start := make(chan struct{})
	var arrived atomic.Int32

	// Each call blocks until both have started, so a sequential runner would deadlock.
	barrier := func(ctx context.Context) (bool, error) {
		if arrived.Add(1) == 2 {
			close(start)
		}
		select {
		case <-start:
			return true, nil
		case <-time.After(time.Second):
			return false, errors.New("calls did not overlap")
		}
	}

	results := Run(context.Background(),
		Call[bool]{Name: "a", Do: barrier},
		Call[bool]{Name: "b", Do: barrier},
	)
	assert.True(t, AllOK(results))
}

func TestRunRecoversPanics(t *testing.T) {
	results := Run(context.Background(),
		Call[string]{Name: "panics", Do: func(ctx context.Context) (string, error) {
			panic("kaboom")
		}},
		Call[string]{Name: "fine", Do: func(ctx context.Context) (string, error) {
			return "ok", nil
		}},
		Call[string]{Name: "empty"},
	)

	require.Len(t, results, 3)
	require.Error(t, results[0].Err)
	assert.Contains(t, results[0].Err.Error(), "panics panicked: kaboom")
	assert.True(t, results[1].OK())
	assert.EqualError(t, results[2].Err, "empty has no work")
}

func TestAggregate(t *testing.T) {
	failed := errors.New("failed")
	tests := []struct {
		name    string
		results []Result[int]
		pred    Predicate[int]
		want    bool
	}{
		{name: "nil predicate all ok", results: []Result[int]{{Name: "a"}, {Name: "b"}}, want: true},
		{name: "nil predicate one failed", results: []Result[int]{{Name: "a"}, {Name: "b", Err: failed}}, want: false},
		{name: "any ok one failed", results: []Result[int]{{Name: "a", Err: failed}, {Name: "b"}}, pred: AnyOK[int], want: true},
		{name: "any ok all failed", results: []Result[int]{{Name: "a", Err: failed}, {Name: "b", Err: failed}}, pred: AnyOK[int], want: false},
		{name: "custom predicate", results: []Result[int]{{Name: "a", Value: 3}}, pred: func(rs []Result[int]) bool { return rs[0].Value > 2 }, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Aggregate(tt.results, tt.pred))
		})
	}
}

func TestRunWithNoCalls(t *testing.T) {
	results := Run[int](context.Background())
	assert.Empty(t, results)
	assert.True(t, Aggregate(results, nil))
	assert.False(t, AnyOK(results))
}
