package pool

import (
	"context"
	"errors"
	"runtime"
	"testing"
)

func TestOptimalWorkerCountTieBreaks(t *testing.T) {
	cores := OptimalWorkerCount(0, false) // establishes baseline via numTasks<=1 branch
	if cores != 1 {
		t.Fatalf("expected 1 worker for 0 tasks, got %d", cores)
	}
	if got := OptimalWorkerCount(1, false); got != 1 {
		t.Fatalf("expected 1 worker for 1 task, got %d", got)
	}
	if got := OptimalWorkerCount(2, true); got < 1 {
		t.Fatalf("expected at least 1 worker for 2 tasks, got %d", got)
	}
}

// TestOptimalWorkerCountNonCPUIntensiveDefault covers spec §4.1's
// min(2*cores, max(cores, tasks)) tie-break for numTasks > 3, including
// the 3 < numTasks <= cores range the original tie-break guard missed.
func TestOptimalWorkerCountNonCPUIntensiveDefault(t *testing.T) {
	cores := runtime.NumCPU()

	if cores >= 4 {
		if got, want := OptimalWorkerCount(cores, false), cores; got != want {
			t.Fatalf("numTasks in (3,cores]: want %d, got %d", want, got)
		}
	}

	huge := 4 * cores
	if got, want := OptimalWorkerCount(huge, false), 2*cores; got != want {
		t.Fatalf("numTasks >> cores: want %d (capped at 2*cores), got %d", want, got)
	}
}

func TestSubmitTaskReturnsValue(t *testing.T) {
	m := New(2, 1<<30)
	v, err := m.SubmitTask(context.Background(), func(ctx context.Context) (interface{}, error) {
		return 42, nil
	}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.(int) != 42 {
		t.Fatalf("expected 42, got %v", v)
	}
}

func TestSubmitTaskRecoversPanic(t *testing.T) {
	m := New(1, 1<<30)
	_, err := m.SubmitTask(context.Background(), func(ctx context.Context) (interface{}, error) {
		panic("boom")
	}, 10)
	if err == nil {
		t.Fatal("expected an error from a panicking task")
	}
}

func TestSubmitBatchPreservesOrder(t *testing.T) {
	m := New(4, 1<<30)
	fns := make([]Task, 5)
	for i := 0; i < 5; i++ {
		i := i
		fns[i] = func(ctx context.Context) (interface{}, error) {
			if i == 2 {
				return nil, errors.New("item 2 fails")
			}
			return i, nil
		}
	}
	results := m.SubmitBatch(context.Background(), fns, 5, 0, false)
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for i, r := range results {
		if i == 2 {
			if r.Err == nil {
				t.Fatalf("expected item 2 to carry an error")
			}
			continue
		}
		if r.Err != nil {
			t.Fatalf("item %d: unexpected error %v", i, r.Err)
		}
		if r.Value.(int) != i {
			t.Fatalf("item %d: expected value %d, got %v", i, i, r.Value)
		}
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	m := New(2, 1<<30)
	m.Shutdown(true)
	m.Shutdown(true) // must not block or panic
}
