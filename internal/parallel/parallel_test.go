package parallel

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func quiet(n int) Options { return Options{Concurrency: n, Quiet: true} }

func TestRun_Success(t *testing.T) {
	tasks := []Task{
		{Name: "frame-1", Fn: func(context.Context) error { return nil }},
		{Name: "frame-2", Fn: func(context.Context) error { return nil }},
		{Name: "frame-3", Fn: func(context.Context) error { return nil }},
	}

	results := Run(context.Background(), tasks, quiet(4))
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.OK || r.Err != nil {
			t.Errorf("task %s should be OK, got %v", r.Name, r.Err)
		}
	}
	if len(Failed(results)) != 0 {
		t.Error("no task should have failed")
	}
}

func TestRun_WithErrors(t *testing.T) {
	tasks := []Task{
		{Name: "ok", Fn: func(context.Context) error { return nil }},
		{Name: "fail", Fn: func(context.Context) error { return fmt.Errorf("disk full") }},
		{Name: "also-ok", Fn: func(context.Context) error { return nil }},
	}

	results := Run(context.Background(), tasks, Options{Concurrency: 4})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// Results should be in order, and a failure must not stop the others.
	if !results[0].OK || !results[2].OK {
		t.Error("ok tasks should succeed")
	}
	if results[1].OK || results[1].Err == nil {
		t.Error("second task should have failed")
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "fail" {
		t.Errorf("unexpected failures %+v", failed)
	}
}

func TestRun_Concurrency(t *testing.T) {
	var maxConcurrent int64
	var current int64

	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = Task{
			Name: fmt.Sprintf("frame-%d", i),
			Fn: func(context.Context) error {
				c := atomic.AddInt64(&current, 1)
				for {
					old := atomic.LoadInt64(&maxConcurrent)
					if c <= old || atomic.CompareAndSwapInt64(&maxConcurrent, old, c) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt64(&current, -1)
				return nil
			},
		}
	}

	results := Run(context.Background(), tasks, quiet(2))
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	if maxConcurrent > 2 {
		t.Errorf("max concurrent should be <= 2, got %d", maxConcurrent)
	}
}

func TestRun_DefaultConcurrency(t *testing.T) {
	tasks := []Task{{Name: "one", Fn: func(context.Context) error { return nil }}}

	results := Run(context.Background(), tasks, quiet(0))
	if len(results) != 1 || !results[0].OK {
		t.Fatalf("expected 1 OK result, got %+v", results)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran int64
	tasks := []Task{
		{Name: "a", Fn: func(context.Context) error { atomic.AddInt64(&ran, 1); return nil }},
		{Name: "b", Fn: func(context.Context) error { atomic.AddInt64(&ran, 1); return nil }},
	}
	results := Run(ctx, tasks, quiet(1))
	if ran != 0 {
		t.Errorf("no task should run after cancel, ran %d", ran)
	}
	for _, r := range results {
		if r.Err != context.Canceled {
			t.Errorf("expected context.Canceled for %s, got %v", r.Name, r.Err)
		}
	}
}

func TestRun_TimingTracked(t *testing.T) {
	tasks := []Task{
		{Name: "slow", Fn: func(context.Context) error {
			time.Sleep(30 * time.Millisecond)
			return nil
		}},
	}

	results := Run(context.Background(), tasks, quiet(1))
	if results[0].Elapsed < 30*time.Millisecond {
		t.Errorf("expected elapsed >= 30ms, got %v", results[0].Elapsed)
	}
}
