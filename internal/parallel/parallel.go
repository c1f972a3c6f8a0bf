package parallel

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/msalah0e/flowviz/internal/ui"
)

// Result holds the outcome of a parallel task.
type Result struct {
	Name    string
	OK      bool
	Err     error
	Elapsed time.Duration
}

// Task is a unit of work run in parallel.
type Task struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Options controls a Run.
type Options struct {
	Concurrency int
	// Quiet suppresses per-task progress lines.
	Quiet bool
}

// Run executes tasks with bounded concurrency and returns results in
// submission order. A failing task does not stop the others; cancelling
// ctx stops tasks that have not started yet.
func Run(ctx context.Context, tasks []Task, opts Options) []Result {
	if opts.Concurrency < 1 {
		opts.Concurrency = 4
	}

	results := make([]Result, len(tasks))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Name: task.Name, Err: err}
				return nil
			}
			start := time.Now()
			err := task.Fn(gctx)
			elapsed := time.Since(start)
			results[i] = Result{Name: task.Name, OK: err == nil, Err: err, Elapsed: elapsed}

			if opts.Quiet {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fmt.Printf("  %s %s %s\n", ui.StatusIcon(false), task.Name, ui.Bad.Sprintf("(%v)", err))
			} else {
				fmt.Printf("  %s %s %s\n", ui.StatusIcon(true), task.Name, ui.Subtle.Sprintf("%.0fms", float64(elapsed.Microseconds())/1000))
			}
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// Failed returns the results that did not succeed.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.OK {
			out = append(out, r)
		}
	}
	return out
}
