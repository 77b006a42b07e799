// Package fileproc runs per-file work across a worker pool.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/dean0x/diedeadcode/pkg/parser"
)

// ProcessingError is a failure tied to one file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// ProcessingErrors collects per-file failures across workers.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error. Safe for concurrent use.
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors reports whether any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	default:
		return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
	}
}

// DefaultWorkerMultiplier scales NumCPU into a worker count. 2x suits the
// mixed I/O and CGO workload of reading and parsing.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called once per file, success or not.
type ProgressFunc func()

func workerCount(maxWorkers int) int {
	if maxWorkers > 0 {
		return maxWorkers
	}
	return runtime.NumCPU() * DefaultWorkerMultiplier
}

// MapParse parses files in parallel, each worker holding its own parser, and
// hands every result to fn. Failures are collected, not fatal; callers decide
// whether partial results are acceptable. Result order is arbitrary.
func MapParse[T any](ctx context.Context, files []string, maxWorkers int, fn func(*parser.Parser, string) (T, error), onProgress ProgressFunc) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	results := make([]T, 0, len(files))
	errs := &ProcessingErrors{}
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(workerCount(maxWorkers)).WithContext(ctx)
	for _, path := range files {
		p.Go(func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				errs.Add(path, ctx.Err())
				return ctx.Err()
			default:
			}

			psr := parser.New()
			defer psr.Close()

			result, err := fn(psr, path)
			if onProgress != nil {
				onProgress()
			}
			if err != nil {
				errs.Add(path, err)
				return nil
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}
	_ = p.Wait() // context errors are already in errs

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}

// ForEach runs fn over files in parallel without a parser. Use for plain
// file work such as hashing.
func ForEach[T any](files []string, maxWorkers int, fn func(string) (T, error)) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	results := make([]T, 0, len(files))
	errs := &ProcessingErrors{}
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(workerCount(maxWorkers))
	for _, path := range files {
		p.Go(func() {
			result, err := fn(path)
			if err != nil {
				errs.Add(path, err)
				return
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		})
	}
	p.Wait()

	if !errs.HasErrors() {
		return results, nil
	}
	return results, errs
}
