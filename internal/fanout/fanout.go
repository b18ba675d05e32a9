// Package fanout runs independent side effects in parallel and joins on all of them.
//
// A call's error or panic is captured in its Result and never cancels or
// short-circuits its siblings. Callers decide what overall success means by
// passing a Predicate to Aggregate.
package fanout

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Call is one named, independently failing unit of work.
type Call[T any] struct {
	Name string
	Do   func(ctx context.Context) (T, error)
}

// Result is the settled state of a Call.
type Result[T any] struct {
	Name  string
	Value T
	Err   error
}

// OK reports whether the call returned without error.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Predicate decides aggregate success over a settled set of results.
type Predicate[T any] func(results []Result[T]) bool

// Run starts every call at once and returns when all of them have settled.
// Results are returned in the order the calls were given.
func Run[T any](ctx context.Context, calls ...Call[T]) []Result[T] {
	results := make([]Result[T], len(calls))

	// errgroup without WithContext: a failing call must not cancel the others.
	var g errgroup.Group
	for i, call := range calls {
		g.Go(func() error {
			results[i] = invoke(ctx, call)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func invoke[T any](ctx context.Context, call Call[T]) (res Result[T]) {
	res.Name = call.Name
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("%s panicked: %v", call.Name, r)
		}
	}()
	if call.Do == nil {
		res.Err = fmt.Errorf("%s has no work", call.Name)
		return res
	}
	res.Value, res.Err = call.Do(ctx)
	return res
}

// Aggregate applies pred to results. A nil predicate means every call succeeded.
func Aggregate[T any](results []Result[T], pred Predicate[T]) bool {
	if pred == nil {
		pred = AllOK[T]
	}
	return pred(results)
}

// AllOK is true when no call returned an error.
func AllOK[T any](results []Result[T]) bool {
	for _, r := range results {
		if !r.OK() {
			return false
		}
	}
	return true
}

// AnyOK is true when at least one call returned without error.
func AnyOK[T any](results []Result[T]) bool {
	for _, r := range results {
		if r.OK() {
			return true
		}
	}
	return false
}

// Find returns the result with the given name.
func Find[T any](results []Result[T], name string) (Result[T], bool) {
	for _, r := range results {
		if r.Name == name {
			return r, true
		}
	}
	return Result[T]{}, false
}
