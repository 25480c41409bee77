// Package pipeline provides the shared types and stage infrastructure for slicerec.
package pipeline

import (
	"context"
	"time"
)

// Stage is one step of the per-slice pipeline: write, then encode.
type Stage[In, Out any] interface {
	Execute(ctx context.Context, input In) (Out, error)
}

// StageFunc is a function adapter for Stage interface.
type StageFunc[In, Out any] func(ctx context.Context, input In) (Out, error)

// Execute implements Stage interface.
func (f StageFunc[In, Out]) Execute(ctx context.Context, input In) (Out, error) {
	return f(ctx, input)
}

// WithTimeout bounds every execution of stage by d.
// A non-positive d returns stage unchanged.
func WithTimeout[In, Out any](stage Stage[In, Out], d time.Duration) Stage[In, Out] {
	if d <= 0 {
		return stage
	}
	return StageFunc[In, Out](func(ctx context.Context, input In) (Out, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return stage.Execute(ctx, input)
	})
}
