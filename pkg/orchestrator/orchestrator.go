// Package orchestrator attaches frame sources to a recorder and drives a session.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/user/slicerec/pkg/pipeline"
	"github.com/user/slicerec/pkg/ports"
)

// Recorder is the part of recorder.Recorder the orchestrator drives.
type Recorder interface {
	Start() error
	Push(source int, frame pipeline.Frame)
	Stop(ctx context.Context) error
	Subscribe(l ports.SliceListener)
	SliceID() uint64
}

// Config contains orchestrator configuration.
type Config struct {
	// StopTimeout bounds how long Run waits for in-flight slices after
	// the sources have ended. Zero waits indefinitely.
	StopTimeout time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		StopTimeout: 10 * time.Minute,
	}
}

// Orchestrator runs every source into the recorder until the sources end
// or the context is cancelled, then stops the recorder.
type Orchestrator struct {
	recorder Recorder
	sources  []ports.FrameSource
	logger   ports.Logger

	mu     sync.Mutex
	slices []pipeline.SliceReadyEvent
}

// New creates a new Orchestrator. Source i pushes into recorder source i.
func New(recorder Recorder, sources []ports.FrameSource, logger ports.Logger) *Orchestrator {
	o := &Orchestrator{
		recorder: recorder,
		sources:  sources,
		logger:   logger,
	}
	recorder.Subscribe(ports.SliceListenerFunc(o.collect))
	return o
}

func (o *Orchestrator) collect(event pipeline.SliceReadyEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.slices = append(o.slices, event)
}

// Run executes one recording session.
// The result is valid even when an error is returned.
func (o *Orchestrator) Run(ctx context.Context, config Config) (RunResult, error) {
	o.mu.Lock()
	o.slices = nil
	o.mu.Unlock()

	start := time.Now()
	firstID := o.recorder.SliceID()

	if err := o.recorder.Start(); err != nil {
		return RunResult{}, fmt.Errorf("start recorder: %w", err)
	}
	o.logger.Debug("Starting %d sources", len(o.sources))

	var (
		wg     sync.WaitGroup
		errMu  sync.Mutex
		errs   *multierror.Error
		counts = make([]int64, len(o.sources))
	)
	for i, src := range o.sources {
		wg.Add(1)
		go func(i int, src ports.FrameSource) {
			defer wg.Done()
			err := src.Run(ctx, func(frame pipeline.Frame) {
				counts[i]++
				o.recorder.Push(i, frame)
			})
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				o.logger.Error("Source %d failed: %s", i, err)
				errMu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("source %d: %w", i, err))
				errMu.Unlock()
			}
		}(i, src)
	}
	wg.Wait()

	interrupted := ctx.Err() != nil
	if interrupted {
		o.logger.Info("Sources stopped by cancellation")
	}

	stopCtx := context.Background()
	if config.StopTimeout > 0 {
		var cancel context.CancelFunc
		stopCtx, cancel = context.WithTimeout(stopCtx, config.StopTimeout)
		defer cancel()
	}
	if err := o.recorder.Stop(stopCtx); err != nil {
		errs = multierror.Append(errs, err)
	}

	o.mu.Lock()
	slices := append([]pipeline.SliceReadyEvent(nil), o.slices...)
	o.mu.Unlock()

	result := RunResult{
		Slices:      slices,
		Finalized:   int(o.recorder.SliceID() - firstID),
		FrameCounts: counts,
		Interrupted: interrupted,
		Duration:    time.Since(start),
	}
	o.logger.Info("Session finished: %d of %d slices encoded", len(result.Slices), result.Finalized)

	return result, errs.ErrorOrNil()
}

// RunResult contains the results of a session for summary generation.
type RunResult struct {
	Slices      []pipeline.SliceReadyEvent // Published slices in id order
	Finalized   int                        // Slices assigned an id, including failed ones
	FrameCounts []int64                    // Frames produced per source
	Interrupted bool                       // True if the session ended by cancellation
	Duration    time.Duration
}

// Failed returns the number of finalized slices that were not published.
func (r RunResult) Failed() int {
	return r.Finalized - len(r.Slices)
}

// TotalFrames returns the number of frames produced by all sources.
func (r RunResult) TotalFrames() int64 {
	var n int64
	for _, c := range r.FrameCounts {
		n += c
	}
	return n
}
