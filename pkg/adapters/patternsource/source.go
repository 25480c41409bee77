// Package patternsource generates a synthetic I420 test pattern.
// It can switch geometry on a schedule to exercise resolution boundaries.
package patternsource

import (
	"context"
	"fmt"
	"time"

	"github.com/user/slicerec/pkg/pipeline"
	"github.com/user/slicerec/pkg/ports"
)

// Config configures a pattern source.
type Config struct {
	Width       int
	Height      int
	FPS         int
	Frames      int  // Stop after this many frames; 0 runs until cancelled
	SwitchEvery int  // Alternate to half resolution every N frames; 0 disables
	Pace        bool // Deliver frames in real time instead of as fast as possible
}

// Source generates moving luma bars.
type Source struct {
	cfg    Config
	clock  ports.Clock
	logger ports.Logger
}

// New creates a new pattern source.
func New(cfg Config, clock ports.Clock, logger ports.Logger) (*Source, error) {
	if cfg.Width < 2 || cfg.Height < 2 {
		return nil, fmt.Errorf("invalid frame size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.FPS <= 0 {
		return nil, fmt.Errorf("invalid fps %d", cfg.FPS)
	}
	if cfg.Frames == 0 && !cfg.Pace {
		return nil, fmt.Errorf("an unpaced pattern source needs a frame limit")
	}
	return &Source{
		cfg:    cfg,
		clock:  clock,
		logger: logger.WithComponent("pattern"),
	}, nil
}

// SizeAt returns the geometry of frame i.
func (s *Source) SizeAt(i int) pipeline.Dimension {
	full := pipeline.Dimension{Width: s.cfg.Width, Height: s.cfg.Height}
	if s.cfg.SwitchEvery <= 0 || (i/s.cfg.SwitchEvery)%2 == 0 {
		return full
	}
	// Even dimensions keep the chroma planes whole.
	return pipeline.Dimension{Width: (full.Width / 2) &^ 1, Height: (full.Height / 2) &^ 1}
}

// Run pushes generated frames until the frame limit or ctx cancellation.
func (s *Source) Run(ctx context.Context, push func(pipeline.Frame)) error {
	base := s.clock.NowMs()
	start := time.Now()

	for i := 0; s.cfg.Frames == 0 || i < s.cfg.Frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		offset := int64(i) * 1000 / int64(s.cfg.FPS)
		if s.cfg.Pace {
			if err := sleepUntil(ctx, start.Add(time.Duration(offset)*time.Millisecond)); err != nil {
				return err
			}
		}

		size := s.SizeAt(i)
		push(pipeline.Frame{
			Width:       size.Width,
			Height:      size.Height,
			Data:        render(size, i),
			TimestampMs: base + offset,
		})
	}

	s.logger.Debug("Pattern finished after %d frames", s.cfg.Frames)
	return nil
}

// render draws vertical luma bars scrolled by the frame index.
func render(size pipeline.Dimension, i int) []byte {
	data := make([]byte, pipeline.I420Size(size.Width, size.Height))
	lumaLen := size.Width * size.Height
	for y := 0; y < size.Height; y++ {
		row := data[y*size.Width : (y+1)*size.Width]
		for x := range row {
			row[x] = byte(((x + i*4) % size.Width) * 255 / size.Width)
		}
	}
	for j := lumaLen; j < len(data); j++ {
		data[j] = 128
	}
	return data
}

func sleepUntil(ctx context.Context, deadline time.Time) error {
	d := time.Until(deadline)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Ensure Source implements ports.FrameSource
var _ ports.FrameSource = (*Source)(nil)
