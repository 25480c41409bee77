// Package yuvsource replays a raw yuv420p file as a live frame source.
package yuvsource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/user/slicerec/pkg/pipeline"
	"github.com/user/slicerec/pkg/ports"
)

// Config configures a file source.
type Config struct {
	Path   string
	Width  int
	Height int
	FPS    int
	Frames int  // Stop after this many frames; 0 reads the whole file
	Pace   bool // Deliver frames in real time instead of as fast as possible
}

// Source reads fixed-size I420 frames from a file.
type Source struct {
	cfg    Config
	clock  ports.Clock
	logger ports.Logger
}

// New creates a new file source.
func New(cfg Config, clock ports.Clock, logger ports.Logger) (*Source, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.FPS <= 0 {
		return nil, fmt.Errorf("invalid fps %d", cfg.FPS)
	}
	return &Source{
		cfg:    cfg,
		clock:  clock,
		logger: logger.WithComponent("yuvsource"),
	}, nil
}

// Run pushes every complete frame of the file. Timestamps advance by the
// frame interval from the clock reading at start.
func (s *Source) Run(ctx context.Context, push func(pipeline.Frame)) error {
	f, err := os.Open(s.cfg.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.cfg.Path, err)
	}
	defer f.Close()

	frameSize := pipeline.I420Size(s.cfg.Width, s.cfg.Height)
	r := bufio.NewReaderSize(f, frameSize)
	base := s.clock.NowMs()
	start := time.Now()

	count := 0
	for s.cfg.Frames == 0 || count < s.cfg.Frames {
		if err := ctx.Err(); err != nil {
			return err
		}

		data := make([]byte, frameSize)
		if _, err := io.ReadFull(r, data); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				s.logger.Warn("Ignoring truncated trailing frame in %s", s.cfg.Path)
				break
			}
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("read frame %d: %w", count, err)
		}

		offset := int64(count) * 1000 / int64(s.cfg.FPS)
		if s.cfg.Pace {
			if err := sleepUntil(ctx, start.Add(time.Duration(offset)*time.Millisecond)); err != nil {
				return err
			}
		}

		push(pipeline.Frame{
			Width:       s.cfg.Width,
			Height:      s.cfg.Height,
			Data:        data,
			TimestampMs: base + offset,
		})
		count++
	}

	s.logger.Debug("Source %s finished after %d frames", s.cfg.Path, count)
	return nil
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
