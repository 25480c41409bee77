// Package write implements the slice write stage.
package write

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/user/slicerec/pkg/pipeline"
	"github.com/user/slicerec/pkg/ports"
)

// DescriptorName is the file name of the slice descriptor.
// Its presence marks a slice directory as fully written.
const DescriptorName = "config.json"

// Stage persists the drained frames of a slice and its descriptor.
type Stage struct {
	fs     ports.FileSystem
	sink   ports.DebugSink
	logger ports.Logger
}

// NewStage creates a new write stage.
func NewStage(fs ports.FileSystem, sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		fs:     fs,
		sink:   sink,
		logger: logger.WithComponent("writer"),
	}
}

// DumpFileName returns the raw dump file name for one source of a slice.
// The name embeds geometry, frame rate, duration and frame payload length
// so that the dump can be decoded without the descriptor.
func DumpFileName(size pipeline.Dimension, frameRate *int, durationMs int64, frameByteLength int) string {
	rate := "null"
	if frameRate != nil {
		rate = strconv.Itoa(*frameRate)
	}
	return fmt.Sprintf("video_%dx%dx%s_%d_%d.yuv", size.Width, size.Height, rate, durationMs, frameByteLength)
}

// Execute writes every non-empty source to its dump file, then the descriptor.
func (s *Stage) Execute(ctx context.Context, input pipeline.WriteInput) (pipeline.WriteResult, error) {
	result := pipeline.WriteResult{}
	meta := pipeline.SliceMetadata{
		Slice:   input.Slice,
		DumpDir: input.Dir,
		Video:   make([]*pipeline.SourceSlice, len(input.Drained)),
	}

	for i, drained := range input.Drained {
		if drained.Empty() {
			continue
		}
		src, n, err := s.writeSource(ctx, input.Slice, input.Dir, i, drained)
		if err != nil {
			return result, err
		}
		meta.Video[i] = src
		result.BytesWritten += n
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return result, fmt.Errorf("marshal descriptor: %w", err)
	}
	path := filepath.Join(input.Dir, DescriptorName)
	if err := s.fs.WriteFile(path, data); err != nil {
		return result, &pipeline.WriteError{Slice: input.Slice, Source: -1, Path: path, Err: err}
	}

	if s.sink.Enabled() {
		s.saveDebug(input, data)
	}

	result.Metadata = meta
	result.MetadataPath = path
	return result, nil
}

func (s *Stage) writeSource(ctx context.Context, slice uint64, dir string, source int, drained pipeline.Drained) (*pipeline.SourceSlice, int64, error) {
	duration := drained.DurationMs()
	frameRate := pipeline.FrameRate(len(drained.Frames), duration)
	path := filepath.Join(dir, DumpFileName(drained.Size, frameRate, duration, drained.FrameByteLength))

	fail := func(err error) (*pipeline.SourceSlice, int64, error) {
		return nil, 0, &pipeline.WriteError{Slice: slice, Source: source, Path: path, Err: err}
	}

	start := time.Now()
	w, err := s.fs.Append(path)
	if err != nil {
		return fail(err)
	}

	var written int64
	for _, frame := range drained.Frames {
		if err := ctx.Err(); err != nil {
			w.Close()
			return fail(err)
		}
		n, err := w.Write(frame.Data)
		written += int64(n)
		if err != nil {
			w.Close()
			return fail(err)
		}
	}
	if err := w.Close(); err != nil {
		return fail(err)
	}

	s.logger.Debug("Dumped file %s (%d frames) in %d ms", path, len(drained.Frames), time.Since(start).Milliseconds())

	return &pipeline.SourceSlice{
		DumpPath:        path,
		Width:           drained.Size.Width,
		Height:          drained.Size.Height,
		FrameRate:       frameRate,
		Duration:        duration,
		FrameByteLength: drained.FrameByteLength,
		FrameCount:      len(drained.Frames),
	}, written, nil
}

// saveDebug hands the descriptor and first frames to the debug sink.
// Sink failures never fail the slice.
func (s *Stage) saveDebug(input pipeline.WriteInput, descriptor []byte) {
	if err := s.sink.SaveDescriptor(input.Slice, descriptor); err != nil {
		s.logger.Warn("Failed to save debug descriptor for slice %d: %s", input.Slice, err)
	}
	for i, drained := range input.Drained {
		if drained.Empty() {
			continue
		}
		if err := s.sink.SavePreview(input.Slice, i, drained.Frames[0]); err != nil {
			s.logger.Warn("Failed to save preview for slice %d source %d: %s", input.Slice, i, err)
		}
	}
}
