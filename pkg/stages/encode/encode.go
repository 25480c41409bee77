// Package encode implements the slice encoding stage.
package encode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/user/slicerec/pkg/metrics"
	"github.com/user/slicerec/pkg/pipeline"
	"github.com/user/slicerec/pkg/ports"
)

// ErrNoVideo is returned when a descriptor lists no source with frames.
var ErrNoVideo = errors.New("descriptor has no video source")

// Stage encodes a written slice with the external encoder and removes
// the raw slice directory on success.
type Stage struct {
	fs      ports.FileSystem
	encoder ports.EncoderProcess
	prober  ports.VideoProber
	logger  ports.Logger
}

// NewStage creates a new encode stage. prober may be nil.
func NewStage(fs ports.FileSystem, encoder ports.EncoderProcess, prober ports.VideoProber, logger ports.Logger) *Stage {
	return &Stage{
		fs:      fs,
		encoder: encoder,
		prober:  prober,
		logger:  logger.WithComponent("encoder"),
	}
}

// Args builds the encoder argument list for one raw source.
// The frame rate flag is omitted when the rate is undefined.
func Args(src pipeline.SourceSlice, outputPath string) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "yuv420p",
		"-s", fmt.Sprintf("%dx%d", src.Width, src.Height),
	}
	if src.FrameRate != nil {
		args = append(args, "-r", strconv.Itoa(*src.FrameRate))
	}
	return append(args, "-i", src.DumpPath, outputPath)
}

// Execute encodes the slice described by input.MetadataPath.
// On a cleanup failure the result is returned together with a *pipeline.CleanupError.
func (s *Stage) Execute(ctx context.Context, input pipeline.EncodeInput) (pipeline.EncodeResult, error) {
	result := pipeline.EncodeResult{
		Slice:      input.Slice,
		OutputPath: input.OutputPath,
	}

	data, err := s.fs.ReadFile(input.MetadataPath)
	if err != nil {
		return result, &pipeline.EncodeError{Slice: input.Slice, ExitCode: -1, Err: fmt.Errorf("read descriptor: %w", err)}
	}
	var meta pipeline.SliceMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return result, &pipeline.EncodeError{Slice: input.Slice, ExitCode: -1, Err: fmt.Errorf("parse descriptor: %w", err)}
	}

	_, src, ok := meta.Representative()
	if !ok {
		return result, &pipeline.EncodeError{Slice: input.Slice, ExitCode: -1, Err: ErrNoVideo}
	}
	result.Source = *src
	result.DurationMs = src.Duration

	args := Args(*src, input.OutputPath)
	s.logger.Info("Encoding slice %d (%dx%d, %d frames)", input.Slice, src.Width, src.Height, src.FrameCount)

	start := time.Now()
	err = s.encoder.Run(ctx, args)
	metrics.EncodeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EncodeJobsTotal.WithLabelValues(metrics.StatusFailure).Inc()
		encErr := &pipeline.EncodeError{Slice: input.Slice, ExitCode: -1, Err: err}
		var exitErr *ports.ExitError
		if errors.As(err, &exitErr) {
			encErr.ExitCode = exitErr.Code
			encErr.Stderr = exitErr.Stderr
		}
		return result, encErr
	}
	metrics.EncodeJobsTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	s.logger.Debug("Encoded slice %d in %d ms", input.Slice, time.Since(start).Milliseconds())

	if size, err := s.fs.Size(input.OutputPath); err == nil {
		result.FileSize = size
	}

	if s.prober != nil {
		s.probe(&result)
	}

	if err := s.fs.RemoveAll(meta.DumpDir); err != nil {
		metrics.CleanupFailuresTotal.Inc()
		return result, &pipeline.CleanupError{
			Slice:      input.Slice,
			Dir:        meta.DumpDir,
			OutputPath: input.OutputPath,
			Err:        err,
		}
	}

	return result, nil
}

func (s *Stage) probe(result *pipeline.EncodeResult) {
	info, err := s.prober.Probe(result.OutputPath)
	if err != nil {
		s.logger.Warn("Failed to probe %s: %s", result.OutputPath, err)
		return
	}
	result.Codec = info.Codec
	if info.DurationMs > 0 {
		result.DurationMs = info.DurationMs
	}
	if info.Width != 0 && (info.Width != result.Source.Width || info.Height != result.Source.Height) {
		s.logger.Warn("Slice %d encoded as %dx%d, expected %dx%d",
			result.Slice, info.Width, info.Height, result.Source.Width, result.Source.Height)
	}
}
