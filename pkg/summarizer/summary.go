// Package summarizer provides summary generation for recording sessions.
package summarizer

import (
	"time"

	"github.com/user/slicerec/pkg/pipeline"
)

// Summary contains all data collected during a recording session.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	// Session information
	Session SessionInfo

	// Recording settings
	Settings Settings

	// Published slices in id order
	Slices []SliceInfo
}

// SessionInfo describes one recording session.
type SessionInfo struct {
	RootDir     string
	OutputDir   string
	Sources     int
	TotalFrames int64
	Duration    time.Duration
	Finalized   int // Slices assigned an id, including failed ones
	Interrupted bool
}

// Failed returns the number of finalized slices that produced no output.
func (s SessionInfo) Failed(published int) int {
	if s.Finalized < published {
		return 0
	}
	return s.Finalized - published
}

// Settings contains the recording configuration.
type Settings struct {
	MaxSliceBytes int
	EncodeTimeout time.Duration // 0 = none
	FFmpegPath    string
}

// SliceInfo contains information about one encoded slice.
type SliceInfo struct {
	ID         uint64
	Path       string
	Width      int
	Height     int
	FrameRate  *int
	FrameCount int
	DurationMs int64
	FileSize   int64
	Codec      string
}

// SliceInfoFromEvent converts a slice ready event.
func SliceInfoFromEvent(e pipeline.SliceReadyEvent) SliceInfo {
	return SliceInfo{
		ID:         e.Slice,
		Path:       e.FilePath,
		Width:      e.Result.Source.Width,
		Height:     e.Result.Source.Height,
		FrameRate:  e.Result.Source.FrameRate,
		FrameCount: e.Result.Source.FrameCount,
		DurationMs: e.Result.DurationMs,
		FileSize:   e.Result.FileSize,
		Codec:      e.Result.Codec,
	}
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// TotalFileSize returns the combined size of every encoded slice.
func (s *Summary) TotalFileSize() int64 {
	var n int64
	for _, sl := range s.Slices {
		n += sl.FileSize
	}
	return n
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSession sets session information.
func (b *Builder) WithSession(session SessionInfo) *Builder {
	b.summary.Session = session
	return b
}

// WithSettings sets recording settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithSlices appends the published slices.
func (b *Builder) WithSlices(events []pipeline.SliceReadyEvent) *Builder {
	for _, e := range events {
		b.summary.Slices = append(b.summary.Slices, SliceInfoFromEvent(e))
	}
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
