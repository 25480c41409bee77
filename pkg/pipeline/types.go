package pipeline

import "fmt"

// =============================================================================
// Common Types
// =============================================================================

// Dimension represents width and height.
type Dimension struct {
	Width  int
	Height int
}

// String returns the WxH form used by encoder arguments and file names.
func (d Dimension) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// IsZero reports whether the dimension is unset.
func (d Dimension) IsZero() bool {
	return d.Width == 0 && d.Height == 0
}

// =============================================================================
// Frame
// =============================================================================

// Frame is a single captured video frame in planar YUV 4:2:0.
// A Frame must not be modified once it has been pushed to a recorder.
type Frame struct {
	Width       int
	Height      int
	Rotation    int    // Clockwise rotation in degrees as reported by the source
	Data        []byte // I420 payload, len = Width*Height*3/2
	TimestampMs int64  // Arrival time in monotonic milliseconds; Unstamped if unknown
}

// Unstamped marks a frame whose arrival time the recorder should fill in.
// Any negative TimestampMs is treated the same way; zero is a valid time.
const Unstamped int64 = -1

// Stamped reports whether the frame carries its own arrival time.
func (f Frame) Stamped() bool {
	return f.TimestampMs >= 0
}

// Validate checks the geometry and that the payload holds exactly one I420 picture.
func (f Frame) Validate() error {
	if f.Width < 1 || f.Height < 1 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidFrame, f.Width, f.Height)
	}
	if want := I420Size(f.Width, f.Height); len(f.Data) != want {
		return fmt.Errorf("%w: %d payload bytes for %dx%d, want %d", ErrInvalidFrame, len(f.Data), f.Width, f.Height, want)
	}
	return nil
}

// Size returns the frame geometry.
func (f Frame) Size() Dimension {
	return Dimension{Width: f.Width, Height: f.Height}
}

// I420Size returns the payload length of a planar YUV 4:2:0 frame.
func I420Size(width, height int) int {
	return width * height * 3 / 2
}

// =============================================================================
// Buffer Types
// =============================================================================

// Drained is the content removed from a frame buffer by a drain.
// Frames is empty when the buffer held nothing.
type Drained struct {
	Source          int
	Frames          []Frame
	Size            Dimension
	FirstTimestamp  int64
	LastTimestamp   int64
	FrameByteLength int
}

// Empty reports whether the drain produced no frames.
func (d Drained) Empty() bool {
	return len(d.Frames) == 0
}

// DurationMs returns the time between the first and the last frame.
func (d Drained) DurationMs() int64 {
	if len(d.Frames) == 0 {
		return 0
	}
	return d.LastTimestamp - d.FirstTimestamp
}

// FrameRate derives the slice frame rate from the frame count and duration.
// It returns nil when fewer than two frames were captured or no time elapsed.
func FrameRate(frameCount int, durationMs int64) *int {
	if frameCount < 2 || durationMs <= 0 {
		return nil
	}
	// ceil((frameCount-1) / durationMs * 1000) in integer arithmetic
	n := int64(frameCount-1) * 1000
	rate := int((n + durationMs - 1) / durationMs)
	return &rate
}

// =============================================================================
// Slice Metadata
// =============================================================================

// SourceSlice describes one source's raw dump inside a slice directory.
type SourceSlice struct {
	DumpPath        string `json:"dumpPath"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	FrameRate       *int   `json:"frameRate"`
	Duration        int64  `json:"duration"`
	FrameByteLength int    `json:"frameByteLength"`
	FrameCount      int    `json:"frameCount"`
}

// SliceMetadata is the descriptor persisted as config.json in a slice directory.
// Video is indexed by source; sources without frames are nil.
type SliceMetadata struct {
	Slice   uint64         `json:"slice"`
	DumpDir string         `json:"dumpDir"`
	Video   []*SourceSlice `json:"video"`
}

// Representative returns the source used as the canonical encode stream:
// the first source that contributed frames.
func (m SliceMetadata) Representative() (int, *SourceSlice, bool) {
	for i, v := range m.Video {
		if v != nil {
			return i, v, true
		}
	}
	return -1, nil, false
}

// =============================================================================
// Write Stage Types
// =============================================================================

// WriteInput contains a finalized slice ready to be persisted.
type WriteInput struct {
	Slice   uint64
	Dir     string
	Drained []Drained // Indexed by source
}

// WriteResult contains the persisted slice descriptor.
type WriteResult struct {
	Metadata     SliceMetadata
	MetadataPath string
	BytesWritten int64
}

// =============================================================================
// Encode Stage Types
// =============================================================================

// EncodeInput contains parameters for encoding a written slice.
type EncodeInput struct {
	Slice        uint64
	MetadataPath string
	OutputPath   string
}

// EncodeResult contains the encoded slice.
type EncodeResult struct {
	Slice      uint64
	OutputPath string
	Source     SourceSlice // Representative stream passed to the encoder
	Codec      string      // Filled when a prober is configured
	DurationMs int64
	FileSize   int64
}

// =============================================================================
// Notification
// =============================================================================

// SliceReadyEvent is published once per successfully encoded slice.
type SliceReadyEvent struct {
	Slice    uint64
	FilePath string
	Result   EncodeResult
}

// =============================================================================
// Recorder State
// =============================================================================

// RecorderState is the lifecycle state of a recorder.
type RecorderState int

const (
	// StateInactive is the initial state and the state after Stop.
	StateInactive RecorderState = iota
	// StateRecording accepts frames and finalizes slices.
	StateRecording
	// StatePaused is reserved; no transition leads to it yet.
	StatePaused
)

// String returns the string representation of the state.
func (s RecorderState) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateRecording:
		return "recording"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
