// Package framebuffer implements the per-source frame buffer that decides
// where one slice ends and the next begins.
package framebuffer

import (
	"sync"

	"github.com/user/slicerec/pkg/pipeline"
	"github.com/user/slicerec/pkg/ports"
)

// DefaultMaxBytes is the default byte ceiling of a single slice.
const DefaultMaxBytes = 1_000_000_000

// BoundaryReason tells why a slice was sealed.
type BoundaryReason int

const (
	// ReasonResolution means the frame geometry changed.
	ReasonResolution BoundaryReason = iota + 1
	// ReasonSize means the byte ceiling was reached.
	ReasonSize
)

// String returns the string representation of the reason.
func (r BoundaryReason) String() string {
	switch r {
	case ReasonResolution:
		return "resolution"
	case ReasonSize:
		return "size"
	default:
		return "unknown"
	}
}

// BoundaryFunc is called once for every sealed slice, after the buffer
// lock has been released. It may drain the buffer.
type BoundaryFunc func(source int, reason BoundaryReason)

// segment is a run of frames sharing one resolution.
type segment struct {
	frames []pipeline.Frame
	size   pipeline.Dimension
	bytes  int
}

func (s segment) drained(source int) pipeline.Drained {
	d := pipeline.Drained{Source: source}
	if len(s.frames) == 0 {
		return d
	}
	first := s.frames[0]
	d.Frames = s.frames
	d.Size = s.size
	d.FirstTimestamp = first.TimestampMs
	d.LastTimestamp = s.frames[len(s.frames)-1].TimestampMs
	d.FrameByteLength = len(first.Data)
	return d
}

// Buffer accumulates the frames of one source.
//
// The current slice latches its resolution from its first frame. A frame
// with a different resolution seals the current slice and becomes the
// first frame of the next one. Reaching the byte ceiling seals the current
// slice including the frame that reached it. Sealed slices wait in arrival
// order until they are drained.
type Buffer struct {
	source     int
	maxBytes   int
	onBoundary BoundaryFunc
	logger     ports.Logger

	mu      sync.Mutex
	current segment
	sealed  []segment
}

// New creates a buffer for the given source index.
// A maxBytes of zero or less selects DefaultMaxBytes.
func New(source, maxBytes int, onBoundary BoundaryFunc, logger ports.Logger) *Buffer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Buffer{
		source:     source,
		maxBytes:   maxBytes,
		onBoundary: onBoundary,
		logger:     logger.WithComponent("buffer"),
	}
}

// Source returns the source index of the buffer.
func (b *Buffer) Source() int {
	return b.source
}

// Append records a frame and reports whether it sealed a slice.
func (b *Buffer) Append(frame pipeline.Frame) bool {
	var reasons []BoundaryReason

	b.mu.Lock()
	if len(b.current.frames) > 0 && frame.Size() != b.current.size {
		b.sealLocked(ReasonResolution)
		reasons = append(reasons, ReasonResolution)
	}
	if len(b.current.frames) == 0 {
		b.current.size = frame.Size()
	}
	b.current.frames = append(b.current.frames, frame)
	b.current.bytes += len(frame.Data)
	if b.current.bytes >= b.maxBytes {
		b.sealLocked(ReasonSize)
		reasons = append(reasons, ReasonSize)
	}
	b.mu.Unlock()

	if b.onBoundary != nil {
		for _, r := range reasons {
			b.onBoundary(b.source, r)
		}
	}
	return len(reasons) > 0
}

func (b *Buffer) sealLocked(reason BoundaryReason) {
	b.logger.Debug("Source %d: slice sealed (%s), %d frames, %d bytes",
		b.source, reason, len(b.current.frames), b.current.bytes)
	b.sealed = append(b.sealed, b.current)
	b.current = segment{}
}

// Drain removes the oldest sealed slice, or the current slice when nothing
// is sealed. The returned frames are owned by the caller. Draining the
// current slice resets the latched resolution.
func (b *Buffer) Drain() pipeline.Drained {
	b.mu.Lock()
	var seg segment
	if len(b.sealed) > 0 {
		seg = b.sealed[0]
		b.sealed[0] = segment{}
		b.sealed = b.sealed[1:]
		if len(b.sealed) == 0 {
			b.sealed = nil
		}
	} else {
		seg = b.current
		b.current = segment{}
	}
	b.mu.Unlock()

	return seg.drained(b.source)
}

// Reset discards every buffered frame.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = segment{}
	b.sealed = nil
}

// ByteLength returns the payload bytes of the current slice only, which is
// what the ceiling is compared against. Sealed slices awaiting a drain are
// not included; see BufferedBytes.
func (b *Buffer) ByteLength() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current.bytes
}

// BufferedBytes returns the payload bytes of every frame held by the
// buffer, sealed or current. It is 0 once everything has been drained.
func (b *Buffer) BufferedBytes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.current.bytes
	for _, seg := range b.sealed {
		n += seg.bytes
	}
	return n
}

// Len returns the number of frames in the current slice.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.current.frames)
}

// Pending returns the number of sealed slices waiting to be drained.
func (b *Buffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sealed)
}

// Empty reports whether the buffer holds no frames at all.
func (b *Buffer) Empty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.current.frames) == 0 && len(b.sealed) == 0
}

// Resolution returns the latched resolution of the current slice.
// The second result is false while the current slice is empty.
func (b *Buffer) Resolution() (pipeline.Dimension, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.current.frames) == 0 {
		return pipeline.Dimension{}, false
	}
	return b.current.size, true
}
