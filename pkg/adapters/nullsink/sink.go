// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"github.com/user/slicerec/pkg/pipeline"
	"github.com/user/slicerec/pkg/ports"
)

// Sink is a no-op implementation of ports.DebugSink.
// It discards all debug output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

// SaveDescriptor does nothing.
func (s *Sink) SaveDescriptor(slice uint64, data []byte) error {
	return nil
}

// SavePreview does nothing.
func (s *Sink) SavePreview(slice uint64, source int, frame pipeline.Frame) error {
	return nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
