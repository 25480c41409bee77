package mocks

import (
	"sync"

	"github.com/user/slicerec/pkg/pipeline"
	"github.com/user/slicerec/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	EnabledValue bool

	mu          sync.Mutex
	Descriptors map[uint64][]byte
	Previews    []PreviewCall
}

// PreviewCall records a call to SavePreview.
type PreviewCall struct {
	Slice  uint64
	Source int
	Size   pipeline.Dimension
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		EnabledValue: enabled,
		Descriptors:  make(map[uint64][]byte),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.EnabledValue
}

func (m *DebugSink) SaveDescriptor(slice uint64, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Descriptors[slice] = data
	return nil
}

func (m *DebugSink) SavePreview(slice uint64, source int, frame pipeline.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Previews = append(m.Previews, PreviewCall{Slice: slice, Source: source, Size: frame.Size()})
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)
