package ports

import "github.com/user/slicerec/pkg/pipeline"

// DebugSink abstracts debug output for intermediate results.
// It allows keeping slice descriptors and previews after the raw
// slice directory has been removed.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveDescriptor saves a copy of a slice descriptor.
	SaveDescriptor(slice uint64, data []byte) error

	// SavePreview saves a preview image of a source's first frame.
	SavePreview(slice uint64, source int, frame pipeline.Frame) error
}
