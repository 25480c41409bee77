package pipeline

import (
	"errors"
	"fmt"
)

// ErrInvalidState is wrapped by LifecycleError.
var ErrInvalidState = errors.New("invalid recorder state")

// ErrInvalidFrame is wrapped by Frame.Validate.
var ErrInvalidFrame = errors.New("invalid frame")

// LifecycleError is returned for a rejected state transition.
// The recorder state is unchanged when it is returned.
type LifecycleError struct {
	Op    string
	State RecorderState
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s: %s (state %s)", e.Op, ErrInvalidState, e.State)
}

func (e *LifecycleError) Unwrap() error {
	return ErrInvalidState
}

// WriteError reports an I/O failure while persisting a slice.
// The slice is abandoned; no descriptor is written and it is not encoded.
type WriteError struct {
	Slice  uint64
	Source int // -1 when the descriptor itself failed
	Path   string
	Err    error
}

func (e *WriteError) Error() string {
	if e.Source < 0 {
		return fmt.Sprintf("slice %d: write descriptor %s: %v", e.Slice, e.Path, e.Err)
	}
	return fmt.Sprintf("slice %d: write source %d to %s: %v", e.Slice, e.Source, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// EncodeError reports an encoder failure. The raw slice directory is kept.
type EncodeError struct {
	Slice    uint64
	ExitCode int // -1 when the encoder could not be run at all
	Stderr   string
	Err      error
}

func (e *EncodeError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("slice %d: encoder exited with code %d: %v", e.Slice, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("slice %d: encode: %v", e.Slice, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// CleanupError reports that the raw slice directory could not be removed
// after a successful encode. The encoded artifact at OutputPath is valid.
type CleanupError struct {
	Slice      uint64
	Dir        string
	OutputPath string
	Err        error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("slice %d: remove %s: %v", e.Slice, e.Dir, e.Err)
}

func (e *CleanupError) Unwrap() error {
	return e.Err
}
