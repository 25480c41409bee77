package ports

import (
	"context"
	"fmt"
)

// EncoderProcess abstracts the external encoder executable.
// Run blocks until the process exits. A non-zero exit status is reported
// as *ExitError; any other error means the process could not be run.
type EncoderProcess interface {
	Run(ctx context.Context, args []string) error
}

// ExitError is returned by EncoderProcess when the encoder exits non-zero.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}
