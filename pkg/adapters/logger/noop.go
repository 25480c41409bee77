package logger

import "github.com/user/slicerec/pkg/ports"

// NoopLogger discards everything. The CLI uses it for --quiet.
type NoopLogger struct{}

// NewNoop returns a logger that discards all messages.
func NewNoop() *NoopLogger { return &NoopLogger{} }

func (*NoopLogger) Debug(string, ...interface{}) {}
func (*NoopLogger) Info(string, ...interface{})  {}
func (*NoopLogger) Warn(string, ...interface{})  {}
func (*NoopLogger) Error(string, ...interface{}) {}

func (l *NoopLogger) WithComponent(string) ports.Logger { return l }

var _ ports.Logger = (*NoopLogger)(nil)
