package mocks

import (
	"context"
	"sync"

	"github.com/user/slicerec/pkg/ports"
)

// EncoderProcess is a mock implementation of ports.EncoderProcess.
type EncoderProcess struct {
	RunFunc func(ctx context.Context, args []string) error

	mu    sync.Mutex
	calls [][]string
}

func (m *EncoderProcess) Run(ctx context.Context, args []string) error {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string(nil), args...))
	m.mu.Unlock()
	if m.RunFunc != nil {
		return m.RunFunc(ctx, args)
	}
	return nil
}

// Calls returns the argument lists of every Run call.
func (m *EncoderProcess) Calls() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]string(nil), m.calls...)
}

// VideoProber is a mock implementation of ports.VideoProber.
type VideoProber struct {
	ProbeFunc func(path string) (ports.VideoInfo, error)
}

func (m *VideoProber) Probe(path string) (ports.VideoInfo, error) {
	if m.ProbeFunc != nil {
		return m.ProbeFunc(path)
	}
	return ports.VideoInfo{Codec: "h264"}, nil
}

var (
	_ ports.EncoderProcess = (*EncoderProcess)(nil)
	_ ports.VideoProber    = (*VideoProber)(nil)
)
