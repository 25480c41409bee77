// Package ffmpeg runs the external ffmpeg executable as the slice encoder.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/user/slicerec/pkg/ports"
)

// ErrFFmpegNotFound is returned when no ffmpeg executable can be located.
var ErrFFmpegNotFound = errors.New("ffmpeg: executable not found")

// maxStderr bounds the stderr tail kept for diagnostics.
const maxStderr = 4096

// Find locates ffmpeg.
// Priority: 1) customPath, 2) FFMPEG_PATH env, 3) a bundled binary under
// <executable dir>/<GOOS>/<GOARCH>/, 4) PATH, 5) common locations.
func Find(customPath string) (string, error) {
	if customPath != "" {
		if _, err := os.Stat(customPath); err == nil {
			return customPath, nil
		}
		return "", fmt.Errorf("%w: custom path %s not found", ErrFFmpegNotFound, customPath)
	}

	if envPath := os.Getenv("FFMPEG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
		return "", fmt.Errorf("%w: FFMPEG_PATH %s not found", ErrFFmpegNotFound, envPath)
	}

	execName := "ffmpeg"
	if runtime.GOOS == "windows" {
		execName = "ffmpeg.exe"
	}

	if exe, err := os.Executable(); err == nil {
		bundled := filepath.Join(filepath.Dir(exe), runtime.GOOS, runtime.GOARCH, execName)
		if _, err := os.Stat(bundled); err == nil {
			return bundled, nil
		}
	}

	if path, err := exec.LookPath(execName); err == nil {
		return path, nil
	}

	var commonPaths []string
	switch runtime.GOOS {
	case "windows":
		commonPaths = []string{
			`C:\ffmpeg\bin\ffmpeg.exe`,
			`C:\Program Files\ffmpeg\bin\ffmpeg.exe`,
		}
	case "darwin":
		commonPaths = []string{
			"/opt/homebrew/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/usr/bin/ffmpeg",
		}
	default:
		commonPaths = []string{
			"/usr/bin/ffmpeg",
			"/usr/local/bin/ffmpeg",
			"/snap/bin/ffmpeg",
		}
	}

	for _, p := range commonPaths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", ErrFFmpegNotFound
}

// Runner implements ports.EncoderProcess by spawning an executable.
type Runner struct {
	path   string
	logger ports.Logger
}

// New creates a Runner for the ffmpeg located by Find(customPath).
func New(customPath string, logger ports.Logger) (*Runner, error) {
	path, err := Find(customPath)
	if err != nil {
		return nil, err
	}
	return NewWithPath(path, logger), nil
}

// NewWithPath creates a Runner for an explicit executable path.
func NewWithPath(path string, logger ports.Logger) *Runner {
	return &Runner{
		path:   path,
		logger: logger.WithComponent("ffmpeg"),
	}
}

// Path returns the executable the runner spawns.
func (r *Runner) Path() string {
	return r.path
}

// Run starts the executable with args and waits for it to exit.
// A non-zero exit status is returned as *ports.ExitError.
func (r *Runner) Run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, r.path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logger.Debug("Running %s %v", r.path, args)
	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		return &ports.ExitError{Code: exitErr.ExitCode(), Stderr: tail(stderr.Bytes())}
	}
	return fmt.Errorf("run %s: %w", r.path, err)
}

func tail(b []byte) string {
	if len(b) > maxStderr {
		b = b[len(b)-maxStderr:]
	}
	return string(b)
}

// Ensure Runner implements ports.EncoderProcess
var _ ports.EncoderProcess = (*Runner)(nil)
