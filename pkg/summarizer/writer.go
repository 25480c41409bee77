package summarizer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/user/slicerec/pkg/ports"
)

// StdoutPath makes Writer print the summary instead of saving it.
const StdoutPath = "-"

// Writer writes formatted summaries to files.
type Writer struct {
	formatter Formatter
	fs        ports.FileSystem
	stdout    io.Writer
}

// NewWriter creates a new Writer with the given Formatter.
func NewWriter(formatter Formatter, fs ports.FileSystem) *Writer {
	return &Writer{
		formatter: formatter,
		fs:        fs,
		stdout:    os.Stdout,
	}
}

// Write formats the summary and saves it at path, creating parent
// directories as needed. A path of "-" prints to stdout.
func (w *Writer) Write(path string, summary *Summary) error {
	content := w.formatter.Format(summary)

	if path == StdoutPath {
		_, err := io.WriteString(w.stdout, content)
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := w.fs.MkdirAll(dir); err != nil {
			return fmt.Errorf("create summary directory: %w", err)
		}
	}
	if err := w.fs.WriteFile(path, []byte(content)); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
