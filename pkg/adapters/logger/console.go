// Package logger provides logging implementations.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
	"github.com/user/slicerec/pkg/ports"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGray   = "\033[90m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// timeLayout is used when timestamps are enabled.
const timeLayout = "15:04:05.000"

var levelColors = map[ports.LogLevel]string{
	ports.LevelDebug: colorGray,
	ports.LevelWarn:  colorYellow,
	ports.LevelError: colorRed,
}

// output is shared by a logger and every component logger derived from it.
type output struct {
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
}

// ConsoleLogger logs messages to the console with color support.
// It is safe for concurrent use; slice pipelines log from their own goroutines.
type ConsoleLogger struct {
	level      ports.LogLevel
	components []string
	color      bool
	now        func() time.Time // nil disables timestamps
	out        *output
}

// NewConsole creates a new console logger with the specified level.
// On a terminal output is colored; otherwise each line carries a wall clock
// timestamp so long recordings can be correlated with slice files.
func NewConsole(level ports.LogLevel) *ConsoleLogger {
	l := NewWriters(level, os.Stdout, os.Stderr)
	fd := os.Stdout.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		l.color = true
	} else {
		l.now = time.Now
	}
	return l
}

// NewWriters creates a console logger writing to the given streams without
// color or timestamps. Warnings and errors go to stderr, everything else to stdout.
func NewWriters(level ports.LogLevel, stdout, stderr io.Writer) *ConsoleLogger {
	return &ConsoleLogger{
		level: level,
		out:   &output{stdout: stdout, stderr: stderr},
	}
}

// WithClock enables timestamps read from now.
func (l *ConsoleLogger) WithClock(now func() time.Time) *ConsoleLogger {
	l.now = now
	return l
}

func (l *ConsoleLogger) Debug(msg string, args ...interface{}) { l.log(ports.LevelDebug, msg, args) }
func (l *ConsoleLogger) Info(msg string, args ...interface{})  { l.log(ports.LevelInfo, msg, args) }
func (l *ConsoleLogger) Warn(msg string, args ...interface{})  { l.log(ports.LevelWarn, msg, args) }
func (l *ConsoleLogger) Error(msg string, args ...interface{}) { l.log(ports.LevelError, msg, args) }

// WithComponent returns a logger tagged with component. Components nest:
// a component logger of "recorder" called "slice" prints [recorder/slice].
func (l *ConsoleLogger) WithComponent(component string) ports.Logger {
	child := *l
	child.components = append(append([]string(nil), l.components...), component)
	return &child
}

func (l *ConsoleLogger) log(level ports.LogLevel, msg string, args []interface{}) {
	if level < l.level {
		return
	}

	var b strings.Builder
	if l.now != nil {
		b.WriteString(l.now().Format(timeLayout))
		b.WriteByte(' ')
	}
	if len(l.components) > 0 {
		tag := "[" + strings.Join(l.components, "/") + "]"
		if l.color {
			tag = colorCyan + tag + colorReset
		}
		b.WriteString(tag)
		b.WriteByte(' ')
	}
	b.WriteString(l10n.F(msg, args...))

	line := b.String()
	if c, ok := levelColors[level]; ok && l.color {
		line = c + line + colorReset
	}

	w := l.out.stdout
	if level >= ports.LevelWarn {
		w = l.out.stderr
	}

	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	fmt.Fprintln(w, line)
}

var _ ports.Logger = (*ConsoleLogger)(nil)
