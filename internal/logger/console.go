// Package logger provides the console logger used for run progress.
//
// Lines are prefixed with [HH:MM:SS] and a level tag. Color is enabled only
// when writing to a terminal.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger is safe for concurrent use.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
	now         func() time.Time
}

// NewConsoleLogger creates a ConsoleLogger writing to writer. A nil writer
// discards everything. Unknown levels fall back to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
		now:         time.Now,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if color.NoColor && (f == os.Stdout || f == os.Stderr) {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	default:
		return "info"
	}
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (cl *ConsoleLogger) shouldLog(level string) bool {
	return logLevelToInt(level) >= logLevelToInt(cl.logLevel)
}

func (cl *ConsoleLogger) LogTrace(message string) { cl.logWithLevel("trace", message) }
func (cl *ConsoleLogger) LogDebug(message string) { cl.logWithLevel("debug", message) }
func (cl *ConsoleLogger) LogInfo(message string)  { cl.logWithLevel("info", message) }
func (cl *ConsoleLogger) LogWarn(message string)  { cl.logWithLevel("warn", message) }
func (cl *ConsoleLogger) LogError(message string) { cl.logWithLevel("error", message) }

// LogInfof formats according to a format specifier and logs at info level.
func (cl *ConsoleLogger) LogInfof(format string, args ...any) {
	cl.LogInfo(fmt.Sprintf(format, args...))
}

func (cl *ConsoleLogger) logWithLevel(level, message string) {
	if cl.writer == nil || !cl.shouldLog(level) {
		return
	}

	tag := "[" + strings.ToUpper(level) + "]"
	if cl.colorOutput {
		tag = levelColor(level).Sprint(tag)
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	fmt.Fprintf(cl.writer, "[%s] %s %s\n", cl.now().Format("15:04:05"), tag, message)
}

func levelColor(level string) *color.Color {
	switch level {
	case "warn":
		return color.New(color.FgYellow)
	case "error":
		return color.New(color.FgRed)
	case "debug", "trace":
		return color.New(color.FgHiBlack)
	default:
		return color.New(color.FgCyan)
	}
}

// Highlight renders s green when ok and red otherwise, if color is enabled.
func (cl *ConsoleLogger) Highlight(ok bool, s string) string {
	if !cl.colorOutput {
		return s
	}
	if ok {
		return color.New(color.FgGreen).Sprint(s)
	}
	return color.New(color.FgRed).Sprint(s)
}
