// Package logger is a small leveled logger writing to a single file that
// is trimmed in place once it grows past a line budget. A process-wide
// instance keeps call sites terse; packages log through the top-level
// functions.
package logger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// MaxLogLines is the line budget of the log file; on overflow the oldest
// half is dropped.
const MaxLogLines = 5000

// Level is the logging threshold.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// ParseLevel maps a string to a Level, defaulting to Info.
func ParseLevel(s string) Level {
	switch strings.ToUpper(s) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	}
	return LevelInfo
}

// Logger writes leveled, timestamped lines to a file with line-count
// rotation.
type Logger struct {
	mu        sync.Mutex
	file      *os.File
	lineCount int
	level     Level
}

var global atomic.Pointer[Logger]

var fallback = &Logger{file: os.Stderr, level: LevelInfo}

// New builds a Logger on file and installs it as the process logger.
func New(file *os.File, level Level) *Logger {
	l := &Logger{file: file, level: level}
	l.countExistingLines()
	global.Store(l)
	return l
}

func active() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	return fallback
}

// Trace returns a function that logs the elapsed time of an operation
// when called, or a no-op when trace logging is off.
//
//	defer logger.Trace("client.DoGenerate")()
func Trace(name string) func() {
	l := active()
	if l.level > LevelTrace {
		return func() {}
	}
	start := time.Now()
	return func() {
		l.log(LevelTrace, "%s: %v", name, time.Since(start))
	}
}

func Debug(format string, v ...any) { active().log(LevelDebug, format, v...) }
func Info(format string, v ...any)  { active().log(LevelInfo, format, v...) }
func Warn(format string, v ...any)  { active().log(LevelWarn, format, v...) }
func Error(format string, v ...any) { active().log(LevelError, format, v...) }

// Fatal logs at error level and exits.
func Fatal(format string, v ...any) {
	active().log(LevelError, format, v...)
	os.Exit(1)
}

func (l *Logger) log(level Level, format string, v ...any) {
	if level < l.level {
		return
	}
	msg := fmt.Sprintf("%s [%s] %s\n",
		time.Now().Format("2006/01/02 15:04:05"), level, fmt.Sprintf(format, v...))

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.WriteString(msg); err != nil {
		return
	}
	l.lineCount++
	if l.lineCount > MaxLogLines {
		l.rotate()
	}
}

// countExistingLines primes the line counter from a pre-existing file and
// leaves the offset at the end for appending.
func (l *Logger) countExistingLines() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.file.Seek(0, io.SeekStart)
	scanner := bufio.NewScanner(l.file)
	count := 0
	for scanner.Scan() {
		count++
	}
	l.lineCount = count
	l.file.Seek(0, io.SeekEnd)
}

// rotate keeps the newest half of the line budget, rewriting the file in
// place. Called with the lock held.
func (l *Logger) rotate() {
	keep := MaxLogLines / 2

	l.file.Seek(0, io.SeekStart)
	scanner := bufio.NewScanner(l.file)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}

	l.file.Truncate(0)
	l.file.Seek(0, io.SeekStart)
	for _, line := range lines {
		l.file.WriteString(line + "\n")
	}
	l.lineCount = len(lines)
}

// Close closes the underlying file.
func (l *Logger) Close() error {
	return l.file.Close()
}
