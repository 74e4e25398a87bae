// Package logger writes leveled application logs to an append-only file.
// Lines look like:
//
//	[08-24-2026 15:04:05] INFO message
//
// All writes funnel through a single goroutine fed by a bounded channel, so
// callers never block on disk and lines never interleave. Before Init (and
// after Close) messages go to stderr instead.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Header is the severity tag of a log line.
type Header string

const (
	SUCCESS Header = "SUCCESS"
	INFO    Header = "INFO"
	WARNING Header = "WARNING"
	ERROR   Header = "ERROR"
	DEBUG   Header = "DEBUG"
)

const timeLayout = "01-02-2006 15:04:05"

const queueCapacity = 1024

type record struct {
	header  Header
	message string
	at      time.Time
}

// Logger is a file-backed leveled log sink with a serialized write path.
type Logger struct {
	queue chan record
	done  chan struct{}
	file  *os.File

	// qmu orders enqueues against Close so nothing is ever sent into a
	// closed queue.
	qmu    sync.Mutex
	closed bool
}

var (
	mu      sync.RWMutex
	current *Logger
)

// Init opens (creating parents as needed) the log file at path and installs
// it as the process-wide sink.
func Init(path string) error {
	l, err := New(path)
	if err != nil {
		return err
	}

	mu.Lock()
	current = l
	mu.Unlock()
	return nil
}

// New opens a logger writing to path without installing it globally.
func New(path string) (*Logger, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	l := &Logger{
		queue: make(chan record, queueCapacity),
		done:  make(chan struct{}),
		file:  file,
	}
	go l.run()
	return l, nil
}

func (l *Logger) run() {
	defer close(l.done)
	for rec := range l.queue {
		line := fmt.Sprintf("[%s] %s %s\n", rec.at.Format(timeLayout), rec.header, rec.message)
		if _, err := l.file.WriteString(line); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write log: %v\n", err)
		}
	}
	l.file.Close()
}

// Log enqueues one line. If the queue is full, or the logger is already
// closed, the line goes to stderr so nothing is dropped silently.
func (l *Logger) Log(header Header, format string, args ...interface{}) {
	rec := record{header: header, message: fmt.Sprintf(format, args...), at: time.Now()}

	l.qmu.Lock()
	if !l.closed {
		select {
		case l.queue <- rec:
			l.qmu.Unlock()
			return
		default:
		}
	}
	l.qmu.Unlock()

	fmt.Fprintf(os.Stderr, "[%s] %s %s\n", rec.at.Format(timeLayout), rec.header, rec.message)
}

// Close stops the writer after draining queued lines and closes the file.
// Safe to call more than once and concurrently with Log.
func (l *Logger) Close() {
	l.qmu.Lock()
	if l.closed {
		l.qmu.Unlock()
		return
	}
	l.closed = true
	close(l.queue)
	l.qmu.Unlock()

	<-l.done
}

func emit(header Header, format string, args ...interface{}) {
	mu.RLock()
	l := current
	mu.RUnlock()

	if l == nil {
		fmt.Fprintf(os.Stderr, "[%s] %s %s\n",
			time.Now().Format(timeLayout), header, fmt.Sprintf(format, args...))
		return
	}
	l.Log(header, format, args...)
}

// Success logs at SUCCESS level.
func Success(format string, args ...interface{}) { emit(SUCCESS, format, args...) }

// Info logs at INFO level.
func Info(format string, args ...interface{}) { emit(INFO, format, args...) }

// Warning logs at WARNING level.
func Warning(format string, args ...interface{}) { emit(WARNING, format, args...) }

// Error logs at ERROR level.
func Error(format string, args ...interface{}) { emit(ERROR, format, args...) }

// Debug logs at DEBUG level.
func Debug(format string, args ...interface{}) { emit(DEBUG, format, args...) }

// Shutdown closes and uninstalls the process-wide sink.
func Shutdown() {
	mu.Lock()
	l := current
	current = nil
	mu.Unlock()

	if l != nil {
		l.Close()
	}
}
