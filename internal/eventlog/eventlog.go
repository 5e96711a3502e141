// Package eventlog records a JSON-Lines transcript of session activity.
// The transcript is observational only; a failed write never affects the
// protocol.
package eventlog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// header is the first line of a transcript file.
type header struct {
	Version   int    `json:"version"`
	SessionID string `json:"session"`
	Timestamp int64  `json:"timestamp"`
}

// entry is one logged event. Offset is seconds since the transcript began.
type entry struct {
	Offset float64 `json:"t"`
	Kind   string  `json:"event"`
	Detail any     `json:"detail,omitempty"`
}

// Logger writes one session's transcript.
type Logger struct {
	writer    io.Writer
	file      *os.File // only set if we own the file
	startTime time.Time
	mu        sync.Mutex
}

// NewLogger creates a Logger that writes to the given file path.
func NewLogger(path string) (*Logger, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &Logger{
		writer:    file,
		file:      file,
		startTime: time.Now(),
	}, nil
}

// NewLoggerWithWriter creates a Logger that writes to the given writer.
// This is useful for testing.
func NewLoggerWithWriter(w io.Writer) *Logger {
	return &Logger{
		writer:    w,
		startTime: time.Now(),
	}
}

// WriteHeader writes the transcript header. Call once, before any event.
func (l *Logger) WriteHeader(sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(header{
		Version:   1,
		SessionID: sessionID,
		Timestamp: l.startTime.Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if _, err := l.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// WriteEvent appends one event line to the transcript.
func (l *Logger) WriteEvent(kind string, detail any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.Marshal(entry{
		Offset: time.Since(l.startTime).Seconds(),
		Kind:   kind,
		Detail: detail,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := l.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// Close closes the transcript file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Manager lazily opens one transcript per session under a directory. A nil
// Manager, or one created with an empty directory, discards everything, so
// callers record unconditionally.
type Manager struct {
	dir string

	mu      sync.Mutex
	loggers map[string]*Logger
}

// NewManager creates a Manager writing transcripts under dir. An empty dir
// disables recording.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:     dir,
		loggers: make(map[string]*Logger),
	}
}

// Record appends an event to the session's transcript, opening it on first
// use.
func (m *Manager) Record(sessionID, kind string, detail any) {
	if m == nil || m.dir == "" {
		return
	}

	m.mu.Lock()
	l, ok := m.loggers[sessionID]
	if !ok {
		var err error
		l, err = NewLogger(filepath.Join(m.dir, sessionID+".jsonl"))
		if err != nil {
			m.mu.Unlock()
			return
		}
		m.loggers[sessionID] = l
		l.WriteHeader(sessionID)
	}
	m.mu.Unlock()

	l.WriteEvent(kind, detail)
}

// Close closes every open transcript.
func (m *Manager) Close() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.loggers {
		l.Close()
	}
	m.loggers = make(map[string]*Logger)
}
