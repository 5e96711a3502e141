package eventlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerWithWriter(&buf)

	if err := l.WriteHeader("session-1"); err != nil {
		t.Fatalf("Failed to write header: %v", err)
	}
	if err := l.WriteEvent("student_joined", "student-0001"); err != nil {
		t.Fatalf("Failed to write event: %v", err)
	}
	if err := l.WriteEvent("reveal", []int{0, 2, 1}); err != nil {
		t.Fatalf("Failed to write event: %v", err)
	}

	scanner := bufio.NewScanner(&buf)

	if !scanner.Scan() {
		t.Fatal("Missing header line")
	}
	var h header
	if err := json.Unmarshal(scanner.Bytes(), &h); err != nil {
		t.Fatalf("Invalid header: %v", err)
	}
	if h.Version != 1 || h.SessionID != "session-1" || h.Timestamp == 0 {
		t.Errorf("Unexpected header: %+v", h)
	}

	kinds := []string{"student_joined", "reveal"}
	for _, want := range kinds {
		if !scanner.Scan() {
			t.Fatalf("Missing event line for %s", want)
		}
		var e entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("Invalid event: %v", err)
		}
		if e.Kind != want {
			t.Errorf("Expected kind %s, got %s", want, e.Kind)
		}
		if e.Offset < 0 {
			t.Errorf("Negative offset: %f", e.Offset)
		}
	}
}

func TestManagerRecordsPerSession(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)
	defer m.Close()

	m.Record("sess-a", "teacher_joined", nil)
	m.Record("sess-a", "question_set", map[string]any{"text": "q"})
	m.Record("sess-b", "student_joined", "student-0001")

	for _, sessionID := range []string{"sess-a", "sess-b"} {
		data, err := os.ReadFile(filepath.Join(dir, sessionID+".jsonl"))
		if err != nil {
			t.Fatalf("Missing transcript for %s: %v", sessionID, err)
		}
		lines := bytes.Count(bytes.TrimRight(data, "\n"), []byte("\n")) + 1
		if sessionID == "sess-a" && lines != 3 {
			t.Errorf("Expected 3 lines (header + 2 events), got %d", lines)
		}
	}
}

func TestNilManagerDiscards(t *testing.T) {
	var m *Manager
	// Must not panic.
	m.Record("sess", "event", nil)
	m.Close()

	disabled := NewManager("")
	disabled.Record("sess", "event", nil)
	disabled.Close()
}
