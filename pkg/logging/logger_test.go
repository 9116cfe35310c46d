package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e LogEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, WarnLevel)

	l.Debug("dropped")
	l.Info("dropped")
	l.Warn("kept warn")
	l.Error("kept error")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != "WARN" || entries[1].Level != "ERROR" {
		t.Errorf("unexpected levels: %s, %s", entries[0].Level, entries[1].Level)
	}
}

func TestFieldsAttached(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, InfoLevel)

	l.Info("graph loaded",
		NodeID("n1"),
		Count(42),
		Latency(150*time.Millisecond),
		Error(errors.New("partial")))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	f := entries[0].Fields
	if f["node_id"] != "n1" {
		t.Errorf("node_id = %v", f["node_id"])
	}
	if f["count"] != float64(42) {
		t.Errorf("count = %v", f["count"])
	}
	if f["latency"] != "150ms" {
		t.Errorf("latency = %v", f["latency"])
	}
	if f["error"] != "partial" {
		t.Errorf("error = %v", f["error"])
	}
}

func TestWithInheritsFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewJSONLogger(&buf, InfoLevel)
	child := base.With(Component("livesync"))

	child.Info("channel open", URL("ws://localhost:8000/ws"))

	entries := decodeLines(t, &buf)
	f := entries[0].Fields
	if f["component"] != "livesync" {
		t.Errorf("inherited field missing: %v", f)
	}
	if f["url"] != "ws://localhost:8000/ws" {
		t.Errorf("call-site field missing: %v", f)
	}
}

// TestWithOverride tests that call-site fields win over inherited ones
func TestWithOverride(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, InfoLevel).With(Status("connected"))

	l.Info("status changed", Status("offline"))

	entries := decodeLines(t, &buf)
	if entries[0].Fields["status"] != "offline" {
		t.Errorf("call-site field should override: %v", entries[0].Fields["status"])
	}
}

func TestWithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewJSONLogger(&buf, InfoLevel)
	parent.With(Component("child"))

	parent.Info("plain")

	entries := decodeLines(t, &buf)
	if entries[0].Fields != nil {
		t.Errorf("parent picked up child fields: %v", entries[0].Fields)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"WARNING", WarnLevel},
		{"error", ErrorLevel},
		{"nonsense", InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, ErrorLevel)

	l.Info("dropped")
	l.SetLevel(DebugLevel)
	l.Debug("kept")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 || entries[0].Message != "kept" {
		t.Errorf("SetLevel not applied: %+v", entries)
	}
}
