package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestSuccessLevelName(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelInfo, FormatJSON).With("agents")
	l.Success("done", slog.Int("count", 3))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0]["level"] != "SUCCESS" {
		t.Errorf("level = %v, want SUCCESS", lines[0]["level"])
	}
	if lines[0]["subsystem"] != "agents" {
		t.Errorf("subsystem = %v, want agents", lines[0]["subsystem"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelWarn, FormatJSON)
	l.Debug("hidden")
	l.Info("hidden")
	l.Success("hidden")
	l.Warn("shown")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["msg"] != "shown" {
		t.Errorf("lines = %v, want only the warning", lines)
	}
}

func TestExceptionCarriesError(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelDebug, FormatJSON)
	l.Exception("boom", errors.New("kaput"))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0]["error"] != "kaput" || lines[0]["exception"] != true {
		t.Errorf("record = %v", lines[0])
	}
	if lines[0]["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", lines[0]["level"])
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, slog.LevelInfo, FormatText).Success("ok")
	if !strings.Contains(buf.String(), "level=SUCCESS") {
		t.Errorf("text output = %q", buf.String())
	}
}

func TestPanic(t *testing.T) {
	sentinel := errors.New("inner")
	if err := Panic(sentinel); !errors.Is(err, sentinel) {
		t.Errorf("Panic(error) should wrap: %v", err)
	}
	if err := Panic("text"); err.Error() != "panic: text" {
		t.Errorf("Panic(string) = %v", err)
	}
}
