package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"trace", TRACE},
		{"DEBUG", DEBUG},
		{"info", INFO},
		{"Warn", WARN},
		{"error", ERROR},
		{"none", NONE},
		{"", NONE},
		{"verbose", NONE},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q): expected=%s, got=%s", tt.input, tt.expected, got)
		}
	}
}

func TestHandlerFiltersAndNamesTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewLogger(TRACE, &buf).Handler())

	logger.Log(context.Background(), LevelTrace, "deep", slog.String("k", "v"))
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["level"] != "TRACE" || rec["msg"] != "deep" || rec["k"] != "v" {
		t.Errorf("unexpected record %v", rec)
	}

	buf.Reset()
	quiet := slog.New(NewLogger(WARN, &buf).Handler())
	quiet.Info("hidden")
	quiet.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("level filtering failed: %q", buf.String())
	}

	buf.Reset()
	off := slog.New(NewLogger(NONE, &buf).Handler())
	off.Error("nothing")
	if buf.Len() != 0 {
		t.Errorf("NONE should silence everything, got %q", buf.String())
	}
}

func TestReopenAfterRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "lox.log")

	l := InitLogger("info", path)
	defer l.Close()

	slog.Info("before")
	if err := os.Rename(path, path+".bak"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := l.reopenLogFile(); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	slog.Info("after")

	rotated, _ := os.ReadFile(path + ".bak")
	current, _ := os.ReadFile(path)
	if !strings.Contains(string(rotated), "before") || strings.Contains(string(rotated), "after") {
		t.Errorf("unexpected rotated file %q", rotated)
	}
	if !strings.Contains(string(current), "after") {
		t.Errorf("unexpected current file %q", current)
	}
}
