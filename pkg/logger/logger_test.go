package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerInitFormats(t *testing.T) {
	for _, format := range []string{"", FormatText, FormatJSON, " JSON "} {
		if err := Init(WithFormat(format), WithOutput(&bytes.Buffer{})); err != nil {
			t.Fatalf("Init(%q) failed: %v", format, err)
		}
		if Get() == nil {
			t.Fatalf("logger is nil after Init(%q)", format)
		}
	}

	if err := Init(WithFormat("xml")); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

func TestLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithFormat(FormatJSON), WithOutput(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	Named("search").Info(context.Background(), "query served",
		String("q", "career"),
		Int("results", 3),
		Int64("bytes", 42),
		Bool("indexed", true),
		Duration("took", time.Millisecond),
		Error(errors.New("boom")),
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "query served" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["component"] != "search" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["q"] != "career" || entry["results"] != float64(3) || entry["indexed"] != true {
		t.Errorf("unexpected fields: %v", entry)
	}
	if entry["error"] != "boom" {
		t.Errorf("error = %v", entry["error"])
	}
	if src, _ := entry["source"].(string); !strings.Contains(src, "logger_test.go") {
		t.Errorf("source = %v, want the calling test file", entry["source"])
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithOutput(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	ctx := context.Background()
	Get().Debug(ctx, "hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug line written at info level: %s", buf.String())
	}

	if err := SetLevelString("debug"); err != nil {
		t.Fatalf("SetLevelString: %v", err)
	}
	Get().Debug(ctx, "shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("debug line missing after level change: %s", buf.String())
	}

	if err := SetLevelString("loud"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error(context.Background(), "nothing to see")
	if l.Named("x") == nil {
		t.Fatal("named nop logger is nil")
	}
}
