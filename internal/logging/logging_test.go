package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := WithLogger(context.Background(), logger)
	got := FromContext(ctx)
	got.Info().Msg("hello")

	if buf.Len() == 0 {
		t.Fatal("expected logger from context to write to buffer")
	}
}

func TestFromContextWithoutLoggerIsNop(t *testing.T) {
	logger := FromContext(context.Background())
	if logger.GetLevel() != zerolog.Disabled {
		t.Errorf("expected disabled logger, got %v", logger.GetLevel())
	}
}

func TestLogRunCompleteFields(t *testing.T) {
	var buf bytes.Buffer
	logger := WithTicker(zerolog.New(&buf), "AAPL")

	LogRunComplete(logger, 68, 1234.5, 15*time.Millisecond)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON log line: %v", err)
	}
	if entry["ticker"] != "AAPL" {
		t.Errorf("expected ticker field, got %v", entry["ticker"])
	}
	if entry["event"] != "run_complete" {
		t.Errorf("expected run_complete event, got %v", entry["event"])
	}
	if entry["points"].(float64) != 68 {
		t.Errorf("expected 68 points, got %v", entry["points"])
	}
}

func TestNewLoggerWithConfigConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithConfig(LogConfig{Level: "warn", Console: true, Out: &buf})

	logger.Info().Msg("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}
	logger.Warn().Msg("visible")
	if buf.Len() == 0 {
		t.Error("warn should be written")
	}
}
