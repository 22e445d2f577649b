package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{999.5, "$999.50"},
		{1234.567, "$1,234.57"},
		{-1234567.1, "-$1,234,567.10"},
		{100000, "$100,000.00"},
	}
	for _, tt := range tests {
		if got := FormatUSD(tt.in); got != tt.want {
			t.Errorf("FormatUSD(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := FormatPercent(0.0525); got != "+5.25%" {
		t.Errorf("FormatPercent = %q", got)
	}
	if got := FormatPercent(-0.1); got != "-10.00%" {
		t.Errorf("FormatPercent = %q", got)
	}
	if got := FormatPnL(800); got != "+$800.00" {
		t.Errorf("FormatPnL = %q", got)
	}
	if got := FormatShares(-1500); got != "-1,500" {
		t.Errorf("FormatShares = %q", got)
	}
	if got := FormatCompact(2500000); got != "$2.50M" {
		t.Errorf("FormatCompact = %q", got)
	}
}

func TestRetryEventuallySucceeds(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffFactor: 2}
	calls := 0
	got, err := RetryWithResult(context.Background(), cfg, func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})
	if err != nil || got != 42 || calls != 3 {
		t.Errorf("got %v err %v after %d calls", got, err, calls)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("not found")
	cfg := RetryConfig{
		MaxAttempts:  5,
		InitialDelay: time.Millisecond,
		Retryable:    func(err error) bool { return !errors.Is(err, permanent) },
	}
	calls := 0
	err := Retry(context.Background(), cfg, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Errorf("err %v after %d calls", err, calls)
	}
}

func TestRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Hour}
	err := Retry(ctx, cfg, func() error { return errors.New("fail") })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCalculateBackoff(t *testing.T) {
	if got := CalculateBackoff(3, 100*time.Millisecond, time.Second, 2); got != 800*time.Millisecond {
		t.Errorf("CalculateBackoff = %v", got)
	}
	if got := CalculateBackoff(10, 100*time.Millisecond, time.Second, 2); got != time.Second {
		t.Errorf("capped backoff = %v", got)
	}
}
