package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/voocel/toolbridge/schema"
)

func fastConfig(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastConfig(3), nil, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", fmt.Errorf("dial: %w", schema.ErrFetchTransient)
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != 3 {
		t.Fatalf("expected ok after 3 calls, got %q after %d", got, calls)
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := errors.New("boom")
	_, err := Do(context.Background(), fastConfig(5), nil, func(ctx context.Context) (int, error) {
		calls++
		return 0, permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Fatalf("expected a single call returning boom, got %v after %d", err, calls)
	}
}

func TestExecuteReturnsLastError(t *testing.T) {
	calls := 0
	err := fastConfig(2).Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return schema.ErrTimeout
	})
	if !errors.Is(err, schema.ErrTimeout) || calls != 2 {
		t.Fatalf("expected timeout after 2 calls, got %v after %d", err, calls)
	}
}

func TestDoHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxAttempts: 3, BaseDelay: time.Hour}
	_, err := Do(ctx, cfg, nil, func(ctx context.Context) (int, error) {
		cancel()
		return 0, schema.ErrFetchTransient
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNoRetry(t *testing.T) {
	calls := 0
	_ = NoRetry().Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return schema.ErrFetchTransient
	})
	if calls != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}
}
