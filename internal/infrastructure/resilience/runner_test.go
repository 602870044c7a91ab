package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/personal-reading-tracker/internal/core/domain"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2,
		BreakerEnabled: false,
	}
}

func TestDoRetriesTransientFault(t *testing.T) {
	runner := NewRunner(fastConfig())

	attempts := 0
	err := runner.Do(context.Background(), "googlebooks.search", ProviderClassifier, func(context.Context) error {
		attempts++
		if attempts < 3 {
			return domain.WrapError(domain.ErrTemporary, "googlebooks.search", fmt.Errorf("status 503"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestDoDoesNotRetryParseFailure(t *testing.T) {
	runner := NewRunner(fastConfig())

	attempts := 0
	parseErr := domain.WrapError(domain.ErrParseFailure, "ollama.recommend", fmt.Errorf("bad json"))
	err := runner.Do(context.Background(), "ollama.recommend", ProviderClassifier, func(context.Context) error {
		attempts++
		return parseErr
	})
	if !errors.Is(err, domain.ErrParseFailure) {
		t.Fatalf("expected parse failure, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestDoOpensBreakerAfterRepeatedFaults(t *testing.T) {
	runner := NewRunner(Config{
		MaxAttempts:         1,
		InitialBackoff:      1 * time.Millisecond,
		MaxBackoff:          1 * time.Millisecond,
		Multiplier:          2,
		BreakerEnabled:      true,
		BreakerMinRequests:  2,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  50 * time.Millisecond,
		BreakerProbeCalls:   1,
	})

	fault := domain.WrapError(domain.ErrProviderUnavailable, "feed.list", fmt.Errorf("connection refused"))
	for i := 0; i < 2; i++ {
		err := runner.Do(context.Background(), "feed.list", ProviderClassifier, func(context.Context) error {
			return fault
		})
		if !errors.Is(err, domain.ErrProviderUnavailable) {
			t.Fatalf("expected provider fault on call %d, got %v", i, err)
		}
	}

	err := runner.Do(context.Background(), "feed.list", ProviderClassifier, func(context.Context) error {
		t.Fatalf("open circuit must short-circuit the call")
		return nil
	})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state, got %v", err)
	}
	if !IsCircuitOpen(err) {
		t.Fatalf("IsCircuitOpen should report true for %v", err)
	}
}

func TestDoParseFailuresDoNotTrip(t *testing.T) {
	runner := NewRunner(Config{
		MaxAttempts:         1,
		InitialBackoff:      1 * time.Millisecond,
		MaxBackoff:          1 * time.Millisecond,
		Multiplier:          2,
		BreakerEnabled:      true,
		BreakerMinRequests:  2,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  50 * time.Millisecond,
		BreakerProbeCalls:   1,
	})

	parseErr := domain.WrapError(domain.ErrParseFailure, "ollama.recommend", fmt.Errorf("truncated json"))
	for i := 0; i < 5; i++ {
		if err := runner.Do(context.Background(), "ollama.recommend", ProviderClassifier, func(context.Context) error {
			return parseErr
		}); !errors.Is(err, domain.ErrParseFailure) {
			t.Fatalf("expected parse failure on call %d, got %v", i, err)
		}
	}

	called := false
	err := runner.Do(context.Background(), "ollama.recommend", ProviderClassifier, func(context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("parse failures must not open the circuit, err=%v called=%v", err, called)
	}
}
