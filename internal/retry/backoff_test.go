package retry

import (
	"testing"
	"time"
)

func TestExponentialBackoff_DefaultValues(t *testing.T) {
	strategy := NewExponentialBackoff(3)

	if strategy.InitialDelay() != 100*time.Millisecond {
		t.Errorf("Expected InitialDelay=100ms, got %v", strategy.InitialDelay())
	}
	if strategy.MaxDelay() != 10*time.Second {
		t.Errorf("Expected MaxDelay=10s, got %v", strategy.MaxDelay())
	}
	if strategy.Multiplier() != 2.0 {
		t.Errorf("Expected Multiplier=2.0, got %v", strategy.Multiplier())
	}
	if strategy.Jitter() != 0.1 {
		t.Errorf("Expected Jitter=0.1, got %v", strategy.Jitter())
	}
	if strategy.MaxAttempts() != 3 {
		t.Errorf("Expected MaxAttempts=3, got %v", strategy.MaxAttempts())
	}
}

func TestExponentialBackoff_NextDelay_WithoutJitter(t *testing.T) {
	strategy := NewExponentialBackoff(5, WithInitialDelay(100*time.Millisecond), WithJitter(0))

	tests := []struct {
		attempt       int
		expectedDelay time.Duration
	}{
		{attempt: 0, expectedDelay: 100 * time.Millisecond},
		{attempt: 1, expectedDelay: 200 * time.Millisecond},
		{attempt: 2, expectedDelay: 400 * time.Millisecond},
		{attempt: 3, expectedDelay: 800 * time.Millisecond},
	}

	for _, tt := range tests {
		if delay := strategy.NextDelay(tt.attempt); delay != tt.expectedDelay {
			t.Errorf("NextDelay(%d) = %v, want %v", tt.attempt, delay, tt.expectedDelay)
		}
	}
}

func TestExponentialBackoff_SubMillisecondDelays(t *testing.T) {
	strategy := NewExponentialBackoff(3, WithInitialDelay(250*time.Microsecond), WithJitter(0))

	if delay := strategy.NextDelay(1); delay != 500*time.Microsecond {
		t.Errorf("NextDelay(1) = %v, want 500µs", delay)
	}
}

func TestExponentialBackoff_MaxDelayCap(t *testing.T) {
	strategy := NewExponentialBackoff(100,
		WithInitialDelay(1*time.Second),
		WithMultiplier(3.0),
		WithMaxDelay(1*time.Minute),
		WithJitter(0),
	)

	for attempt := 0; attempt <= 2000; attempt += 50 {
		if delay := strategy.NextDelay(attempt); delay > time.Minute {
			t.Errorf("Attempt %d: delay %v exceeds 1 minute cap", attempt, delay)
		}
	}
	if delay := strategy.NextDelay(10); delay != time.Minute {
		t.Errorf("Expected delay capped at 1 minute, got %v", delay)
	}
}

func TestExponentialBackoff_NextDelay_WithJitter(t *testing.T) {
	tests := []struct {
		random float64
		want   time.Duration
	}{
		{0.0, 90 * time.Millisecond},
		{0.5, 100 * time.Millisecond},
		{1.0, 110 * time.Millisecond},
	}

	for _, tt := range tests {
		random := tt.random
		strategy := NewExponentialBackoff(3,
			WithInitialDelay(100*time.Millisecond),
			WithJitter(0.1),
			WithJitterFunc(func() float64 { return random }),
		)
		if got := strategy.NextDelay(0); got != tt.want {
			t.Errorf("NextDelay with random=%v = %v, want %v", tt.random, got, tt.want)
		}
	}
}

func TestPolicy_BackoffAppliesDefaults(t *testing.T) {
	b := Policy{}.Backoff()
	if b.MaxAttempts() != 3 || b.InitialDelay() != 100*time.Millisecond || b.MaxDelay() != 10*time.Second {
		t.Errorf("unexpected defaults: attempts=%d initial=%v max=%v", b.MaxAttempts(), b.InitialDelay(), b.MaxDelay())
	}

	b = Policy{MaxAttempts: -1, InitialDelay: time.Second, MaxDelay: 2 * time.Second}.Backoff()
	if b.MaxAttempts() != -1 || b.InitialDelay() != time.Second || b.MaxDelay() != 2*time.Second {
		t.Errorf("explicit policy not applied: attempts=%d initial=%v max=%v", b.MaxAttempts(), b.InitialDelay(), b.MaxDelay())
	}
}
