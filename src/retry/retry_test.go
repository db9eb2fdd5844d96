package retry

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestSuccessFirstAttempt(t *testing.T) {
	attempts := 0

	err := Do(DefaultConfig(), nil, func() error {
		attempts++
		return nil
	})

	if err != nil {
		t.Fatal(err)
	}
	if attempts != 1 {
		t.Fatalf("a succeeding operation should run once, not %d times", attempts)
	}
}

func TestPropagatesLastFailure(t *testing.T) {
	cfg := Config{
		MaxAttempts: 3,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    100 * time.Millisecond,
	}

	attempts := 0
	err := Do(cfg, nil, func() error {
		attempts++
		return fmt.Errorf("boom %d", attempts)
	})

	if attempts != 3 {
		t.Fatalf("operation should be attempted exactly 3 times, not %d", attempts)
	}
	if err == nil || err.Error() != "boom 3" {
		t.Fatalf("the last failure should be propagated, got %v", err)
	}
}

func TestBackoffDelays(t *testing.T) {
	cfg := Config{
		MaxAttempts: 3,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    1000 * time.Millisecond,
	}

	var stamps []time.Time
	Do(cfg, nil, func() error {
		stamps = append(stamps, time.Now())
		return errors.New("always fails")
	})

	if len(stamps) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(stamps))
	}

	first := stamps[1].Sub(stamps[0])
	second := stamps[2].Sub(stamps[1])

	if first < 100*time.Millisecond || first > 180*time.Millisecond {
		t.Fatalf("first delay should be ~100ms, was %v", first)
	}
	if second < 200*time.Millisecond || second > 300*time.Millisecond {
		t.Fatalf("second delay should be ~200ms, was %v", second)
	}
}

func TestDelayCap(t *testing.T) {
	cfg := Config{
		MaxAttempts: 4,
		BaseDelay:   20 * time.Millisecond,
		MaxDelay:    25 * time.Millisecond,
	}

	var stamps []time.Time
	Do(cfg, nil, func() error {
		stamps = append(stamps, time.Now())
		return errors.New("always fails")
	})

	// Delays are 20ms, then capped at 25ms for every later attempt.
	for i := 2; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		if gap > 60*time.Millisecond {
			t.Fatalf("delay %d should be capped at ~25ms, was %v", i-1, gap)
		}
	}
}

func TestRecoversMidway(t *testing.T) {
	cfg := Config{
		MaxAttempts: 5,
		BaseDelay:   5 * time.Millisecond,
		MaxDelay:    20 * time.Millisecond,
	}

	attempts := 0
	err := Do(cfg, nil, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("not yet")
		}
		return nil
	})

	if err != nil {
		t.Fatal(err)
	}
	if attempts != 3 {
		t.Fatalf("operation should stop retrying after success, ran %d times", attempts)
	}
}
