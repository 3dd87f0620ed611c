package debounce_test

import (
	"testing"
	"time"

	"stillpoint/internal/platform/clock/clocktest"
	"stillpoint/internal/platform/debounce"
)

func TestTriggerCoalescesBurst(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	d := debounce.New(clk, 300*time.Millisecond)

	var calls []int
	for i := 1; i <= 5; i++ {
		value := i
		d.Trigger(func() { calls = append(calls, value) })
		clk.Advance(50 * time.Millisecond)
	}
	if len(calls) != 0 {
		t.Fatalf("expected no call during burst, got %v", calls)
	}
	clk.Advance(300 * time.Millisecond)
	if len(calls) != 1 || calls[0] != 5 {
		t.Fatalf("expected exactly one call with last value, got %v", calls)
	}
	if d.Pending() {
		t.Fatalf("nothing should be pending after firing")
	}
}

func TestQuietPeriodMeasuredFromLatestTrigger(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	d := debounce.New(clk, 300*time.Millisecond)

	fired := 0
	d.Trigger(func() { fired++ })
	clk.Advance(299 * time.Millisecond)
	d.Trigger(func() { fired++ })
	clk.Advance(299 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("quiet period restarted by second trigger, got %d calls", fired)
	}
	clk.Advance(time.Millisecond)
	if fired != 1 {
		t.Fatalf("expected one call, got %d", fired)
	}
}

func TestCancelDropsPendingTask(t *testing.T) {
	t.Parallel()
	clk := clocktest.New(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	d := debounce.New(clk, 300*time.Millisecond)

	fired := false
	d.Trigger(func() { fired = true })
	if !d.Cancel() {
		t.Fatalf("cancel should report a pending task")
	}
	if d.Cancel() {
		t.Fatalf("second cancel should report nothing pending")
	}
	clk.Advance(time.Second)
	if fired {
		t.Fatalf("cancelled task must not fire")
	}
	if clk.Pending() != 0 {
		t.Fatalf("expected no scheduled timers, got %d", clk.Pending())
	}
}
