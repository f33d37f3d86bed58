package models

import (
	"testing"
	"time"
)

func TestWindowEnd(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	b := Bounty{CreatedAt: createdAt, DurationHours: 1, DurationMinutes: 30}

	if got := b.WindowStart(); !got.Equal(createdAt) {
		t.Errorf("WindowStart() = %v, want %v", got, createdAt)
	}
	want := createdAt.Add(90 * time.Minute)
	if got := b.WindowEnd(); !got.Equal(want) {
		t.Errorf("WindowEnd() = %v, want %v", got, want)
	}
	// Deterministic: same inputs, same answer, regardless of when asked.
	if got := b.WindowEnd(); !got.Equal(want) {
		t.Errorf("second WindowEnd() = %v, want %v", got, want)
	}
}

func TestExpiredAtBoundary(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	b := Bounty{CreatedAt: createdAt, DurationHours: 1, DurationMinutes: 30, Status: BountyStatusActive}

	cases := []struct {
		name    string
		now     time.Time
		expired bool
	}{
		{"at creation", createdAt, false},
		{"one minute before end", createdAt.Add(89 * time.Minute), false},
		{"exactly at end", createdAt.Add(90 * time.Minute), true},
		{"after end", createdAt.Add(91 * time.Minute), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := b.ExpiredAt(tc.now); got != tc.expired {
				t.Errorf("ExpiredAt(%v) = %v, want %v", tc.now, got, tc.expired)
			}
		})
	}
}

func TestZeroDurationExpiresImmediately(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	b := Bounty{CreatedAt: createdAt, DurationHours: 0, DurationMinutes: 0, Status: BountyStatusActive}

	if !b.WindowEnd().Equal(createdAt) {
		t.Errorf("WindowEnd() = %v, want %v", b.WindowEnd(), createdAt)
	}
	if !b.ExpiredAt(createdAt) {
		t.Error("zero-duration bounty should be expired the instant it is created")
	}
	if got := b.ComputedStatus(createdAt); got != BountyStatusClosed {
		t.Errorf("ComputedStatus = %q, want %q", got, BountyStatusClosed)
	}
}

func TestDurationEditMovesWindow(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	b := Bounty{CreatedAt: createdAt, DurationHours: 0, DurationMinutes: 30, Status: BountyStatusActive}

	at45 := createdAt.Add(45 * time.Minute)
	if !b.ExpiredAt(at45) {
		t.Fatal("bounty should be expired 45m into a 30m window")
	}

	// Extending the duration moves the derived end with no recompute step.
	b.DurationMinutes = 90
	if b.ExpiredAt(at45) {
		t.Error("bounty should be live again after extension to 90m")
	}
	want := createdAt.Add(90 * time.Minute)
	if got := b.WindowEnd(); !got.Equal(want) {
		t.Errorf("WindowEnd() after edit = %v, want %v", got, want)
	}
}

func TestComputedStatusMonotonic(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	// Closed early with plenty of window left.
	b := Bounty{CreatedAt: createdAt, DurationHours: 2, DurationMinutes: 0, Status: BountyStatusClosed}

	if got := b.ComputedStatus(createdAt.Add(10 * time.Minute)); got != BountyStatusClosed {
		t.Errorf("ComputedStatus = %q, want %q (closed bounties never reopen)", got, BountyStatusClosed)
	}
}

func TestRemainingMinutes(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	b := Bounty{CreatedAt: createdAt, DurationHours: 1, DurationMinutes: 0}

	cases := []struct {
		name string
		now  time.Time
		want int
	}{
		{"at creation", createdAt, 60},
		{"halfway", createdAt.Add(30 * time.Minute), 30},
		{"partial minute floors", createdAt.Add(30*time.Minute + 30*time.Second), 29},
		{"at end", createdAt.Add(60 * time.Minute), 0},
		{"past end clamps to zero", createdAt.Add(2 * time.Hour), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := b.RemainingMinutes(tc.now); got != tc.want {
				t.Errorf("RemainingMinutes(%v) = %d, want %d", tc.now, got, tc.want)
			}
		})
	}
}

func TestValidateDuration(t *testing.T) {
	cases := []struct {
		name    string
		hours   int
		minutes int
		wantErr bool
	}{
		{"typical", 1, 30, false},
		{"zero duration is legal", 0, 0, false},
		{"max minutes", 0, 59, false},
		{"negative hours", -1, 0, true},
		{"minutes too large", 0, 60, true},
		{"negative minutes", 1, -1, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateDuration(tc.hours, tc.minutes)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateDuration(%d, %d) error = %v, wantErr %v", tc.hours, tc.minutes, err, tc.wantErr)
			}
		})
	}
}
