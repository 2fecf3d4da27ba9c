package testfixtures

import (
	"testing"
	"time"
)

func TestClockStartsAtReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected %v, got %v", ReferenceTime(), clock.Now())
	}
	if clock.Now().Weekday() != time.Monday {
		t.Fatalf("expected reference time on a Monday, got %v", clock.Now().Weekday())
	}
}

func TestClockAdvance(t *testing.T) {
	clock := NewClock(time.Date(2025, time.March, 10, 23, 30, 0, 0, time.UTC))
	now := clock.Now

	if got := clock.Advance(time.Hour); got.Day() != 11 {
		t.Fatalf("expected advance across midnight, got %v", got)
	}
	if !now().Equal(time.Date(2025, time.March, 11, 0, 30, 0, 0, time.UTC)) {
		t.Fatalf("method value did not observe advance, got %v", now())
	}
}

func TestClockAtUsesLocationDay(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	clock := NewClock(time.Date(2025, time.March, 10, 20, 0, 0, 0, time.UTC))

	got := clock.At(tokyo, 10, 15)
	want := time.Date(2025, time.March, 11, 10, 15, 0, 0, tokyo)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if !clock.Now().Equal(time.Date(2025, time.March, 10, 20, 0, 0, 0, time.UTC)) {
		t.Fatal("At must not move the clock")
	}
}
