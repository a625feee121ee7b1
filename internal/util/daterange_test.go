package util

import (
	"testing"
	"time"
)

func TestMonthBounds(t *testing.T) {
	first, last := MonthBounds(time.Date(2024, 2, 15, 13, 45, 0, 0, time.UTC))
	if !first.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected Feb 1, got %s", first)
	}
	if !last.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected Feb 29 (leap year), got %s", last)
	}
}

func TestClampDayToMonth(t *testing.T) {
	got := ClampDayToMonth(2023, time.February, 31)
	if !got.Equal(time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected Feb 28, got %s", got)
	}

	got = ClampDayToMonth(2024, time.April, 15)
	if !got.Equal(time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected Apr 15, got %s", got)
	}
}

func TestTruncate(t *testing.T) {
	got := Truncate(time.Date(2024, 6, 3, 23, 59, 59, 0, time.UTC))
	if !got.Equal(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected midnight, got %s", got)
	}
}
