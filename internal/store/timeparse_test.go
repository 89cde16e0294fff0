package store

import (
	"testing"
	"time"
)

func TestParseFlexibleTime(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2025-10-01 15:30:45", time.Date(2025, 10, 1, 15, 30, 45, 0, time.Local)},
		{"2025-10-01 15:30", time.Date(2025, 10, 1, 15, 30, 0, 0, time.Local)},
		{"2025-10-01", time.Date(2025, 10, 1, 0, 0, 0, 0, time.Local)},
		{"2025_10_01 15:30", time.Date(2025, 10, 1, 15, 30, 0, 0, time.Local)},
		{"  2025-10-01  ", time.Date(2025, 10, 1, 0, 0, 0, 0, time.Local)},
	}
	for _, tc := range cases {
		got, err := ParseFlexibleTime(tc.in)
		if err != nil {
			t.Fatalf("ParseFlexibleTime(%q) returned error: %v", tc.in, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("ParseFlexibleTime(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseFlexibleTimeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "yesterday", "10/01/2025", "2025-10-01T15:30:00Z"} {
		if _, err := ParseFlexibleTime(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestParseDay(t *testing.T) {
	got, err := ParseDay("2025_10_01")
	if err != nil {
		t.Fatalf("ParseDay returned error: %v", err)
	}
	if !got.Equal(time.Date(2025, 10, 1, 0, 0, 0, 0, time.Local)) {
		t.Fatalf("unexpected day: %v", got)
	}

	if _, err := ParseDay("2025-10"); err == nil {
		t.Fatalf("expected error for partial day")
	}
}

func TestFormatAge(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{45 * time.Second, "45s"},
		{2*time.Minute + 3*time.Second, "2m 3s"},
		{2*time.Hour + 3*time.Minute, "2h 3m"},
		{26 * time.Hour, "1d 2h"},
		{-5 * time.Second, "0s"},
	}
	for _, tc := range cases {
		if got := FormatAge(tc.in); got != tc.want {
			t.Fatalf("FormatAge(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
