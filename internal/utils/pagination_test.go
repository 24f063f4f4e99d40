package utils

import (
	"errors"
	"testing"
	"time"
)

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		// empty -> default
		{"", 10, 10},
		// valid ints
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		// invalid -> default (no trim)
		{"x", 5, 5},
		{" 42", 7, 7},
		// overflow -> default
		{"999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestClampPageSize(t *testing.T) {
	cases := []struct{ n, def, max, want int }{
		{0, 10, 50, 10},
		{-3, 10, 50, 10},
		{2, 10, 50, 2},
		{80, 10, 50, 50},
		{80, 10, 0, 80},
	}
	for _, tc := range cases {
		if got := ClampPageSize(tc.n, tc.def, tc.max); got != tc.want {
			t.Fatalf("ClampPageSize(%d,%d,%d) = %d; want %d", tc.n, tc.def, tc.max, got, tc.want)
		}
	}
}

func TestParseCursor(t *testing.T) {
	if c, err := ParseCursor(""); c != nil || err != nil {
		t.Fatalf("empty cursor = (%v, %v); want (nil, nil)", c, err)
	}
	c, err := ParseCursor("2025-03-04T10:30:00.123456789+02:00")
	if err != nil {
		t.Fatalf("ParseCursor: %v", err)
	}
	want := time.Date(2025, 3, 4, 8, 30, 0, 123456789, time.UTC)
	if !c.Equal(want) || c.Location() != time.UTC {
		t.Fatalf("ParseCursor = %v; want %v in UTC", c, want)
	}
	if FormatCursor(*c) != "2025-03-04T08:30:00.123456789Z" {
		t.Fatalf("FormatCursor = %q", FormatCursor(*c))
	}
	if _, err := ParseCursor("yesterday"); !errors.Is(err, ErrBadCursor) {
		t.Fatalf("expected ErrBadCursor, got %v", err)
	}
}

func TestParseUintPtr(t *testing.T) {
	if v, err := ParseUintPtr(""); v != nil || err != nil {
		t.Fatalf("empty = (%v, %v)", v, err)
	}
	v, err := ParseUintPtr("7")
	if err != nil || v == nil || *v != 7 {
		t.Fatalf("ParseUintPtr(7) = (%v, %v)", v, err)
	}
	if _, err := ParseUintPtr("-1"); err == nil {
		t.Fatalf("expected error for negative id")
	}
}

func TestSplitIDs(t *testing.T) {
	got := SplitIDs(" a, b,,a ,c ")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("SplitIDs = %q", got)
	}
	if len(SplitIDs("")) != 0 {
		t.Fatalf("expected no ids from empty input")
	}
}
