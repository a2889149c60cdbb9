package analytics

import (
	"errors"
	"testing"
	"time"
)

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestParseWindow(t *testing.T) {
	for in, want := range map[string]Window{"": WindowDay, "DAY": WindowDay, " week ": WindowWeek, "month": WindowMonth} {
		got, err := ParseWindow(in)
		if err != nil || got != want {
			t.Errorf("ParseWindow(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseWindow("year"); !errors.Is(err, ErrUnknownWindow) {
		t.Fatalf("expected ErrUnknownWindow, got %v", err)
	}
}

func TestTruncateWeekStartsMonday(t *testing.T) {
	// 2026-03-15 is a Sunday.
	got := WindowWeek.Truncate(day(2026, 3, 15, 23))
	if want := day(2026, 3, 9, 0); !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	got = WindowWeek.Truncate(day(2026, 3, 16, 1))
	if want := day(2026, 3, 16, 0); !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestAggregateDaily(t *testing.T) {
	points := []Point{
		{CreatedAt: day(2026, 3, 1, 9), TotalCents: 2000},
		{CreatedAt: day(2026, 3, 1, 18), TotalCents: 1000},
		{CreatedAt: day(2026, 3, 3, 12), TotalCents: 5000, Cancelled: true},
		{CreatedAt: day(2026, 3, 3, 13), TotalCents: 3000},
		{CreatedAt: day(2026, 3, 4, 0), TotalCents: 9999},
	}

	r, err := Aggregate(points, WindowDay, day(2026, 3, 1, 0), day(2026, 3, 4, 0))
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(r.Buckets) != 3 {
		t.Fatalf("got %d buckets, want 3", len(r.Buckets))
	}

	want := []struct {
		label     string
		orders    int
		cancelled int
		revenue   int64
	}{
		{"2026-03-01", 2, 0, 3000},
		{"2026-03-02", 0, 0, 0},
		{"2026-03-03", 2, 1, 3000},
	}
	for i, w := range want {
		b := r.Buckets[i]
		if b.Label != w.label || b.OrderCount != w.orders || b.CancelledCount != w.cancelled || b.RevenueCents != w.revenue {
			t.Errorf("bucket %d = %+v, want %+v", i, b, w)
		}
	}

	s := r.Summary
	if s.OrderCount != 4 || s.CancelledCount != 1 || s.RevenueCents != 6000 || s.AverageOrderCents != 2000 {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestAggregateMonthly(t *testing.T) {
	points := []Point{
		{CreatedAt: day(2026, 1, 31, 23), TotalCents: 100},
		{CreatedAt: day(2026, 2, 1, 0), TotalCents: 200},
	}
	r, err := Aggregate(points, WindowMonth, day(2026, 1, 15, 0), day(2026, 3, 1, 0))
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(r.Buckets) != 2 || r.Buckets[0].Label != "2026-01" || r.Buckets[1].Label != "2026-02" {
		t.Fatalf("unexpected buckets %+v", r.Buckets)
	}
	if r.Buckets[0].RevenueCents != 100 || r.Buckets[1].RevenueCents != 200 {
		t.Fatalf("unexpected revenue %+v", r.Buckets)
	}
}

func TestAggregateRejectsBadRanges(t *testing.T) {
	from := day(2026, 3, 1, 0)
	if _, err := Aggregate(nil, WindowDay, from, from); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := Aggregate(nil, WindowDay, from, from.AddDate(5, 0, 0)); !errors.Is(err, ErrRangeTooLarge) {
		t.Fatalf("expected ErrRangeTooLarge, got %v", err)
	}
}

func TestCheckRange(t *testing.T) {
	from := day(2026, 3, 1, 0)
	tests := []struct {
		name string
		w    Window
		to   time.Time
		want error
	}{
		{"one day", WindowDay, from.AddDate(0, 0, 1), nil},
		{"at the cap", WindowDay, from.AddDate(0, 0, MaxBuckets), nil},
		{"one past the cap", WindowDay, from.AddDate(0, 0, MaxBuckets+1), ErrRangeTooLarge},
		{"decades of days", WindowDay, from.AddDate(26, 0, 0), ErrRangeTooLarge},
		{"decades of months", WindowMonth, from.AddDate(26, 0, 0), nil},
		{"empty", WindowWeek, from, ErrInvalidRange},
		{"reversed", WindowMonth, from.AddDate(0, -1, 0), ErrInvalidRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckRange(tt.w, from, tt.to)
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}
