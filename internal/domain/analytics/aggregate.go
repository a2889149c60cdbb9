package analytics

import (
	"fmt"
	"time"
)

// Truncate returns the start of the window containing t, in UTC.
// Weeks start on Monday.
func (w Window) Truncate(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch w {
	case WindowWeek:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case WindowMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// Next returns the start of the window after the one starting at start.
func (w Window) Next(start time.Time) time.Time {
	switch w {
	case WindowWeek:
		return start.AddDate(0, 0, 7)
	case WindowMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

func (w Window) label(start time.Time) string {
	switch w {
	case WindowWeek:
		year, week := start.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case WindowMonth:
		return start.Format("2006-01")
	default:
		return start.Format("2006-01-02")
	}
}

// CheckRange reports whether [from, to) is a usable report range for w
// without touching any data.
func CheckRange(w Window, from, to time.Time) error {
	if !to.After(from) {
		return fmt.Errorf("%w: %s is not before %s", ErrInvalidRange, from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	to = to.UTC()
	n := 0
	for start := w.Truncate(from); start.Before(to); start = w.Next(start) {
		if n == MaxBuckets {
			return fmt.Errorf("%w: more than %d %s buckets", ErrRangeTooLarge, MaxBuckets, w)
		}
		n++
	}
	return nil
}

// Aggregate buckets points into contiguous windows covering [from, to).
// Windows without orders are still emitted. Cancelled orders are counted but
// contribute no revenue.
func Aggregate(points []Point, w Window, from, to time.Time) (*Report, error) {
	if err := CheckRange(w, from, to); err != nil {
		return nil, err
	}
	from, to = from.UTC(), to.UTC()

	var buckets []Bucket
	for start := w.Truncate(from); start.Before(to); start = w.Next(start) {
		buckets = append(buckets, Bucket{Start: start, End: w.Next(start), Label: w.label(start)})
	}

	report := &Report{Window: w, From: from, To: to, Buckets: buckets}
	for _, p := range points {
		at := p.CreatedAt.UTC()
		if at.Before(from) || !at.Before(to) {
			continue
		}
		b := &buckets[indexOf(buckets, at)]
		b.OrderCount++
		report.Summary.OrderCount++
		if p.Cancelled {
			b.CancelledCount++
			report.Summary.CancelledCount++
			continue
		}
		b.RevenueCents += p.TotalCents
		report.Summary.RevenueCents += p.TotalCents
	}

	if paid := report.Summary.OrderCount - report.Summary.CancelledCount; paid > 0 {
		report.Summary.AverageOrderCents = report.Summary.RevenueCents / int64(paid)
	}
	return report, nil
}

// indexOf finds the bucket holding at. Buckets are sorted and contiguous.
func indexOf(buckets []Bucket, at time.Time) int {
	lo, hi := 0, len(buckets)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if buckets[mid].Start.After(at) {
			hi = mid - 1
		} else {
			lo = mid
		}
	}
	return lo
}
