package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownWindow = errors.New("unknown window")
	ErrInvalidRange  = errors.New("invalid range")
	ErrRangeTooLarge = errors.New("range too large")
)

// MaxBuckets caps a single report.
const MaxBuckets = 400

type Window string

const (
	WindowDay   Window = "day"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
)

func ParseWindow(s string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(s))); w {
	case WindowDay, WindowWeek, WindowMonth:
		return w, nil
	case "":
		return WindowDay, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWindow, s)
}

// Bucket covers [Start, End).
type Bucket struct {
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Label          string    `json:"label"`
	OrderCount     int       `json:"order_count"`
	CancelledCount int       `json:"cancelled_count"`
	RevenueCents   int64     `json:"revenue_cents"`
}

type Summary struct {
	OrderCount        int   `json:"order_count"`
	CancelledCount    int   `json:"cancelled_count"`
	RevenueCents      int64 `json:"revenue_cents"`
	AverageOrderCents int64 `json:"average_order_cents"`
}

type Report struct {
	Window  Window    `json:"window"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Buckets []Bucket  `json:"buckets"`
	Summary Summary   `json:"summary"`
}

// Point is the slice of an order the aggregation needs.
type Point struct {
	CreatedAt  time.Time
	TotalCents int64
	Cancelled  bool
}
