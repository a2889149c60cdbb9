package orders

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestOrderNumberFormat(t *testing.T) {
	g, err := NewNumberGenerator("test-salt")
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	n, err := g.Generate(42)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(n, "AK-") || len(n) < len("AK-")+8 {
		t.Fatalf("unexpected order number %q", n)
	}
	for _, r := range strings.TrimPrefix(n, "AK-") {
		if !strings.ContainsRune(orderNumberAlphabet, r) {
			t.Fatalf("order number %q uses %q outside the alphabet", n, r)
		}
	}
}

func TestOrderNumbersUniqueWithinMillisecond(t *testing.T) {
	g, err := NewNumberGenerator("test-salt")
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	g.now = func() time.Time { return at }

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		n, err := g.Generate(42)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if seen[n] {
			t.Fatalf("order number %q repeated after %d orders", n, i)
		}
		seen[n] = true
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusProcessing, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusProcessing, false},
		{StatusPending, StatusDelivered, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if _, err := ParseStatus("shipped"); err != nil {
		t.Fatalf("parse shipped: %v", err)
	}
	if _, err := ParseStatus("lost"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}
