package auth

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const DefaultExpiresIn = "30d"

var lifetimePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*(ms|s|m|h|d|w|y)?$`)

// ParseLifetime reads an expiresIn string such as "30d", "12h" or "3600".
// A bare number is seconds. Go duration strings ("1h30m") are accepted too.
// An empty string yields the 30 day default.
func ParseLifetime(s string) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		s = DefaultExpiresIn
	}

	if m := lifetimePattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidLifetime, s)
		}

		unit := time.Second
		switch m[2] {
		case "ms":
			unit = time.Millisecond
		case "m":
			unit = time.Minute
		case "h":
			unit = time.Hour
		case "d":
			unit = 24 * time.Hour
		case "w":
			unit = 7 * 24 * time.Hour
		case "y":
			unit = time.Duration(365.25 * float64(24*time.Hour))
		}

		d := time.Duration(n * float64(unit))
		if d <= 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidLifetime, s)
		}
		return d, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLifetime, s)
	}
	return d, nil
}
