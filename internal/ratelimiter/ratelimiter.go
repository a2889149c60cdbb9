package ratelimiter

import (
	"time"

	"golang.org/x/time/rate"
)

const (
	StrategyFixedWindow = "fixed"
	StrategyTokenBucket = "bucket"
)

// Limiter reports whether key may proceed and, if not, how long to wait.
type Limiter interface {
	Allow(key string) (bool, time.Duration)
}

type Config struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
	Strategy             string
}

// New picks the limiter for cfg.Strategy; unknown strategies fall back to the
// fixed window.
func New(cfg Config) Limiter {
	if cfg.Strategy == StrategyTokenBucket {
		perSecond := rate.Limit(float64(cfg.RequestsPerTimeFrame) / cfg.TimeFrame.Seconds())
		return NewTokenBucketLimiter(perSecond, cfg.RequestsPerTimeFrame, 10*cfg.TimeFrame)
	}
	return NewFixedWindowLimiter(cfg.RequestsPerTimeFrame, cfg.TimeFrame)
}
