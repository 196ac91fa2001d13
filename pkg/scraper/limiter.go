package scraper

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter gates request starts. Every worker acquires a slot before issuing
// a request.
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewLimiter returns a limiter allowing at most requestsPerSecond request
// starts in any one-second window. Zero or less means unbounded.
func NewLimiter(requestsPerSecond int) Limiter {
	if requestsPerSecond <= 0 {
		return unlimited{}
	}

	// A burst of one spaces starts one interval apart. The limiter measures
	// from its reservations, so the padding keeps rps+1 starts out of any
	// one-second window when a waiter wakes late.
	interval := time.Second / time.Duration(requestsPerSecond)

	return rate.NewLimiter(rate.Every(interval+interval/startMarginDivisor), 1)
}

// startMarginDivisor sets the padding to a twentieth of the start interval.
const startMarginDivisor = 20

type unlimited struct{}

func (unlimited) Wait(ctx context.Context) error {
	return ctx.Err()
}
