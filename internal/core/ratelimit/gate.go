// Package ratelimit throttles externally triggered query starts.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
	"go.uber.org/zap"

	"dhl-tracking-proxy/internal/core/logger"
)

// Gate enforces a process-wide minimum interval between query dispatches.
// It must be consulted before the first attempt of each external query,
// never between internal retries.
//
// The interval is deliberately large: DHL flags bursty visitors, and until
// true per-session locking exists it is also the de facto serialization of
// warm-page use, so treat it as correctness-relevant rather than mere
// politeness.
type Gate struct {
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewGate creates a Gate with the given minimum dispatch interval.
func NewGate(minInterval time.Duration) *Gate {
	return &Gate{
		// Burst 1: one token per interval, so Wait blocks until the
		// interval since the last dispatch has elapsed.
		limiter: rate.NewLimiter(rate.Every(minInterval), 1),
		log:     logger.Get(),
	}
}

// Wait blocks until the minimum interval since the last dispatch has
// elapsed, then records the new dispatch time. It honors ctx cancellation.
func (g *Gate) Wait(ctx context.Context) error {
	start := time.Now()
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	if waited := time.Since(start); waited > time.Second {
		g.log.Info("Rate limited query dispatch", zap.Duration("waited", waited))
	}
	return nil
}
