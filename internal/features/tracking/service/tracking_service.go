package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dhl-tracking-proxy/internal/core/cache"
	"dhl-tracking-proxy/internal/core/ratelimit"
	"dhl-tracking-proxy/internal/features/tracking/domain"
	"dhl-tracking-proxy/internal/features/tracking/ports"
)

// maxAttempts is the total number of scraping attempts per query: the
// initial attempt plus two retries.
const maxAttempts = 3

// TrackingService orchestrates one external tracking query: validation,
// cache lookup, the process-wide dispatch gate, and the bounded retry loop
// around the provider.
type TrackingService struct {
	provider ports.TrackingProvider
	gate     *ratelimit.Gate
	cache    cache.Cache
	cacheTTL time.Duration
	log      *zap.Logger

	// sleep waits between retry attempts. Overridable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewTrackingService creates the service. cacheClient may be nil, which
// disables the result cache.
func NewTrackingService(
	provider ports.TrackingProvider,
	gate *ratelimit.Gate,
	cacheClient cache.Cache,
	cacheTTL time.Duration,
	log *zap.Logger,
) *TrackingService {
	return &TrackingService{
		provider: provider,
		gate:     gate,
		cache:    cacheClient,
		cacheTTL: cacheTTL,
		log:      log,
		sleep:    sleepCtx,
	}
}

// Track resolves one tracking number. The gate is consulted once, before
// the first attempt; retries reuse the slot. Block errors abort the retry
// loop immediately and are returned as-is so the handler can map them to a
// 403. After exhausting all attempts the last error is returned verbatim.
func (s *TrackingService) Track(ctx context.Context, trackingNumber string) (*domain.ExtractionResult, error) {
	if err := domain.ValidateTrackingNumber(trackingNumber); err != nil {
		return nil, err
	}

	if cached := s.readCache(ctx, trackingNumber); cached != nil {
		s.log.Info("cache hit", zap.String("tracking_number", trackingNumber))
		return cached, nil
	}

	if err := s.gate.Wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := backoff(attempt)
			s.log.Info("retrying query",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAttempts),
				zap.Duration("backoff", delay),
			)
			if err := s.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		result, err := s.provider.Track(ctx, trackingNumber)
		if err == nil {
			s.writeCache(ctx, trackingNumber, result)
			return result, nil
		}

		if domain.IsBlocked(err) {
			s.log.Warn("query blocked, aborting retries",
				zap.String("tracking_number", trackingNumber),
				zap.Error(err),
			)
			return nil, err
		}

		s.log.Warn("attempt failed",
			zap.Int("attempt", attempt),
			zap.String("tracking_number", trackingNumber),
			zap.Error(err),
		)
		lastErr = err
	}

	return nil, lastErr
}

// backoff returns the pre-attempt delay: 1s before the second attempt,
// doubling after that, capped at 10s.
func backoff(attempt int) time.Duration {
	d := time.Second << (attempt - 2)
	if d > 10*time.Second {
		d = 10 * time.Second
	}
	return d
}

func (s *TrackingService) readCache(ctx context.Context, trackingNumber string) *domain.ExtractionResult {
	if s.cache == nil {
		return nil
	}
	var result domain.ExtractionResult
	if err := s.cache.GetJSON(ctx, cacheKey(trackingNumber), &result); err != nil {
		return nil
	}
	return &result
}

func (s *TrackingService) writeCache(ctx context.Context, trackingNumber string, result *domain.ExtractionResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(ctx, cacheKey(trackingNumber), result, s.cacheTTL); err != nil {
		s.log.Warn("failed to cache result",
			zap.String("tracking_number", trackingNumber),
			zap.Error(err),
		)
	}
}

func cacheKey(trackingNumber string) string {
	return fmt.Sprintf("track:%s", trackingNumber)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
