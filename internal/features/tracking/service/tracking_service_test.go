package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dhl-tracking-proxy/internal/core/cache"
	"dhl-tracking-proxy/internal/core/logger"
	"dhl-tracking-proxy/internal/core/ratelimit"
	"dhl-tracking-proxy/internal/features/tracking/domain"
)

type stubProvider struct {
	calls   int
	results []func() (*domain.ExtractionResult, error)
}

func (p *stubProvider) Track(ctx context.Context, trackingNumber string) (*domain.ExtractionResult, error) {
	step := p.calls
	p.calls++
	if step >= len(p.results) {
		step = len(p.results) - 1
	}
	return p.results[step]()
}

func okResult(trackingNumber string) func() (*domain.ExtractionResult, error) {
	return func() (*domain.ExtractionResult, error) {
		return &domain.ExtractionResult{
			TrackingNumber: trackingNumber,
			Status:         domain.StatusInTransit,
			Events: []domain.TrackingEvent{
				{Description: "Salida de la instalación", Status: domain.StatusInTransit},
			},
		}, nil
	}
}

func failWith(err error) func() (*domain.ExtractionResult, error) {
	return func() (*domain.ExtractionResult, error) { return nil, err }
}

func newTestService(t *testing.T, provider *stubProvider, c cache.Cache) *TrackingService {
	t.Helper()
	logger.Init("development", "error")

	svc := NewTrackingService(provider, ratelimit.NewGate(time.Millisecond), c, 10*time.Minute, logger.Get())
	svc.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return svc
}

func TestTrackingService_InvalidNumber(t *testing.T) {
	svc := newTestService(t, &stubProvider{}, nil)

	_, err := svc.Track(context.Background(), "  1234  ")
	assert.ErrorIs(t, err, domain.ErrInvalidTrackingNumber)

	_, err = svc.Track(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidTrackingNumber)
}

func TestTrackingService_Success(t *testing.T) {
	provider := &stubProvider{results: []func() (*domain.ExtractionResult, error){
		okResult("1234567890"),
	}}
	svc := newTestService(t, provider, nil)

	result, err := svc.Track(context.Background(), "1234567890")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInTransit, result.Status)
	assert.Equal(t, 1, provider.calls)
}

func TestTrackingService_RetriesThenSucceeds(t *testing.T) {
	provider := &stubProvider{results: []func() (*domain.ExtractionResult, error){
		failWith(errors.New("tracking navigation failed: timeout")),
		failWith(errors.New("snapshot harvest failed")),
		okResult("1234567890"),
	}}

	svc := newTestService(t, provider, nil)
	var waits []time.Duration
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	result, err := svc.Track(context.Background(), "1234567890")
	require.NoError(t, err)
	assert.Equal(t, 3, provider.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, waits)
	assert.Equal(t, domain.StatusInTransit, result.Status)
}

func TestTrackingService_ExhaustsAttempts(t *testing.T) {
	lastErr := errors.New("settle interrupted")
	provider := &stubProvider{results: []func() (*domain.ExtractionResult, error){
		failWith(errors.New("first failure")),
		failWith(errors.New("second failure")),
		failWith(lastErr),
	}}
	svc := newTestService(t, provider, nil)

	_, err := svc.Track(context.Background(), "1234567890")
	assert.Equal(t, 3, provider.calls)
	// The last attempt's error comes back verbatim.
	assert.Same(t, lastErr, err)
}

func TestTrackingService_BlockAbortsRetries(t *testing.T) {
	provider := &stubProvider{results: []func() (*domain.ExtractionResult, error){
		failWith(&domain.BlockError{Kind: domain.BlockKindCaptcha, Detail: "captcha"}),
		okResult("1234567890"),
	}}
	svc := newTestService(t, provider, nil)

	_, err := svc.Track(context.Background(), "1234567890")
	assert.True(t, domain.IsBlocked(err))
	assert.Equal(t, 1, provider.calls)
}

func TestTrackingService_CacheHitSkipsProvider(t *testing.T) {
	mr := miniredis.RunT(t)
	adapter, err := cache.NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	defer adapter.Close()

	provider := &stubProvider{results: []func() (*domain.ExtractionResult, error){
		okResult("1234567890"),
	}}
	svc := newTestService(t, provider, adapter)

	first, err := svc.Track(context.Background(), "1234567890")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)

	second, err := svc.Track(context.Background(), "1234567890")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls, "second query must come from cache")
	assert.Equal(t, first, second)
}

func TestTrackingService_CacheExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	adapter, err := cache.NewRedisAdapter("redis://" + mr.Addr())
	require.NoError(t, err)
	defer adapter.Close()

	provider := &stubProvider{results: []func() (*domain.ExtractionResult, error){
		okResult("1234567890"),
	}}
	svc := newTestService(t, provider, adapter)
	svc.cacheTTL = time.Minute

	_, err = svc.Track(context.Background(), "1234567890")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = svc.Track(context.Background(), "1234567890")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls)
}

func TestTrackingService_ContextCanceledDuringBackoff(t *testing.T) {
	provider := &stubProvider{results: []func() (*domain.ExtractionResult, error){
		failWith(errors.New("first failure")),
	}}
	svc := newTestService(t, provider, nil)
	svc.sleep = sleepCtx

	// Cancel while the one-second backoff before attempt 2 is running.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := svc.Track(ctx, "1234567890")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, provider.calls)
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Second, backoff(2))
	assert.Equal(t, 2*time.Second, backoff(3))
	assert.Equal(t, 4*time.Second, backoff(4))
	assert.Equal(t, 10*time.Second, backoff(6))
}
