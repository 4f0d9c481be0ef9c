package ports

import (
	"context"

	"dhl-tracking-proxy/internal/features/tracking/domain"
)

// TrackingProvider runs one full scraping attempt for a tracking number.
type TrackingProvider interface {
	// Track performs acquire -> navigate -> extract and returns the
	// normalized result. A *domain.BlockError return is terminal.
	Track(ctx context.Context, trackingNumber string) (*domain.ExtractionResult, error)
}

// CookieStore persists the session cookie jar between runs.
type CookieStore interface {
	// Load returns the persisted jar, or an empty jar when none exists.
	Load() ([]domain.Cookie, error)
	// Save overwrites the persisted jar.
	Save(cookies []domain.Cookie) error
}

// SessionWarmer exposes the warm browser session lifecycle to the HTTP
// layer (/warmup and /keepalive).
type SessionWarmer interface {
	// Warm builds the warm session if needed, reusing a live one.
	Warm(ctx context.Context) error
	// Status reports the warm-session state: "ready", "expired" or
	// "not_loaded".
	Status() string
}
