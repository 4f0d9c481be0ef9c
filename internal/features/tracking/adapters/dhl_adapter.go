package adapters

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"
	"go.uber.org/zap"

	"dhl-tracking-proxy/internal/features/tracking/blockdetect"
	"dhl-tracking-proxy/internal/features/tracking/browser"
	"dhl-tracking-proxy/internal/features/tracking/domain"
	"dhl-tracking-proxy/internal/features/tracking/extract"
	"dhl-tracking-proxy/internal/features/tracking/ports"
)

// DHLAdapter implements ports.TrackingProvider against the rendered DHL
// tracking page. One Track call is one full attempt: session acquisition,
// choreographed navigation, block checkpoints, and heuristic extraction.
type DHLAdapter struct {
	manager  *browser.Manager
	nav      *browser.Navigator
	engine   *extract.Engine
	detector *blockdetect.Detector
	store    ports.CookieStore
	log      *zap.Logger
}

// NewDHLAdapter creates the adapter.
func NewDHLAdapter(
	manager *browser.Manager,
	nav *browser.Navigator,
	engine *extract.Engine,
	detector *blockdetect.Detector,
	store ports.CookieStore,
	log *zap.Logger,
) *DHLAdapter {
	return &DHLAdapter{
		manager:  manager,
		nav:      nav,
		engine:   engine,
		detector: detector,
		store:    store,
		log:      log,
	}
}

// Track runs one scraping attempt. A *domain.BlockError return means DHL
// detected the automation; the warm session has already been discarded so
// the next attempt starts clean.
func (a *DHLAdapter) Track(ctx context.Context, trackingNumber string) (*domain.ExtractionResult, error) {
	warm := true
	session, err := a.manager.Acquire(ctx)
	if err != nil {
		a.log.Warn("warm session unavailable, falling back to ephemeral session",
			zap.Error(err),
		)
		warm = false
		session, err = a.manager.Ephemeral(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to start browser session: %w", err)
		}
		defer session.Close()
	}

	page := session.Page()

	// Cold pages walk in through the landing page; warm pages already did
	// during session construction.
	if !warm {
		a.nav.OpenLanding(ctx, page)
	}

	if err := a.nav.OpenTracking(ctx, page, trackingNumber, warm); err != nil {
		a.discardIfWarm(warm, session)
		return nil, err
	}

	if err := a.nav.Settle(ctx, page); err != nil {
		return nil, err
	}

	// Checkpoint after the settle wait, before touching the content. A hit
	// here poisons the session's fingerprint, so it is thrown away.
	if berr := a.checkpoint(page); berr != nil {
		a.log.Warn("block detected before extraction",
			zap.String("kind", string(berr.Kind)),
			zap.String("detail", berr.Detail),
		)
		a.discardIfWarm(warm, session)
		return nil, berr
	}

	if err := a.nav.FinishSettle(ctx, page); err != nil {
		return nil, err
	}

	snap, err := browser.CollectSnapshot(page)
	if err != nil {
		a.discardIfWarm(warm, session)
		return nil, err
	}

	result := a.engine.Extract(snap)
	result.TrackingNumber = trackingNumber

	if len(result.Events) == 0 {
		// Nothing found in the candidate region. Rule out a block on the
		// full snapshot first, then rescan the whole document.
		if berr := a.detector.Check(snap.BodyText, snap.URL); berr != nil {
			a.log.Warn("block detected after extraction",
				zap.String("kind", string(berr.Kind)),
				zap.String("detail", berr.Detail),
			)
			a.discardIfWarm(warm, session)
			return nil, berr
		}
		a.engine.Escalate(snap, result)
	}

	if err := browser.PersistCookies(page, a.store); err != nil {
		a.log.Warn("failed to persist cookie jar", zap.Error(err))
	}

	a.log.Info("extraction complete",
		zap.String("tracking_number", trackingNumber),
		zap.String("status", string(result.Status)),
		zap.Int("events", len(result.Events)),
	)
	return result, nil
}

// discardIfWarm drops the shared session after a failure; ephemeral sessions
// are closed by their deferred Close.
func (a *DHLAdapter) discardIfWarm(warm bool, session *browser.Session) {
	if warm {
		a.manager.Discard(session)
	}
}

// checkpoint reads the visible text and URL in one round trip and runs the
// block detector on them. A page that cannot even be read is left for the
// extraction path to report.
func (a *DHLAdapter) checkpoint(page *rod.Page) *domain.BlockError {
	res, err := page.Eval(`() => JSON.stringify({
		bodyText: document.body.innerText || '',
		url: window.location.href,
	})`)
	if err != nil {
		a.log.Debug("block checkpoint eval failed", zap.Error(err))
		return nil
	}

	var probe struct {
		BodyText string `json:"bodyText"`
		URL      string `json:"url"`
	}
	if err := json.Unmarshal([]byte(res.Value.Str()), &probe); err != nil {
		return nil
	}
	return a.detector.Check(probe.BodyText, probe.URL)
}
