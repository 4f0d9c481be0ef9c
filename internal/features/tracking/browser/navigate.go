package browser

import (
	"context"
	"fmt"
	"time"

	"dhl-tracking-proxy/internal/core/config"

	"github.com/go-rod/rod"
	"go.uber.org/zap"
)

// Step names the phases of the tracking navigation. Handlers and logs use
// it to report how far a failed attempt got.
type Step string

const (
	StepIdle           Step = "idle"
	StepLandingLoaded  Step = "landing_loaded"
	StepTrackingLoaded Step = "tracking_loaded"
	StepSettled        Step = "settled"
)

// contentSelectors are the element shapes DHL has been observed to render
// tracking results into. The settle phase races all of them; whichever
// appears first ends the wait early.
var contentSelectors = []string{
	"table",
	`[class*="timeline"]`,
	`[class*="tracking"]`,
	`[class*="shipment"]`,
	`[id*="tracking"]`,
	`[data-testid*="tracking"]`,
	`div[class*="event"]`,
}

// Navigator drives a page through the landing -> tracking -> settled
// choreography. It is stateless; the same Navigator serves the warm session
// and ephemeral fallbacks.
type Navigator struct {
	cfg DHL
	hum *Humanizer
	log *zap.Logger
}

// DHL bundles the navigation knobs the Navigator needs.
type DHL struct {
	LandingURL          string
	TrackingURLTemplate string
	LandingTimeout      time.Duration
	TrackingTimeout     time.Duration
	SettleMin           time.Duration
	SettleMax           time.Duration
}

// DHLFromConfig maps the application configuration onto navigation knobs.
func DHLFromConfig(cfg *config.AppConfig) DHL {
	return DHL{
		LandingURL:          cfg.DHL.LandingURL,
		TrackingURLTemplate: cfg.DHL.TrackingURLTemplate,
		LandingTimeout:      time.Duration(cfg.Browser.LandingTimeoutSeconds) * time.Second,
		TrackingTimeout:     time.Duration(cfg.Browser.TrackingTimeoutSeconds) * time.Second,
		SettleMin:           time.Duration(cfg.Browser.SettleWaitMinSeconds) * time.Second,
		SettleMax:           time.Duration(cfg.Browser.SettleWaitMaxSeconds) * time.Second,
	}
}

// NewNavigator returns a Navigator using hum for pacing.
func NewNavigator(cfg DHL, hum *Humanizer, log *zap.Logger) *Navigator {
	return &Navigator{cfg: cfg, hum: hum, log: log}
}

// TrackingURL renders the tracking page URL for a tracking number.
func (n *Navigator) TrackingURL(trackingNumber string) string {
	return fmt.Sprintf(n.cfg.TrackingURLTemplate, trackingNumber)
}

// OpenLanding visits the carrier home page to establish a believable session
// origin, then runs the landing preamble and a best-effort click on the
// tracking link so the hop to the tracking page has a referrer trail.
// Landing failures are logged and swallowed; the tracking page is still
// reachable directly.
func (n *Navigator) OpenLanding(ctx context.Context, page *rod.Page) {
	p := page.Context(ctx).Timeout(n.cfg.LandingTimeout)
	if err := p.Navigate(n.cfg.LandingURL); err != nil {
		n.log.Warn("landing navigation failed, continuing without it",
			zap.String("url", n.cfg.LandingURL),
			zap.Error(err),
		)
		return
	}
	_ = p.WaitDOMStable(300*time.Millisecond, 0.1)
	n.log.Debug("landing page loaded", zap.String("step", string(StepLandingLoaded)))

	if err := n.hum.Delay(ctx, 5*time.Second, 10*time.Second); err != nil {
		return
	}
	if err := n.hum.LandingPreamble(ctx, page); err != nil {
		return
	}

	clicked, err := n.clickTrackingLink(ctx, page)
	if err != nil {
		n.log.Debug("tracking link click failed, navigating directly", zap.Error(err))
		return
	}
	if clicked {
		_ = n.hum.Delay(ctx, 2*time.Second, 4*time.Second)
	}
}

// clickTrackingLink looks for a link whose text or href suggests tracking
// and clicks it through the page's own event handlers. Returns whether a
// link was found and clicked.
func (n *Navigator) clickTrackingLink(ctx context.Context, page *rod.Page) (bool, error) {
	p := page.Context(ctx)
	res, err := p.Eval(`() => {
		const links = Array.from(document.querySelectorAll('a'));
		const link = links.find(a => {
			const text = (a.textContent || '').toLowerCase();
			const href = (a.href || '').toLowerCase();
			return text.includes('tracking') || text.includes('rastrear') ||
				text.includes('rastreo') || href.includes('tracking');
		});
		if (!link) return false;
		link.click();
		return true;
	}`)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

// OpenTracking navigates to the tracking page for trackingNumber. Warm
// sessions get a short post-navigation pause; cold pages get a longer one
// because nothing is cached yet.
func (n *Navigator) OpenTracking(ctx context.Context, page *rod.Page, trackingNumber string, warm bool) error {
	url := n.TrackingURL(trackingNumber)
	p := page.Context(ctx).Timeout(n.cfg.TrackingTimeout)

	n.log.Info("navigating to tracking page",
		zap.String("url", url),
		zap.Bool("warm", warm),
	)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("tracking navigation failed: %w", err)
	}
	_ = p.WaitDOMStable(300*time.Millisecond, 0.1)
	n.log.Debug("tracking page loaded", zap.String("step", string(StepTrackingLoaded)))

	if warm {
		return n.hum.Delay(ctx, 2*time.Second, 4*time.Second)
	}
	return n.hum.Delay(ctx, 10*time.Second, 15*time.Second)
}

// Settle runs the reading pause, pointer rounds and the long wait that lets
// DHL's client-rendered tracking content populate. The long wait is the core
// of the choreography; cutting it short is what gets sessions flagged. The
// caller runs its block checkpoint after Settle, before FinishSettle.
func (n *Navigator) Settle(ctx context.Context, page *rod.Page) error {
	if err := n.hum.Delay(ctx, 10*time.Second, 15*time.Second); err != nil {
		return err
	}
	if err := n.hum.PointerRounds(ctx, page, 3); err != nil {
		return err
	}

	n.log.Info("waiting for dynamic content to settle",
		zap.Duration("min", n.cfg.SettleMin),
		zap.Duration("max", n.cfg.SettleMax),
	)
	return n.hum.Delay(ctx, n.cfg.SettleMin, n.cfg.SettleMax)
}

// FinishSettle races the known content selectors and walks the page with
// the reading scroll to trigger lazy-loaded content before extraction.
func (n *Navigator) FinishSettle(ctx context.Context, page *rod.Page) error {
	n.waitContentSelectors(ctx, page)

	if err := n.hum.ReadingScroll(ctx, page); err != nil {
		return err
	}
	if err := n.hum.Delay(ctx, 10*time.Second, 15*time.Second); err != nil {
		return err
	}

	n.log.Debug("page settled", zap.String("step", string(StepSettled)))
	return nil
}

// waitContentSelectors waits up to ten seconds for any known tracking
// element shape to appear. Absence is not an error; extraction falls back
// to body text heuristics.
func (n *Navigator) waitContentSelectors(ctx context.Context, page *rod.Page) {
	p := page.Context(ctx).Timeout(10 * time.Second)
	race := p.Race()
	for _, sel := range contentSelectors {
		race = race.Element(sel)
	}
	if _, err := race.Do(); err != nil {
		n.log.Debug("no known tracking selectors appeared, continuing", zap.Error(err))
		return
	}
	n.log.Debug("tracking content selector appeared")
}
