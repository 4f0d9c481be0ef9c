package browser

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"dhl-tracking-proxy/internal/core/config"
	"dhl-tracking-proxy/internal/features/tracking/ports"
)

// Session is one launched browser with a single prepared page. The warm
// session lives across requests; ephemeral sessions live for one attempt.
type Session struct {
	browser   *rod.Browser
	launcher  *launcher.Launcher
	page      *rod.Page
	createdAt time.Time
}

// Page returns the session's prepared page.
func (s *Session) Page() *rod.Page {
	return s.page
}

// Age returns how long ago the session was built.
func (s *Session) Age() time.Duration {
	return time.Since(s.createdAt)
}

// Close shuts the browser down and cleans up the launcher's temp data.
func (s *Session) Close() {
	if s.browser != nil {
		_ = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
}

// Manager owns the warm session. Construction is single-flight: when several
// requests find the session dead at once, exactly one rebuild runs and the
// rest wait for its outcome. Launching a second Chromium in parallel doubles
// memory and halves the stealth value of the shared cookie jar.
type Manager struct {
	bcfg     config.BrowserConfig
	dhl      DHL
	warmupNo string
	store    ports.CookieStore
	hum      *Humanizer
	log      *zap.Logger

	// proxyAddr, when non-empty, is passed to the launcher as --proxy-server.
	proxyAddr string

	mu       sync.Mutex
	current  *Session
	pending  chan struct{}
	buildErr error

	// buildFunc constructs a session and probeFunc checks liveness.
	// Both are overridable in tests.
	buildFunc func(ctx context.Context) (*Session, error)
	probeFunc func(s *Session) bool
}

// NewManager returns a Manager that builds sessions against the configured
// carrier pages. proxyAddr may be empty.
func NewManager(cfg *config.AppConfig, store ports.CookieStore, proxyAddr string, log *zap.Logger) *Manager {
	m := &Manager{
		bcfg:      cfg.Browser,
		dhl:       DHLFromConfig(cfg),
		warmupNo:  cfg.DHL.WarmupTrackingNumber,
		store:     store,
		hum:       NewHumanizer(),
		log:       log,
		proxyAddr: proxyAddr,
	}
	m.buildFunc = m.build
	m.probeFunc = probe
	return m
}

// Acquire returns a live warm session, probing the cached one and rebuilding
// it when the probe fails. Concurrent callers during a rebuild block until
// the single in-flight build finishes and then share its result.
func (m *Manager) Acquire(ctx context.Context) (*Session, error) {
	m.mu.Lock()

	if m.current != nil {
		if m.probeFunc(m.current) {
			s := m.current
			m.mu.Unlock()
			m.log.Debug("reusing warm session", zap.Duration("age", s.Age()))
			return s, nil
		}
		m.log.Info("warm session failed probe, discarding", zap.Duration("age", m.current.Age()))
		m.current.Close()
		m.current = nil
	}

	if m.pending != nil {
		done := m.pending
		m.mu.Unlock()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-done:
		}
		m.mu.Lock()
		s, err := m.current, m.buildErr
		m.mu.Unlock()
		if err != nil {
			return nil, err
		}
		if s == nil {
			return nil, errors.New("session build finished without a session")
		}
		return s, nil
	}

	done := make(chan struct{})
	m.pending = done
	m.mu.Unlock()

	s, err := m.buildFunc(ctx)

	m.mu.Lock()
	if err == nil {
		m.current = s
	}
	m.buildErr = err
	m.pending = nil
	close(done)
	m.mu.Unlock()

	return s, err
}

// Discard closes the warm session if it matches s, so the next Acquire
// starts a fresh build. Called after a block so the poisoned fingerprint is
// not reused.
func (m *Manager) Discard(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil && m.current == s {
		m.current.Close()
		m.current = nil
	}
}

// Ephemeral builds a throwaway session that is never cached. The caller owns
// its lifecycle and must Close it.
func (m *Manager) Ephemeral(ctx context.Context) (*Session, error) {
	return m.buildFunc(ctx)
}

// Warm builds the warm session if there is no live one. Implements
// ports.SessionWarmer.
func (m *Manager) Warm(ctx context.Context) error {
	_, err := m.Acquire(ctx)
	return err
}

// Status reports the warm-session state without triggering a rebuild.
func (m *Manager) Status() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return "not_loaded"
	}
	if m.probeFunc(m.current) {
		return "ready"
	}
	return "expired"
}

// Close shuts down the warm session. Called on graceful shutdown.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		m.current.Close()
		m.current = nil
	}
}

// probe checks the session is still alive by evaluating a trivial expression
// on its page. A dead renderer or closed browser makes this fail fast.
func probe(s *Session) bool {
	if s.page == nil {
		return false
	}
	p := s.page.Timeout(5 * time.Second)
	_, err := p.Eval(`() => document.title`)
	return err == nil
}

// build launches a browser, applies the fingerprint, restores the cookie
// jar, visits the landing page and pre-warms the tracking route so the
// first real query hits a hot client-side router.
func (m *Manager) build(ctx context.Context) (*Session, error) {
	start := time.Now()
	m.log.Info("building browser session")

	l := newLauncher(m.bcfg, m.proxyAddr)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, err
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, err
	}

	s := &Session{browser: browser, launcher: l, createdAt: start}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.page = page

	if err := applyFingerprint(page); err != nil {
		s.Close()
		return nil, err
	}

	if cookies, err := m.store.Load(); err == nil && len(cookies) > 0 {
		if err := page.SetCookies(toCookieParams(cookies)); err != nil {
			m.log.Warn("failed to restore cookie jar", zap.Error(err))
		} else {
			m.log.Debug("restored cookie jar", zap.Int("cookies", len(cookies)))
		}
	}

	// Landing first so the tracking route has a plausible origin. A failure
	// here is survivable.
	p := page.Context(ctx).Timeout(m.dhl.LandingTimeout)
	if err := p.Navigate(m.dhl.LandingURL); err != nil {
		m.log.Warn("landing navigation failed during warmup", zap.Error(err))
	} else if err := m.hum.Delay(ctx, 2*time.Second, 4*time.Second); err != nil {
		s.Close()
		return nil, err
	}

	warmURL := m.dhl.LandingURL
	if m.warmupNo != "" {
		warmURL = (&Navigator{cfg: m.dhl}).TrackingURL(m.warmupNo)
	}
	p = page.Context(ctx).Timeout(m.dhl.LandingTimeout)
	if err := p.Navigate(warmURL); err != nil {
		m.log.Warn("warmup tracking navigation failed", zap.Error(err))
	} else if err := m.hum.Delay(ctx, 3*time.Second, 5*time.Second); err != nil {
		s.Close()
		return nil, err
	}

	if cookies, err := page.Cookies(nil); err == nil && len(cookies) > 0 {
		if err := m.store.Save(fromNetworkCookies(cookies)); err != nil {
			m.log.Warn("failed to persist cookie jar", zap.Error(err))
		}
	}

	m.log.Info("browser session ready", zap.Duration("elapsed", time.Since(start)))
	return s, nil
}

// newLauncher configures the Chromium launcher with the detection-avoidance
// flag set. An empty bin lets the launcher resolve or download a browser.
func newLauncher(cfg config.BrowserConfig, proxyAddr string) *launcher.Launcher {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if proxyAddr != "" {
		l = l.Proxy(proxyAddr)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-ipc-flooding-protection"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-prompt-on-repost"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("window-size"), "1280,800")

	return l
}
