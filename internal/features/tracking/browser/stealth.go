package browser

import (
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

// userAgent is pinned rather than rotated. DHL correlates the UA string with
// the sec-ch-ua client hints below, so the whole set must stay consistent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

const (
	viewportWidth  = 1280
	viewportHeight = 800
)

// reinforceScript runs on every new document after the stealth bundle. It
// re-removes navigator.webdriver through several paths and fills in the
// surfaces the bundle leaves at defaults (plugins, languages, window.chrome
// with plausible load timings).
const reinforceScript = `() => {
	Object.defineProperty(navigator, 'webdriver', {
		get: () => undefined,
		configurable: true,
	});
	try { delete navigator.__proto__.webdriver; } catch (e) {}
	try { delete navigator.webdriver; } catch (e) {}
	Object.defineProperty(navigator, 'webdriver', {
		get: () => false,
		configurable: true,
	});

	Object.defineProperty(navigator, 'plugins', {
		get: () => [
			{ name: 'Chrome PDF Plugin', filename: 'internal-pdf-viewer' },
			{ name: 'Chrome PDF Viewer', filename: 'mhjfbmdgcfjbbpaeojofohoefgiehjai' },
			{ name: 'Native Client', filename: 'internal-nacl-plugin' },
		],
	});

	Object.defineProperty(navigator, 'languages', {
		get: () => ['es-MX', 'es', 'en'],
	});

	window.chrome = {
		runtime: {},
		loadTimes: () => ({
			commitLoadTime: Date.now() / 1000 - Math.random(),
			finishDocumentLoadTime: Date.now() / 1000 - Math.random() * 0.5,
			finishLoadTime: Date.now() / 1000 - Math.random() * 0.2,
			firstPaintTime: Date.now() / 1000 - Math.random(),
			requestTime: Date.now() / 1000 - Math.random() * 2,
			startLoadTime: Date.now() / 1000 - Math.random() * 1.5,
		}),
		csi: () => ({
			startE: Date.now() - Math.random() * 10000,
			onloadT: Date.now() - Math.random() * 5000,
			pageT: Math.random() * 1000,
		}),
	};
}`

// baseHeaders is the fixed header set sent with every request. DHL inspects
// these aggressively, so values mirror what Chrome 122 on Windows sends for
// a top-level navigation.
var baseHeaders = map[string]string{
	"accept-language":           "es-MX,es;q=0.9,en;q=0.8",
	"accept-encoding":           "gzip, deflate, br",
	"accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
	"connection":                "keep-alive",
	"upgrade-insecure-requests": "1",
	"sec-fetch-dest":            "document",
	"sec-fetch-mode":            "navigate",
	"sec-fetch-site":            "none",
	"sec-fetch-user":            "?1",
	"cache-control":             "max-age=0",
	"sec-ch-ua":                 `"Chromium";v="122", "Not(A:Brand";v="24", "Google Chrome";v="122"`,
	"sec-ch-ua-mobile":          "?0",
	"sec-ch-ua-platform":        `"Windows"`,
	"dnt":                       "1",
}

// applyFingerprint installs the stealth bundle, the reinforcement script, the
// pinned user agent, the viewport and the fixed header set on a fresh page.
// It must run before the first navigation.
func applyFingerprint(page *rod.Page) error {
	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		return fmt.Errorf("stealth injection failed: %w", err)
	}
	if _, err := page.EvalOnNewDocument(reinforceScript); err != nil {
		return fmt.Errorf("fingerprint reinforcement failed: %w", err)
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      userAgent,
		AcceptLanguage: "es-MX",
		Platform:       "Win32",
	}); err != nil {
		return fmt.Errorf("failed to set user agent: %w", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		return fmt.Errorf("failed to set viewport: %w", err)
	}

	if err := (proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(baseHeaders),
	}).Call(page); err != nil {
		return fmt.Errorf("failed to set extra headers: %w", err)
	}

	return nil
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
