// Package blockdetect recognizes DHL's anti-bot walls in rendered pages.
//
// The vocabulary here is deliberately disjoint from the extraction
// engine's apology phrases: "lo sentimos, su intento de rastreo..." is an
// ordinary NotFound response, not a block. When both could apply, the
// block checkpoints run first, so Blocked wins deterministically.
package blockdetect

import (
	"strings"

	"dhl-tracking-proxy/internal/features/tracking/domain"
)

// captchaPhrases demand human verification; they map to the captcha kind
// so the caller can prompt a manual verification path.
var captchaPhrases = []string{
	"captcha",
	"verifica que no eres un robot",
	"verificación",
}

// blockPhrases are the remaining hard-block signals.
var blockPhrases = []string{
	"access denied",
	"blocked",
	"suspicious activity",
	"too many requests",
	"rate limit",
	"forbidden",
	"lo sentimos, no podemos procesar",
	"error al procesar",
}

// urlIndicators flag block/challenge redirects by URL substring.
var urlIndicators = []string{"error", "blocked", "captcha"}

// Detector scans rendered page text and URLs for hard-block signals.
type Detector struct{}

// NewDetector creates a Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Check scans the visible page text (case-insensitive) and the current
// URL. It returns a terminal *domain.BlockError on a match, nil otherwise.
func (d *Detector) Check(bodyText, pageURL string) *domain.BlockError {
	lower := strings.ToLower(bodyText)

	for _, phrase := range captchaPhrases {
		if strings.Contains(lower, phrase) {
			return &domain.BlockError{Kind: domain.BlockKindCaptcha, Detail: phrase}
		}
	}
	for _, phrase := range blockPhrases {
		if strings.Contains(lower, phrase) {
			return &domain.BlockError{Kind: domain.BlockKindGeneric, Detail: phrase}
		}
	}

	lowerURL := strings.ToLower(pageURL)
	for _, indicator := range urlIndicators {
		if strings.Contains(lowerURL, indicator) {
			kind := domain.BlockKindGeneric
			if indicator == "captcha" {
				kind = domain.BlockKindCaptcha
			}
			return &domain.BlockError{Kind: kind, Detail: "url contains " + indicator}
		}
	}

	return nil
}
