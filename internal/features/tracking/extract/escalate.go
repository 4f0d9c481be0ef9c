package extract

import (
	"regexp"
	"strings"
	"time"

	"dhl-tracking-proxy/internal/features/tracking/domain"
)

// apologyPatterns match DHL's "could not process this tracking request"
// wording. These classify as an ordinary NotFound, never as a block:
// conflating them with the anti-bot vocabulary produces false block
// reports on plain "shipment not found" responses.
var apologyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)lo sentimos[^.]*intento de rastreo[^.]*no se realizó correctamente`),
	regexp.MustCompile(`(?i)lo sentimos[^.]*su intento de rastreo`),
	regexp.MustCompile(`(?i)intento de rastreo[^.]*no se realizó correctamente`),
	regexp.MustCompile(`(?i)no se pudo procesar[^.]*rastreo`),
	regexp.MustCompile(`(?i)lo sentimos[^.]*\.`),
	regexp.MustCompile(`(?i)no se pudo[^.]*\.`),
	regexp.MustCompile(`(?i)no encontrado[^.]*\.`),
	regexp.MustCompile(`(?i)no encontramos[^.]*\.`),
}

// FindApologySentences collects the carrier's apology sentences from the
// page text, deduplicated, in pattern order.
func FindApologySentences(bodyText string) []string {
	seen := make(map[string]struct{})
	var sentences []string
	for _, pattern := range apologyPatterns {
		match := strings.TrimSpace(pattern.FindString(bodyText))
		if match == "" {
			continue
		}
		if _, dup := seen[match]; dup {
			continue
		}
		seen[match] = struct{}{}
		sentences = append(sentences, match)
	}
	return sentences
}

// escalateEvents is the unrestricted second pass: every list item and
// every table row document-wide, same acceptance rule, per-chunk status
// classification.
func escalateEvents(snap *Snapshot, pageStatus domain.Status, fallback time.Time) []domain.TrackingEvent {
	seen := make(map[string]struct{})
	var events []domain.TrackingEvent

	for _, text := range snap.ListItems {
		text = strings.TrimSpace(text)
		if !acceptEventText(text) {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		status := classifyChunkStatus(strings.ToLower(text), pageStatus)
		events = append(events, normalizeEvent(text, "", status, fallback))
	}

	for _, cells := range snap.TableRows {
		combined, location, ok := acceptTableRow(cells)
		if !ok {
			continue
		}
		if _, dup := seen[combined]; dup {
			continue
		}
		seen[combined] = struct{}{}
		status := classifyChunkStatus(strings.ToLower(combined), pageStatus)
		events = append(events, normalizeEvent(combined, location, status, fallback))
	}

	return events
}
