package extract

import (
	"strings"
	"unicode/utf8"

	"dhl-tracking-proxy/internal/features/tracking/domain"
)

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// ClassifyStatus scans status candidate chunks in selector priority order
// and returns the shipment's global status.
//
// A Delivered phrase wins immediately and stops the scan. Matches for the
// other groups update the running classification and scanning continues,
// so a later, more specific container can still refine the result. With
// no match at all the page is treated as NotFound.
func ClassifyStatus(candidates []string) domain.Status {
	status := domain.StatusNotFound
	for _, candidate := range candidates {
		text := strings.TrimSpace(candidate)
		if runeLen(text) < 3 || runeLen(text) > 150 {
			continue
		}
		lower := strings.ToLower(text)
		if isExcluded(lower) {
			continue
		}
		switch {
		case containsAny(lower, deliveredPhrases):
			return domain.StatusDelivered
		case containsAny(lower, inTransitPhrases):
			status = domain.StatusInTransit
		case containsAny(lower, pickedUpPhrases):
			status = domain.StatusPickedUp
		case containsAny(lower, processingPhrases):
			status = domain.StatusProcessing
		case containsAny(lower, notFoundPhrases):
			status = domain.StatusNotFound
		}
	}
	return status
}

// classifyChunkStatus classifies a single escalation chunk on its own
// text, falling back to the page-level status.
func classifyChunkStatus(lower string, pageStatus domain.Status) domain.Status {
	switch {
	case containsAny(lower, deliveredPhrases):
		return domain.StatusDelivered
	case containsAny(lower, inTransitPhrases):
		return domain.StatusInTransit
	case containsAny(lower, pickedUpPhrases):
		return domain.StatusPickedUp
	}
	return pageStatus
}
