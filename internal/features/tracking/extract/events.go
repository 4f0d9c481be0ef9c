package extract

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"dhl-tracking-proxy/internal/features/tracking/domain"
)

// leadingSeparatorRe strips punctuation left over after removing date and
// time tokens from the front of a description.
var leadingSeparatorRe = regexp.MustCompile(`^[\s,\-–|]+`)

// acceptEventText is the core acceptance rule for event chunks: bounded
// size, not boilerplate, and either a tracking keyword or a date/time
// pattern.
func acceptEventText(text string) bool {
	n := runeLen(text)
	if n <= 10 || n >= 400 {
		return false
	}
	lower := strings.ToLower(text)
	if isExcluded(lower) {
		return false
	}
	return hasTrackingKeyword(lower) || hasDateOrTime(text)
}

// acceptTableRow applies the row rule: at least two non-empty cells and at
// least one cell passing the keyword/date/time test. It returns the
// combined row text and a best-effort location from the third cell.
func acceptTableRow(cells []string) (combined, location string, ok bool) {
	nonEmpty := make([]string, 0, len(cells))
	for _, cell := range cells {
		if cell = strings.TrimSpace(cell); cell != "" {
			nonEmpty = append(nonEmpty, cell)
		}
	}
	if len(nonEmpty) < 2 {
		return "", "", false
	}
	passes := false
	for _, cell := range nonEmpty {
		if hasTrackingKeyword(strings.ToLower(cell)) || hasDateOrTime(cell) {
			passes = true
			break
		}
	}
	if !passes {
		return "", "", false
	}
	combined = strings.Join(nonEmpty, " | ")
	n := runeLen(combined)
	if n <= 10 || n >= 400 || isExcluded(strings.ToLower(combined)) {
		return "", "", false
	}
	if len(nonEmpty) > 2 {
		location = nonEmpty[2]
	}
	return combined, location, true
}

// normalizeEvent turns an accepted raw chunk into a TrackingEvent: compose
// the timestamp from the first date/time tokens, strip those tokens and
// leading separators from the description, and attach a best-effort
// location.
func normalizeEvent(raw, location string, status domain.Status, fallback time.Time) domain.TrackingEvent {
	ts, dateToken, timeToken := ParseTimestamp(raw, fallback)

	description := raw
	if dateToken != "" {
		description = strings.Replace(description, dateToken, "", 1)
	}
	if timeToken != "" {
		description = strings.Replace(description, timeToken, "", 1)
	}
	description = strings.TrimSpace(leadingSeparatorRe.ReplaceAllString(strings.TrimSpace(description), ""))
	if runeLen(description) < 5 {
		description = raw
	}

	if location == "" {
		location = GuessLocation(raw)
	}

	return domain.TrackingEvent{
		Description: description,
		Timestamp:   ts,
		Location:    location,
		Status:      status,
	}
}

// BuildEvents runs the primary event extraction pass over the snapshot's
// candidate region: table rows first (DHL's most common layout), then list
// and container chunks. Chunks are deduplicated by exact raw text.
func BuildEvents(snap *Snapshot, status domain.Status, fallback time.Time) []domain.TrackingEvent {
	seen := make(map[string]struct{})
	var events []domain.TrackingEvent

	for _, cells := range snap.TableRows {
		combined, location, ok := acceptTableRow(cells)
		if !ok {
			continue
		}
		if _, dup := seen[combined]; dup {
			continue
		}
		seen[combined] = struct{}{}
		events = append(events, normalizeEvent(combined, location, status, fallback))
	}

	for _, text := range snap.EventTexts {
		text = strings.TrimSpace(text)
		if !acceptEventText(text) {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		events = append(events, normalizeEvent(text, "", status, fallback))
	}

	sortEvents(events)
	return events
}

// sortEvents orders events by timestamp descending. The sort is stable so
// identical timestamps keep extraction order and repeated runs over the
// same DOM produce identical output.
func sortEvents(events []domain.TrackingEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
}

// dedupeByDescription drops later events whose description text exactly
// matches an earlier one.
func dedupeByDescription(events []domain.TrackingEvent) []domain.TrackingEvent {
	seen := make(map[string]struct{}, len(events))
	kept := events[:0]
	for _, ev := range events {
		if _, dup := seen[ev.Description]; dup {
			continue
		}
		seen[ev.Description] = struct{}{}
		kept = append(kept, ev)
	}
	return kept
}
