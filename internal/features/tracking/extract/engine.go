package extract

import (
	"fmt"
	"time"

	"dhl-tracking-proxy/internal/features/tracking/domain"
)

// Engine runs the extraction pipeline over page snapshots. It holds no
// browser state; the clock is injectable so extraction is reproducible in
// tests (the default-timestamp fallback is its only wall-clock use).
type Engine struct {
	clock func() time.Time
}

// NewEngine creates an Engine. A nil clock defaults to time.Now.
func NewEngine(clock func() time.Time) *Engine {
	if clock == nil {
		clock = time.Now
	}
	return &Engine{clock: clock}
}

// Extract performs the primary pass: status classification, event
// extraction over the candidate region, sorting, and origin/destination.
// Callers must check for an empty Events slice and run Escalate after the
// post-extraction block checkpoint has cleared.
func (e *Engine) Extract(snap *Snapshot) *domain.ExtractionResult {
	status := ClassifyStatus(snap.StatusTexts)
	now := e.clock()

	events := BuildEvents(snap, status, now)
	if events == nil {
		events = []domain.TrackingEvent{}
	}
	origin, destination := ExtractEndpoints(snap.LocationTexts)

	return &domain.ExtractionResult{
		Status:      status,
		Events:      dedupeByDescription(events),
		Origin:      origin,
		Destination: destination,
	}
}

// Escalate is the zero-event fallback pass. It rescans the whole document
// unrestricted, folds in any apology sentence as a NotFound signal, and
// guarantees the result carries at least one event when a status is known.
func (e *Engine) Escalate(snap *Snapshot, result *domain.ExtractionResult) {
	now := e.clock()

	result.Events = append(result.Events, escalateEvents(snap, result.Status, now)...)

	apologies := FindApologySentences(snap.BodyText)
	if len(apologies) > 0 {
		result.Status = domain.StatusNotFound
		if len(result.Events) == 0 {
			result.Events = append(result.Events, domain.TrackingEvent{
				Description: apologies[0],
				Timestamp:   now,
				Status:      domain.StatusNotFound,
			})
		}
	}

	if len(result.Events) == 0 && result.Status != domain.StatusNotFound {
		result.Events = append(result.Events, domain.TrackingEvent{
			Description: fmt.Sprintf("Estado actual: %s", result.Status),
			Timestamp:   now,
			Status:      result.Status,
		})
	}

	sortEvents(result.Events)
	result.Events = dedupeByDescription(result.Events)
}
