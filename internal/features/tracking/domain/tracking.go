package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MinTrackingNumberLength is the shortest tracking number DHL accepts.
// Anything shorter is rejected before the scraping pipeline is entered.
const MinTrackingNumberLength = 8

// ErrInvalidTrackingNumber is returned for absent or too-short tracking numbers.
var ErrInvalidTrackingNumber = errors.New("invalid tracking number")

// ValidateTrackingNumber checks that a tracking number is usable.
func ValidateTrackingNumber(trackingNumber string) error {
	if len(strings.TrimSpace(trackingNumber)) < MinTrackingNumberLength {
		return ErrInvalidTrackingNumber
	}
	return nil
}

// Status represents the global status of a shipment.
type Status string

const (
	// StatusDelivered indicates the shipment reached its destination.
	StatusDelivered Status = "DELIVERED"
	// StatusInTransit indicates the shipment is moving through the network.
	StatusInTransit Status = "IN_TRANSIT"
	// StatusPickedUp indicates the carrier has collected the shipment.
	StatusPickedUp Status = "PICKED_UP"
	// StatusProcessing indicates the shipment is being processed.
	StatusProcessing Status = "PROCESSING"
	// StatusNotFound indicates DHL returned no usable tracking information.
	StatusNotFound Status = "NOT_FOUND"
)

// TrackingEvent is a single entry in the shipment's history.
type TrackingEvent struct {
	// Description is the event text with date/time tokens stripped.
	Description string `json:"description"`
	// Timestamp is when the event occurred. Events without a parseable
	// date fall back to the extraction time.
	Timestamp time.Time `json:"timestamp"`
	// Location is a best-effort place name, empty when none was found.
	Location string `json:"location,omitempty"`
	// Status is the global status classified for the page at extraction time.
	Status Status `json:"status"`
}

// ExtractionResult is the normalized outcome of scraping one tracking page.
// Events are sorted by timestamp descending and deduplicated by exact
// description text.
type ExtractionResult struct {
	TrackingNumber string          `json:"trackingNumber"`
	Status         Status          `json:"status"`
	Events         []TrackingEvent `json:"events"`
	Origin         string          `json:"origin,omitempty"`
	Destination    string          `json:"destination,omitempty"`
}

// BlockKind distinguishes the flavor of an anti-bot block.
type BlockKind string

const (
	// BlockKindCaptcha means the page demanded a CAPTCHA or robot check.
	BlockKindCaptcha BlockKind = "captcha"
	// BlockKindGeneric covers access-denied, rate-limit and similar walls.
	BlockKindGeneric BlockKind = "generic"
)

// BlockError signals that DHL detected the automation and refused the
// query. It is terminal: the retry controller must not retry it, and the
// warm session is discarded so the next attempt starts with a fresh
// fingerprint.
type BlockError struct {
	Kind   BlockKind
	Detail string
}

// Error implements the error interface.
func (e *BlockError) Error() string {
	return fmt.Sprintf("blocked by carrier (%s): %s", e.Kind, e.Detail)
}

// IsBlocked reports whether err is (or wraps) a BlockError.
func IsBlocked(err error) bool {
	var be *BlockError
	return errors.As(err, &be)
}

// Cookie is one persisted browser cookie. The jar is written to disk after
// every successful extraction and loaded into fresh sessions so DHL sees a
// returning visitor instead of a cold fingerprint.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
}
