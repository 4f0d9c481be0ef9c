package extract

// Snapshot is everything the extraction heuristics need from a rendered
// tracking page, harvested in a single page evaluation. Keeping the
// heuristics on this plain value (instead of live browser handles) makes
// every rule in this package unit-testable without Chromium.
type Snapshot struct {
	// URL is the page's final URL after all redirects.
	URL string `json:"url"`
	// BodyText is the full visible text of the page.
	BodyText string `json:"bodyText"`
	// StatusTexts are candidate status chunks in selector priority order:
	// specific tracking/shipment containers first, then generic
	// status/heading/badge elements.
	StatusTexts []string `json:"statusTexts"`
	// EventTexts are candidate event chunks from list items and
	// event-classed containers in the chosen candidate region.
	EventTexts []string `json:"eventTexts"`
	// TableRows holds the trimmed, non-empty cell texts of every table row.
	TableRows [][]string `json:"tableRows"`
	// ListItems are all list item texts document-wide, used by the
	// escalation pass.
	ListItems []string `json:"listItems"`
	// LocationTexts are chunks from origin/destination/location elements.
	LocationTexts []string `json:"locationTexts"`
}
