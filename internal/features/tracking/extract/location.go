package extract

import (
	"regexp"
	"strings"
)

// locationRe matches a run of capitalized words, the best available signal
// for a city/state name inside a free-form event chunk.
var locationRe = regexp.MustCompile(`[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+(?:\s+[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+)*`)

// originLabelRe and destinationLabelRe strip the label words off matched
// origin/destination chunks.
var (
	originLabelRe      = regexp.MustCompile(`(?i)origen|origin|from`)
	destinationLabelRe = regexp.MustCompile(`(?i)destino|destination|to`)
)

// GuessLocation returns the first capitalized word run in text, or empty.
func GuessLocation(text string) string {
	return strings.TrimSpace(locationRe.FindString(text))
}

// ExtractEndpoints scans location-flavored chunks for origin and
// destination values. First match per field wins; label words are
// stripped; a field is never overwritten once set.
func ExtractEndpoints(locationTexts []string) (origin, destination string) {
	for _, text := range locationTexts {
		text = strings.TrimSpace(text)
		if runeLen(text) < 3 || runeLen(text) > 100 {
			continue
		}
		lower := strings.ToLower(text)
		switch {
		case origin == "" && (strings.Contains(lower, "origen") || strings.Contains(lower, "origin") || strings.Contains(lower, "from")):
			origin = strings.TrimSpace(originLabelRe.ReplaceAllString(text, ""))
		case destination == "" && (strings.Contains(lower, "destino") || strings.Contains(lower, "destination") || strings.Contains(lower, "to")):
			destination = strings.TrimSpace(destinationLabelRe.ReplaceAllString(text, ""))
		}
		if origin != "" && destination != "" {
			break
		}
	}
	return origin, destination
}
