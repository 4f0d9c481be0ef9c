package extract

import "strings"

// excludedPhrases marks boilerplate and navigation chrome that must never
// be classified as a status or an event, no matter what else it contains.
var excludedPhrases = []string{
	"menú",
	"menu",
	"servicio al cliente",
	"encontrar",
	"obtener",
	"enviar ahora",
	"solicitar",
	"explorar",
	"seleccione",
	"cambiar",
	"cookie",
	"privacidad",
	"privacy",
	"términos",
	"terms",
	"consentimiento",
	"aceptar",
	"rechazar",
}

// trackingKeywords qualify a text chunk as a plausible tracking event.
// Bilingual because DHL serves the Mexican portal in Spanish with English
// fragments mixed in.
var trackingKeywords = []string{
	"entregado",
	"delivered",
	"tránsito",
	"transito",
	"transit",
	"recolectado",
	"picked",
	"enviado",
	"shipped",
	"recibido",
	"received",
	"procesado",
	"processed",
	"en camino",
	"on the way",
	"salida",
	"departed",
	"llegada",
	"arrived",
}

// Status phrase groups, evaluated in fixed precedence. Delivered wins
// immediately; the rest update the running classification.
var (
	deliveredPhrases = []string{"entregado", "entregada", "delivered", "delivery completed"}
	inTransitPhrases = []string{"en tránsito", "in transit", "transit", "transito", "en camino", "on the way", "out for delivery"}
	pickedUpPhrases  = []string{"recolectado", "picked up", "collected", "pickup"}
	processingPhrases = []string{"procesando", "processing", "preparando"}
	notFoundPhrases  = []string{"lo sentimos", "no se pudo", "no encontrado", "no encontramos"}
)

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func isExcluded(lower string) bool {
	return containsAny(lower, excludedPhrases)
}

func hasTrackingKeyword(lower string) bool {
	return containsAny(lower, trackingKeywords)
}
