package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dhl-tracking-proxy/internal/features/tracking/domain"
)

func TestAcceptEventText(t *testing.T) {
	assert.True(t, acceptEventText("Entregado en destino final"))
	assert.True(t, acceptEventText("Recibido el 15/03/2024 en bodega"))
	assert.True(t, acceptEventText("Actualización registrada a las 10:30"))

	// Too short, too long, boilerplate, or no signal at all.
	assert.False(t, acceptEventText("Entregado"))
	assert.False(t, acceptEventText("Texto largo sin ninguna palabra clave relevante"))
	assert.False(t, acceptEventText("Aceptar todas las cookies del sitio"))
}

func TestAcceptTableRow(t *testing.T) {
	combined, location, ok := acceptTableRow([]string{"15/03/2024", "10:30", "Entregado en destino"})
	require.True(t, ok)
	assert.Equal(t, "15/03/2024 | 10:30 | Entregado en destino", combined)
	assert.Equal(t, "Entregado en destino", location)

	// Empty cells are dropped before the two-cell minimum.
	_, _, ok = acceptTableRow([]string{"", "15/03/2024", ""})
	assert.False(t, ok)

	// Two cells but no keyword or date anywhere.
	_, _, ok = acceptTableRow([]string{"Columna", "Valor"})
	assert.False(t, ok)

	// Two-cell rows carry no location.
	_, location, ok = acceptTableRow([]string{"15/03/2024", "Salida de la instalación"})
	require.True(t, ok)
	assert.Empty(t, location)
}

func TestNormalizeEvent_StripsTokens(t *testing.T) {
	ev := normalizeEvent("15/03/2024 | 10:30 | Entregado en destino", "", domain.StatusDelivered, fallback)

	assert.Equal(t, "Entregado en destino", ev.Description)
	assert.Equal(t, time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), ev.Timestamp)
	assert.Equal(t, domain.StatusDelivered, ev.Status)
	// No explicit location: the capitalized run is the best guess.
	assert.Equal(t, "Entregado", ev.Location)
}

func TestNormalizeEvent_RawFallbackWhenStrippedTooShort(t *testing.T) {
	// After stripping date and time almost nothing remains, so the raw
	// chunk is kept as the description.
	ev := normalizeEvent("15/03/2024 10:30 ok", "", domain.StatusInTransit, fallback)
	assert.Equal(t, "15/03/2024 10:30 ok", ev.Description)
}

func TestBuildEvents_TableRowScenario(t *testing.T) {
	snap := &Snapshot{
		TableRows: [][]string{
			{"Fecha", "Hora", "Evento"},
			{"15/03/2024", "10:30", "Entregado en destino"},
			{"14/03/2024", "08:15", "Salida de la instalación DHL Guadalajara"},
		},
	}

	events := BuildEvents(snap, domain.StatusDelivered, fallback)
	require.Len(t, events, 2)

	// Sorted newest first.
	assert.Equal(t, "Entregado en destino", events[0].Description)
	assert.Equal(t, time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), events[0].Timestamp)
	assert.Equal(t, domain.StatusDelivered, events[0].Status)

	assert.Equal(t, "Salida de la instalación DHL Guadalajara", events[1].Description)
	assert.Equal(t, time.Date(2024, 3, 14, 8, 15, 0, 0, time.UTC), events[1].Timestamp)
}

func TestBuildEvents_MixesRowsAndTexts(t *testing.T) {
	snap := &Snapshot{
		TableRows: [][]string{
			{"15/03/2024", "Entregado en destino"},
		},
		EventTexts: []string{
			"Enviado desde el centro de distribución 14/03/2024",
			"Enviado desde el centro de distribución 14/03/2024", // duplicate chunk
			"Menú de navegación principal",                       // boilerplate
		},
	}

	events := BuildEvents(snap, domain.StatusDelivered, fallback)
	require.Len(t, events, 2)
}

func TestBuildEvents_EmptySnapshot(t *testing.T) {
	events := BuildEvents(&Snapshot{}, domain.StatusNotFound, fallback)
	assert.Empty(t, events)
}

func TestSortEvents_StableDescending(t *testing.T) {
	t1 := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	events := []domain.TrackingEvent{
		{Description: "a", Timestamp: t1},
		{Description: "b", Timestamp: t2},
		{Description: "c", Timestamp: t1},
	}
	sortEvents(events)

	assert.Equal(t, "b", events[0].Description)
	// Equal timestamps keep their original relative order.
	assert.Equal(t, "a", events[1].Description)
	assert.Equal(t, "c", events[2].Description)
}

func TestDedupeByDescription(t *testing.T) {
	events := []domain.TrackingEvent{
		{Description: "Entregado en destino"},
		{Description: "Salida de la instalación"},
		{Description: "Entregado en destino"},
	}
	deduped := dedupeByDescription(events)
	require.Len(t, deduped, 2)
	assert.Equal(t, "Entregado en destino", deduped[0].Description)
	assert.Equal(t, "Salida de la instalación", deduped[1].Description)
}

func TestGuessLocation(t *testing.T) {
	assert.Equal(t, "Guadalajara Jalisco", GuessLocation("llegada a Guadalajara Jalisco 15/03/2024"))
	assert.Empty(t, GuessLocation("sin mayúsculas aquí"))
}

func TestExtractEndpoints(t *testing.T) {
	origin, destination := ExtractEndpoints([]string{
		"Origen: Ciudad de México",
		"Destino: Monterrey",
		"Origen: Guadalajara", // first match already won
	})
	assert.Equal(t, ": Ciudad de México", origin)
	assert.Equal(t, ": Monterrey", destination)
}

func TestExtractEndpoints_Bounds(t *testing.T) {
	origin, destination := ExtractEndpoints([]string{
		"or", // too short
		"",
	})
	assert.Empty(t, origin)
	assert.Empty(t, destination)
}
