package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dhl-tracking-proxy/internal/features/tracking/domain"
)

func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func deliveredSnapshot() *Snapshot {
	return &Snapshot{
		URL:         "https://www.dhl.com/mx-es/home/tracking/tracking.html?submit=1&tracking-id=1234567890",
		BodyText:    "Rastreo DHL. Entregado en destino.",
		StatusTexts: []string{"Entregado en destino"},
		TableRows: [][]string{
			{"15/03/2024", "10:30", "Entregado en destino"},
			{"14/03/2024", "08:15", "Salida de la instalación DHL Guadalajara"},
		},
		LocationTexts: []string{"Origen: Ciudad de México", "Destino: Monterrey"},
	}
}

func TestEngine_Extract(t *testing.T) {
	engine := NewEngine(fixedClock)
	result := engine.Extract(deliveredSnapshot())

	assert.Equal(t, domain.StatusDelivered, result.Status)
	require.Len(t, result.Events, 2)
	assert.Equal(t, "Entregado en destino", result.Events[0].Description)
	assert.Equal(t, ": Ciudad de México", result.Origin)
	assert.Equal(t, ": Monterrey", result.Destination)
}

// TestEngine_Extract_Idempotent verifies that with a fixed clock the same
// snapshot always produces the same result.
func TestEngine_Extract_Idempotent(t *testing.T) {
	engine := NewEngine(fixedClock)
	snap := deliveredSnapshot()

	first := engine.Extract(snap)
	second := engine.Extract(snap)
	assert.Equal(t, first, second)
}

func TestEngine_Extract_EmptyPageHasEmptyEventSlice(t *testing.T) {
	engine := NewEngine(fixedClock)
	result := engine.Extract(&Snapshot{})

	assert.Equal(t, domain.StatusNotFound, result.Status)
	assert.NotNil(t, result.Events)
	assert.Empty(t, result.Events)
}

// TestEngine_Escalate_Apology verifies the apology path: status flips to
// NotFound and the apology sentence becomes the single synthesized event.
func TestEngine_Escalate_Apology(t *testing.T) {
	engine := NewEngine(fixedClock)
	snap := &Snapshot{
		BodyText: "Lo sentimos, su intento de rastreo no se realizó correctamente.",
	}

	result := engine.Extract(snap)
	require.Empty(t, result.Events)

	engine.Escalate(snap, result)

	assert.Equal(t, domain.StatusNotFound, result.Status)
	require.Len(t, result.Events, 1)
	assert.Equal(t, "Lo sentimos, su intento de rastreo no se realizó correctamente", result.Events[0].Description)
	assert.Equal(t, fixedClock(), result.Events[0].Timestamp)
	assert.Equal(t, domain.StatusNotFound, result.Events[0].Status)
}

// TestEngine_Escalate_SynthesizesStatusEvent verifies that a known status
// with no events yields one synthesized event carrying that status.
func TestEngine_Escalate_SynthesizesStatusEvent(t *testing.T) {
	engine := NewEngine(fixedClock)
	snap := &Snapshot{
		BodyText:    "El envío está en tránsito.",
		StatusTexts: []string{"En tránsito"},
	}

	result := engine.Extract(snap)
	require.Empty(t, result.Events)
	require.Equal(t, domain.StatusInTransit, result.Status)

	engine.Escalate(snap, result)

	require.Len(t, result.Events, 1)
	assert.Equal(t, "Estado actual: IN_TRANSIT", result.Events[0].Description)
	assert.Equal(t, domain.StatusInTransit, result.Events[0].Status)
}

// TestEngine_Escalate_RecoversListItems verifies the unrestricted rescan
// picks up events the primary pass's candidate region missed.
func TestEngine_Escalate_RecoversListItems(t *testing.T) {
	engine := NewEngine(fixedClock)
	snap := &Snapshot{
		BodyText:    "Historial del envío",
		StatusTexts: []string{"En tránsito"},
		ListItems: []string{
			"Salida de la instalación 14/03/2024",
			"Llegada a la instalación 15/03/2024",
		},
	}

	result := engine.Extract(snap)
	require.Empty(t, result.Events)

	engine.Escalate(snap, result)

	require.Len(t, result.Events, 2)
	// Sorted newest first after escalation.
	assert.Equal(t, "Llegada a la instalación", result.Events[0].Description)
	assert.Equal(t, "Salida de la instalación", result.Events[1].Description)
}
