package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"dhl-tracking-proxy/internal/features/tracking/domain"
)

func TestClassifyStatus_DeliveredWinsImmediately(t *testing.T) {
	status := ClassifyStatus([]string{
		"En tránsito hacia la instalación",
		"Entregado en destino",
		"Procesando el envío",
	})
	assert.Equal(t, domain.StatusDelivered, status)
}

func TestClassifyStatus_LaterMatchOverwrites(t *testing.T) {
	status := ClassifyStatus([]string{
		"Procesando el envío",
		"En tránsito hacia la instalación",
	})
	assert.Equal(t, domain.StatusInTransit, status)

	// And the reverse ordering yields the reverse winner.
	status = ClassifyStatus([]string{
		"En tránsito hacia la instalación",
		"Procesando el envío",
	})
	assert.Equal(t, domain.StatusProcessing, status)
}

func TestClassifyStatus_PickedUp(t *testing.T) {
	status := ClassifyStatus([]string{"Recolectado por el mensajero"})
	assert.Equal(t, domain.StatusPickedUp, status)
}

func TestClassifyStatus_ApologyMeansNotFound(t *testing.T) {
	status := ClassifyStatus([]string{
		"En tránsito",
		"Lo sentimos, no encontramos resultados",
	})
	assert.Equal(t, domain.StatusNotFound, status)
}

func TestClassifyStatus_SkipsBoilerplateAndBounds(t *testing.T) {
	// Excluded chrome never classifies, even with a status word inside.
	status := ClassifyStatus([]string{"Aceptar cookies para ver su envío entregado"})
	assert.Equal(t, domain.StatusNotFound, status)

	// Too short and too long candidates are ignored.
	status = ClassifyStatus([]string{
		"ok",
		strings.Repeat("entregado ", 20),
	})
	assert.Equal(t, domain.StatusNotFound, status)
}

func TestClassifyStatus_NoCandidates(t *testing.T) {
	assert.Equal(t, domain.StatusNotFound, ClassifyStatus(nil))
	assert.Equal(t, domain.StatusNotFound, ClassifyStatus([]string{}))
}

func TestClassifyChunkStatus(t *testing.T) {
	assert.Equal(t, domain.StatusDelivered, classifyChunkStatus("entregado en destino", domain.StatusInTransit))
	assert.Equal(t, domain.StatusInTransit, classifyChunkStatus("salida en tránsito", domain.StatusProcessing))
	assert.Equal(t, domain.StatusPickedUp, classifyChunkStatus("recolectado", domain.StatusNotFound))
	// No chunk-level match falls back to the page status.
	assert.Equal(t, domain.StatusProcessing, classifyChunkStatus("salida de la instalación", domain.StatusProcessing))
}
