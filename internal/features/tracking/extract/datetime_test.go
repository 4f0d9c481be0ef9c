package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var fallback = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestParseTimestamp_DateAndTime(t *testing.T) {
	ts, dateToken, timeToken := ParseTimestamp("15/03/2024 | 10:30 | Entregado en destino", fallback)

	assert.Equal(t, time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), ts)
	assert.Equal(t, "15/03/2024", dateToken)
	assert.Equal(t, "10:30", timeToken)
}

func TestParseTimestamp_DateOnly(t *testing.T) {
	ts, dateToken, timeToken := ParseTimestamp("Salida de la instalación 02-11-2023", fallback)

	assert.Equal(t, time.Date(2023, 11, 2, 0, 0, 0, 0, time.UTC), ts)
	assert.Equal(t, "02-11-2023", dateToken)
	assert.Empty(t, timeToken)
}

func TestParseTimestamp_TwoDigitYear(t *testing.T) {
	ts, _, _ := ParseTimestamp("5/3/24 Enviado", fallback)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), ts)
}

func TestParseTimestamp_Meridiem(t *testing.T) {
	ts, _, timeToken := ParseTimestamp("15/03/2024 2:45 PM Entregado", fallback)
	assert.Equal(t, time.Date(2024, 3, 15, 14, 45, 0, 0, time.UTC), ts)
	assert.Equal(t, "2:45 PM", timeToken)

	ts, _, _ = ParseTimestamp("15/03/2024 12:10 AM Recibido", fallback)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 10, 0, 0, time.UTC), ts)

	// 12 PM stays 12.
	ts, _, _ = ParseTimestamp("15/03/2024 12:10 PM Recibido", fallback)
	assert.Equal(t, time.Date(2024, 3, 15, 12, 10, 0, 0, time.UTC), ts)
}

func TestParseTimestamp_NoDateUsesFallback(t *testing.T) {
	ts, dateToken, timeToken := ParseTimestamp("Entregado en destino a las 10:30", fallback)

	assert.Equal(t, fallback, ts)
	assert.Empty(t, dateToken)
	assert.Equal(t, "10:30", timeToken)
}

func TestHasDateOrTime(t *testing.T) {
	assert.True(t, hasDateOrTime("15/03/2024"))
	assert.True(t, hasDateOrTime("a las 10:30"))
	assert.True(t, hasDateOrTime("2-11-23"))
	assert.False(t, hasDateOrTime("Entregado en destino"))
	assert.False(t, hasDateOrTime(""))
}
