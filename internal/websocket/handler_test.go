package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufk_gcs/internal/models"
)

func TestClientAddress(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.RemoteAddr = "192.168.4.20:51234"
	assert.Equal(t, "192.168.4.20", clientAddress(r))

	r.Header.Set("X-Real-IP", "10.0.0.7")
	assert.Equal(t, "10.0.0.7", clientAddress(r))

	r.Header.Set("X-Forwarded-For", "10.0.0.9, 172.16.0.1")
	assert.Equal(t, "10.0.0.9", clientAddress(r))
}

func TestHealthHandler_ReportsConsolesAndTelemetry(t *testing.T) {
	hub, _ := startHub(t, nil)

	read := func() consoleHealth {
		rec := httptest.NewRecorder()
		NewHandler(hub).GetHealthHandler()(rec, httptest.NewRequest(http.MethodGet, "/ws/health", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var h consoleHealth
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
		return h
	}

	h := read()
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 1, h.Consoles)
	assert.Equal(t, maxConsoles, h.MaxConsoles)
	assert.Equal(t, "nunca", h.LastTelemetry)

	hub.BroadcastTelemetry(models.NewTelemetrySnapshot())
	assert.WithinDuration(t, time.Now(), hub.LastTelemetry(), time.Second)
	assert.NotEqual(t, "nunca", read().LastTelemetry)
}
