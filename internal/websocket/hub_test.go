package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufk_gcs/internal/models"
)

type recordingSink struct {
	mu       sync.Mutex
	received []models.ClientCommand
	result   interface{}
	err      error
}

func (s *recordingSink) HandleCommand(_ context.Context, cmd models.ClientCommand) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, cmd)
	return s.result, s.err
}

func (s *recordingSink) commands() []models.ClientCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ClientCommand(nil), s.received...)
}

type rawMessage struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Time  int64           `json:"time"`
}

func startHub(t *testing.T, sink CommandSink) (*Hub, *websocket.Conn) {
	t.Helper()

	hub := NewHub()
	if sink != nil {
		hub.SetCommandSink(sink)
	}
	go hub.Run()

	srv := httptest.NewServer(NewHandler(hub))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		srv.Close()
		hub.Shutdown()
	})

	require.Equal(t, models.MessageWelcome, readType(t, conn, models.MessageWelcome).Type)
	return hub, conn
}

// readType lê mensagens até encontrar o tipo pedido
func readType(t *testing.T, conn *websocket.Conn, msgType string) rawMessage {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "aguardando mensagem %s", msgType)

		var msg rawMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == msgType {
			return msg
		}
	}
}

func TestHub_PingAnsweredLocally(t *testing.T) {
	sink := &recordingSink{}
	_, conn := startHub(t, sink)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":   "ping",
		"params": map[string]int64{"time": 1234},
	}))

	pong := readType(t, conn, models.MessagePong)
	assert.Equal(t, int64(1234), pong.Time)
	assert.Empty(t, sink.commands())
}

func TestHub_CommandForwardedAndAcked(t *testing.T) {
	sink := &recordingSink{result: "enfileirado"}
	_, conn := startHub(t, sink)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":   "motor_test",
		"params": map[string]int{"motor_id": 3},
		"id":     "req-1",
	}))

	ack := readType(t, conn, models.MessageAck)
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(ack.Data, &data))
	assert.Equal(t, "motor_test", data["command"])
	assert.Equal(t, "req-1", data["requestId"])
	assert.Equal(t, "enfileirado", data["result"])

	cmds := sink.commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, "motor_test", cmds[0].Command)
	assert.JSONEq(t, `{"motor_id":3}`, string(cmds[0].Params))
	assert.NotEmpty(t, cmds[0].ClientID)
}

func TestHub_CommandErrorReplied(t *testing.T) {
	sink := &recordingSink{err: errors.New("link não está vivo")}
	_, conn := startHub(t, sink)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "start_mission", "id": "r9"}))

	msg := readType(t, conn, models.MessageError)
	assert.Equal(t, "link não está vivo", msg.Error)

	var payload models.ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, "command", payload.Source)
	assert.Equal(t, "r9", payload.RequestID)
}

func TestHub_GetStatusRepliesWithStatus(t *testing.T) {
	sink := &recordingSink{result: models.SystemStatus{Clients: 1}}
	_, conn := startHub(t, sink)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "get_status"}))

	msg := readType(t, conn, models.MessageStatus)
	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(msg.Data, &status))
	assert.Equal(t, 1, status.Clients)
}

func TestHub_WithoutSinkRepliesError(t *testing.T) {
	_, conn := startHub(t, nil)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"type": "start_mission"}))

	msg := readType(t, conn, models.MessageError)
	assert.Equal(t, ErrNoCommandSink.Error(), msg.Error)
}

func TestHub_InvalidFormat(t *testing.T) {
	_, conn := startHub(t, &recordingSink{})

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping","extra":1}`)))

	msg := readType(t, conn, models.MessageError)
	var payload models.ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Data, &payload))
	assert.Equal(t, "invalid_format", payload.Code)
}

func TestHub_BroadcastTelemetryAndVehicle(t *testing.T) {
	hub, conn := startHub(t, &recordingSink{})

	snap := models.NewTelemetrySnapshot()
	snap.Altitude = 120.5
	snap.Yaw = 90
	hub.BroadcastTelemetry(snap)

	telemetry := readType(t, conn, models.MessageTelemetry)
	var got models.TelemetrySnapshot
	require.NoError(t, json.Unmarshal(telemetry.Data, &got))
	assert.InDelta(t, 120.5, got.Altitude, 1e-9)

	vehicle := readType(t, conn, models.MessageVehicle)
	var pose models.VehiclePose
	require.NoError(t, json.Unmarshal(vehicle.Data, &pose))
	assert.InDelta(t, 90, pose.Heading, 1e-9)
}

func TestHub_BroadcastTelemetryThrottled(t *testing.T) {
	hub := NewHub()
	defer hub.cancel()

	hub.BroadcastTelemetry(models.NewTelemetrySnapshot())
	hub.BroadcastTelemetry(models.NewTelemetrySnapshot())

	// Telemetria + pose da primeira chamada; a segunda é descartada
	assert.Len(t, hub.broadcast, 2)
}

func TestHub_BroadcastCompetitorsNeverNull(t *testing.T) {
	hub, conn := startHub(t, &recordingSink{})

	hub.BroadcastCompetitors(nil)

	msg := readType(t, conn, models.MessageCompetitors)
	assert.Equal(t, "[]", string(msg.Data))
}
