package models

import (
	"encoding/json"
	"time"
)

// Tipos de mensagem enviados ao console
const (
	MessageStatus      = "status"
	MessageTelemetry   = "telemetry"
	MessageVehicle     = "vehicle"
	MessageCompetitors = "competitors"
	MessageSync        = "sync"
	MessageMissionData = "mission_data"
	MessageRegion      = "region"
	MessageError       = "error"
	MessageAck         = "ack"
	MessageWelcome     = "welcome"
	MessagePing        = "ping"
	MessagePong        = "pong"
)

// Comandos aceitos do console
const (
	CommandStartMission  = "start_mission"
	CommandManualControl = "manual_control"
	CommandMotorTest     = "motor_test"
	CommandSetTargetLock = "set_target_lock"
	CommandGetStatus     = "get_status"
	CommandPing          = "ping"
)

// WebSocketMessage representa a estrutura base de todas as mensagens WebSocket
type WebSocketMessage struct {
	Type      string      `json:"type"`            // Tipo da mensagem: "telemetry", "status", "competitors", etc.
	Timestamp time.Time   `json:"timestamp"`       // Timestamp da mensagem
	Data      interface{} `json:"data,omitempty"`  // Dados adicionais específicos do tipo
	Error     string      `json:"error,omitempty"` // Mensagem de erro, se houver
}

// CommandMessage é uma mensagem de comando do cliente para o servidor
type CommandMessage struct {
	Type   string          `json:"type"`             // Tipo de comando: "start_mission", "manual_control", etc.
	Params json.RawMessage `json:"params,omitempty"` // Parâmetros do comando
	ID     string          `json:"id,omitempty"`     // ID opcional para correlacionar solicitações/respostas
}

// ClientCommand representa um comando enviado pelo cliente
type ClientCommand struct {
	Command   string          `json:"command"`
	Params    json.RawMessage `json:"params,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	ClientID  string          `json:"-"` // Usado internamente, não enviado no JSON
}

// PingMessage representa um ping enviado pelo cliente
type PingMessage struct {
	WebSocketMessage
	Time int64 `json:"time"` // Timestamp em milissegundos
}

// PongMessage representa um pong enviado pelo servidor
type PongMessage struct {
	WebSocketMessage
	Time       int64 `json:"time"`       // Timestamp original do ping
	ServerTime int64 `json:"serverTime"` // Timestamp do servidor em milissegundos
}
