package models

import "time"

// LinkStatus é o estado do link com a aeronave como o console vê
type LinkStatus struct {
	State     string    `json:"state"`
	Message   string    `json:"message,omitempty"`
	Link      string    `json:"link"`
	SessionID string    `json:"sessionId,omitempty"`
	LastError string    `json:"lastError,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SyncStatus é o estado da sincronização com o servidor de competição
type SyncStatus struct {
	State      string    `json:"state"`
	Message    string    `json:"message,omitempty"`
	Server     string    `json:"server"`
	LastError  string    `json:"lastError,omitempty"`
	ErrorCount int       `json:"errorCount,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// MissionData reúne o que o servidor publica uma única vez após o login
type MissionData struct {
	QR    *QRCoordinate `json:"qr,omitempty"`
	NoFly []NoFlyCircle `json:"noFly,omitempty"`
}

// SystemStatus é a visão consolidada devolvida por get_status e GET /api/status
type SystemStatus struct {
	Link       LinkStatus  `json:"link"`
	Sync       SyncStatus  `json:"sync"`
	TargetLock TargetLock  `json:"targetLock"`
	Mission    MissionData `json:"mission"`
	Clients    int         `json:"clients"`
	Timestamp  time.Time   `json:"timestamp"`
}

// ErrorPayload acompanha mensagens de erro enviadas ao console
type ErrorPayload struct {
	Source    string `json:"source"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}
