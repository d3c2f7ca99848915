package models

import "time"

// Coordenadas provisórias usadas até o primeiro GLOBAL_POSITION_INT
const (
	PlaceholderLatitude  = 40.7128
	PlaceholderLongitude = 29.6652
)

// TelemetrySnapshot é o último estado conhecido da aeronave.
// Cada quadro recebido sobrescreve apenas os próprios campos, por isso campos
// diferentes podem vir de instantes diferentes.
type TelemetrySnapshot struct {
	Heartbeat   bool      `json:"heartbeat"`
	Latitude    float64   `json:"lat"`
	Longitude   float64   `json:"lon"`
	Altitude    float64   `json:"altitude_m"`
	Roll        float64   `json:"roll_deg"`
	Pitch       float64   `json:"pitch_deg"`
	Yaw         float64   `json:"yaw_deg"`
	GroundSpeed float64   `json:"speed_mps"`
	Battery0    *float64  `json:"battery0_v,omitempty"`
	Battery1    *float64  `json:"battery1_v,omitempty"`
	Satellites  int       `json:"satellites"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTelemetrySnapshot cria o snapshot inicial com as coordenadas provisórias
func NewTelemetrySnapshot() TelemetrySnapshot {
	return TelemetrySnapshot{
		Latitude:  PlaceholderLatitude,
		Longitude: PlaceholderLongitude,
	}
}

// Clone devolve uma cópia independente (os ponteiros de bateria são realocados)
func (s TelemetrySnapshot) Clone() TelemetrySnapshot {
	out := s
	if s.Battery0 != nil {
		v := *s.Battery0
		out.Battery0 = &v
	}
	if s.Battery1 != nil {
		v := *s.Battery1
		out.Battery1 = &v
	}
	return out
}

// VehiclePose é o que o console precisa para mover o ícone da aeronave
type VehiclePose struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Heading   float64 `json:"heading"`
}

// Pose extrai posição e rumo do snapshot
func (s TelemetrySnapshot) Pose() VehiclePose {
	return VehiclePose{Latitude: s.Latitude, Longitude: s.Longitude, Heading: s.Yaw}
}
