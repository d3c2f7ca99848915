package competition

import (
	"math"
	"time"

	"ufk_gcs/internal/models"
)

// Curva de uma LiPo 6S: 3,5 V a 4,2 V por célula
const (
	batteryEmptyVolts = 21.0
	batteryFullVolts  = 25.2
)

// Submission é o corpo de POST /api/telemetry-submit
type Submission struct {
	TeamID        int               `json:"team_id"`
	Latitude      float64           `json:"lat"`
	Longitude     float64           `json:"lon"`
	Altitude      float64           `json:"altitude_m"`
	Pitch         float64           `json:"pitch_deg"`
	Heading       float64           `json:"heading_deg"`
	Roll          float64           `json:"roll_deg"`
	Speed         float64           `json:"speed_mps"`
	BatteryPct    int               `json:"battery_pct"`
	Autonomous    int               `json:"autonomous"`
	TargetLocked  int               `json:"target_locked"`
	TargetCenterX int               `json:"target_center_x"`
	TargetCenterY int               `json:"target_center_y"`
	TargetWidth   int               `json:"target_width"`
	TargetHeight  int               `json:"target_height"`
	ServerTime    models.ServerTime `json:"server_time"`
}

// CompetitorSample é uma entrada da resposta do servidor
type CompetitorSample struct {
	TeamID    int     `json:"team_id"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Altitude  float64 `json:"altitude_m"`
	Heading   float64 `json:"heading_deg"`
	Speed     float64 `json:"speed_mps"`
}

type submitResponse struct {
	Competitors []CompetitorSample `json:"competitors"`
}

// BuildSubmission monta o envio a partir do snapshot e dos campos do operador
func BuildSubmission(teamID int, snap models.TelemetrySnapshot, lock models.TargetLock, now time.Time) Submission {
	return Submission{
		TeamID:        teamID,
		Latitude:      snap.Latitude,
		Longitude:     snap.Longitude,
		Altitude:      snap.Altitude,
		Pitch:         snap.Pitch,
		Heading:       snap.Yaw,
		Roll:          snap.Roll,
		Speed:         snap.GroundSpeed,
		BatteryPct:    BatteryPercent(snap),
		Autonomous:    lock.Autonomous,
		TargetLocked:  lock.Locked,
		TargetCenterX: lock.CenterX,
		TargetCenterY: lock.CenterY,
		TargetWidth:   lock.Width,
		TargetHeight:  lock.Height,
		ServerTime:    ClockTime(now),
	}
}

// BatteryPercent estima a carga pelo banco 0 (ou banco 1 se o 0 não tiver leitura)
func BatteryPercent(snap models.TelemetrySnapshot) int {
	var v float64
	switch {
	case snap.Battery0 != nil:
		v = *snap.Battery0
	case snap.Battery1 != nil:
		v = *snap.Battery1
	default:
		return 0
	}

	// Intervalo em float64: 25.2-21.0 precisa arredondar igual ao numerador,
	// senão a carga cheia vira 99
	empty, full := float64(batteryEmptyVolts), float64(batteryFullVolts)
	pct := (v - empty) / (full - empty) * 100
	return int(math.Max(0, math.Min(100, pct)))
}

// ClockTime converte o relógio local para o formato do servidor
func ClockTime(t time.Time) models.ServerTime {
	return models.ServerTime{
		Hour:        t.Hour(),
		Minute:      t.Minute(),
		Second:      t.Second(),
		Millisecond: t.Nanosecond() / int(time.Millisecond),
	}
}

// Records converte as amostras em registros brutos para o Tracker
func Records(samples []CompetitorSample) []models.CompetitorRecord {
	out := make([]models.CompetitorRecord, 0, len(samples))
	for _, s := range samples {
		raw := models.GeoHeading{Latitude: s.Latitude, Longitude: s.Longitude, Heading: s.Heading}
		out = append(out, models.CompetitorRecord{
			TeamID:   s.TeamID,
			Raw:      raw,
			Filtered: raw,
			Altitude: s.Altitude,
			Speed:    s.Speed,
		})
	}
	return out
}
