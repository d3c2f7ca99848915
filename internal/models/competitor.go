package models

import "fmt"

// GeoHeading é uma posição com rumo
type GeoHeading struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Heading   float64 `json:"heading"`
}

// CompetitorRecord representa uma aeronave adversária
type CompetitorRecord struct {
	TeamID   int        `json:"team_id"`
	Raw      GeoHeading `json:"raw"`
	Filtered GeoHeading `json:"filtered"`
	Altitude float64    `json:"altitude_m"`
	Speed    float64    `json:"speed_mps"`
}

// TargetLock são os campos de travamento de alvo informados pelo operador
type TargetLock struct {
	Locked     int `json:"target_locked"`
	Autonomous int `json:"autonomous"`
	CenterX    int `json:"target_center_x"`
	CenterY    int `json:"target_center_y"`
	Width      int `json:"target_width"`
	Height     int `json:"target_height"`
}

// Validate exige target_locked e autonomous em 0 ou 1
func (l TargetLock) Validate() error {
	if l.Locked != 0 && l.Locked != 1 {
		return fmt.Errorf("%w: target_locked=%d deve ser 0 ou 1", ErrInvalidParams, l.Locked)
	}
	if l.Autonomous != 0 && l.Autonomous != 1 {
		return fmt.Errorf("%w: autonomous=%d deve ser 0 ou 1", ErrInvalidParams, l.Autonomous)
	}
	return nil
}

// DefaultTargetLock são os valores enviados até o operador alterá-los
func DefaultTargetLock() TargetLock {
	return TargetLock{Locked: 1, Autonomous: 1, CenterX: 300, CenterY: 230, Width: 30, Height: 43}
}

// ServerTime é o horário no formato esperado pelo servidor de competição
type ServerTime struct {
	Hour        int `json:"hour"`
	Minute      int `json:"minute"`
	Second      int `json:"second"`
	Millisecond int `json:"millisecond"`
}

// QRCoordinate é o ponto QR publicado pelo servidor
type QRCoordinate struct {
	Latitude  float64 `json:"qr_lat"`
	Longitude float64 `json:"qr_lon"`
}

// NoFlyCircle é uma zona de exclusão circular
type NoFlyCircle struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Radius    float64 `json:"radius"`
}

// LockInfo é o relatório de um travamento de alvo concluído
type LockInfo struct {
	Start     ServerTime `json:"start"`
	End       ServerTime `json:"end"`
	Automatic int        `json:"automatic"`
}
