package models

// LatLon é um par [lat, lon]; no arquivo é gravado como array de dois números
type LatLon [2]float64

// Lat retorna a latitude
func (p LatLon) Lat() float64 { return p[0] }

// Lon retorna a longitude
func (p LatLon) Lon() float64 { return p[1] }

// QRPoint é o ponto QR gravado no arquivo de região
type QRPoint struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Region é a área de competição (quatro cantos) e o ponto QR opcional
type Region struct {
	Polygon []LatLon `json:"polygon"`
	QRPoint *QRPoint `json:"qr_point,omitempty"`
}

// DefaultRegion retorna os cantos usados quando não há arquivo de região
func DefaultRegion() Region {
	return Region{
		Polygon: []LatLon{
			{41.03, 28.95},
			{41.03, 28.97},
			{41.01, 28.97},
			{41.01, 28.95},
		},
	}
}
