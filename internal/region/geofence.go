package region

import (
	"sync"

	"github.com/peterstace/simplefeatures/geom"

	"ufk_gcs/internal/models"
	"ufk_gcs/pkg/logger"
)

// Contains informa se (lat, lon) está dentro do polígono da região.
// Pontos sobre a borda contam como dentro. Polígono inválido (cantos que se
// cruzam, por exemplo) nunca contém nada.
func Contains(region models.Region, lat, lon float64) bool {
	if len(region.Polygon) < 3 {
		return false
	}

	// Anel fechado em coordenadas X=lon, Y=lat
	coords := make([]float64, 0, 2*(len(region.Polygon)+1))
	for _, p := range region.Polygon {
		coords = append(coords, p.Lon(), p.Lat())
	}
	first := region.Polygon[0]
	coords = append(coords, first.Lon(), first.Lat())

	ring, err := geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
	if err != nil {
		logger.Warnf("Região com contorno inválido, cerca ignorada: %v", err)
		return false
	}
	poly, err := geom.NewPolygon([]geom.LineString{ring})
	if err != nil {
		logger.Warnf("Região com polígono inválido, cerca ignorada: %v", err)
		return false
	}
	point, err := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: lon, Y: lat}, Type: geom.DimXY})
	if err != nil {
		logger.Debugf("Posição inválida para a cerca (%v, %v): %v", lat, lon, err)
		return false
	}

	return geom.Intersects(poly.AsGeometry(), point.AsGeometry())
}

// Transition descreve uma mudança dentro/fora da região
type Transition int

const (
	NoChange Transition = iota
	Entered
	Left
)

// Geofence acompanha a posição da aeronave em relação à região e informa
// apenas as transições
type Geofence struct {
	mu     sync.Mutex
	known  bool
	inside bool
}

// Update avalia a nova posição. A primeira avaliação fora da região conta como
// saída; dentro dela não gera transição.
func (g *Geofence) Update(region models.Region, lat, lon float64) Transition {
	inside := Contains(region, lat, lon)

	g.mu.Lock()
	defer g.mu.Unlock()

	wasKnown, wasInside := g.known, g.inside
	g.known = true
	g.inside = inside

	switch {
	case !wasKnown && !inside:
		return Left
	case !wasKnown:
		return NoChange
	case wasInside && !inside:
		return Left
	case !wasInside && inside:
		return Entered
	}
	return NoChange
}

// Reset esquece a última posição (nova sessão ou região alterada)
func (g *Geofence) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.known = false
	g.inside = false
}
