package region

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"ufk_gcs/internal/models"
	"ufk_gcs/pkg/logger"
)

// ErrInvalidRegion indica polígono fora do formato de quatro cantos
var ErrInvalidRegion = errors.New("região inválida")

// fileFormat cobre o formato atual e o antigo (retângulo min/max)
type fileFormat struct {
	Polygon []models.LatLon `json:"polygon,omitempty"`
	QRPoint *models.QRPoint `json:"qr_point,omitempty"`
	Region  *legacyBounds   `json:"region,omitempty"`
}

type legacyBounds struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// corners distribui o retângulo nos quatro cantos, no mesmo sentido do polígono
func (b legacyBounds) corners() []models.LatLon {
	return []models.LatLon{
		{b.MinLat, b.MinLon},
		{b.MinLat, b.MaxLon},
		{b.MaxLat, b.MaxLon},
		{b.MaxLat, b.MinLon},
	}
}

// Store lê e grava o arquivo de região. É a única persistência da estação.
type Store struct {
	path  string
	mutex sync.Mutex
}

// NewStore cria um Store para o caminho informado
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path retorna o caminho do arquivo
func (s *Store) Path() string { return s.path }

// Load lê a região. Arquivo ausente ou ilegível cai nos cantos padrão.
func (s *Store) Load() (models.Region, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.load()
}

func (s *Store) load() (models.Region, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.DefaultRegion(), nil
		}
		return models.DefaultRegion(), fmt.Errorf("erro ao ler %s: %w", s.path, err)
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		logger.Warnf("Arquivo de região %s ilegível, usando padrão: %v", s.path, err)
		return models.DefaultRegion(), nil
	}

	region := models.DefaultRegion()
	switch {
	case len(f.Polygon) == 4:
		region.Polygon = f.Polygon
	case f.Region != nil:
		region.Polygon = f.Region.corners()
	}
	region.QRPoint = f.QRPoint
	return region, nil
}

// Save valida e grava a região de forma atômica (arquivo temporário + rename)
func (s *Store) Save(region models.Region) error {
	if err := Validate(region); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.write(region)
}

// SetQRPoint grava o ponto QR preservando o polígono atual
func (s *Store) SetQRPoint(qr models.QRPoint) (models.Region, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	region, err := s.load()
	if err != nil {
		return region, err
	}
	region.QRPoint = &qr
	if err := s.write(region); err != nil {
		return region, err
	}
	return region, nil
}

func (s *Store) write(region models.Region) error {
	data, err := json.MarshalIndent(fileFormat{Polygon: region.Polygon, QRPoint: region.QRPoint}, "", "  ")
	if err != nil {
		return fmt.Errorf("erro ao serializar região: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("erro ao criar diretório %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".region-*.json")
	if err != nil {
		return fmt.Errorf("erro ao criar arquivo temporário: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("erro ao gravar região: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("erro ao gravar região: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("erro ao substituir %s: %w", s.path, err)
	}

	logger.Infof("Região salva em %s", s.path)
	return nil
}

// Validate exige quatro cantos com coordenadas geográficas válidas
func Validate(region models.Region) error {
	if len(region.Polygon) != 4 {
		return fmt.Errorf("%w: esperados 4 cantos, recebidos %d", ErrInvalidRegion, len(region.Polygon))
	}
	for i, p := range region.Polygon {
		if !validLatLon(p.Lat(), p.Lon()) {
			return fmt.Errorf("%w: canto %d fora do intervalo (%v, %v)", ErrInvalidRegion, i+1, p.Lat(), p.Lon())
		}
	}
	if q := region.QRPoint; q != nil && !validLatLon(q.Latitude, q.Longitude) {
		return fmt.Errorf("%w: ponto QR fora do intervalo", ErrInvalidRegion)
	}
	return nil
}

func validLatLon(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
