package vehicle

import (
	"sync"
	"time"

	"ufk_gcs/internal/models"
)

// Store guarda o último snapshot de telemetria.
// Escrito só pela goroutine da sessão; lido pelo console e pelo worker de sincronização.
type Store struct {
	mu        sync.RWMutex
	snapshot  models.TelemetrySnapshot
	published bool
	now       func() time.Time
}

// NewStore cria um Store com o snapshot provisório
func NewStore() *Store {
	return &Store{
		snapshot: models.NewTelemetrySnapshot(),
		now:      time.Now,
	}
}

// Reset volta ao snapshot provisório (início de uma nova sessão)
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot = models.NewTelemetrySnapshot()
	s.published = false
}

// Apply decodifica o quadro sobre o snapshot atual.
// Retorna uma cópia do novo estado e se ele deve ser republicado.
func (s *Store) Apply(f Frame) (models.TelemetrySnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := Apply(s.snapshot, f)
	if changed {
		next.UpdatedAt = s.now()
		s.published = true
	}
	s.snapshot = next
	return s.snapshot.Clone(), changed
}

// Latest retorna uma cópia do snapshot. O bool é falso enquanto nenhum quadro
// de telemetria tiver chegado.
func (s *Store) Latest() (models.TelemetrySnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.snapshot.Clone(), s.published
}

// Snapshot retorna a cópia do snapshot atual, mesmo que ainda provisório
func (s *Store) Snapshot() models.TelemetrySnapshot {
	snap, _ := s.Latest()
	return snap
}
