package competition

import (
	"sort"

	"ufk_gcs/internal/models"
)

// DefaultAlpha é o peso da amostra nova no filtro exponencial
const DefaultAlpha = 0.1

// Tracker suaviza a posição de cada adversário com média móvel exponencial.
// Cada equipe tem seu próprio estado; equipes ausentes numa resposta mantêm
// o último valor filtrado. Não é seguro para uso concorrente: pertence à
// goroutine do Worker.
type Tracker struct {
	alpha   float64
	records map[int]models.CompetitorRecord
}

// NewTracker cria um Tracker; alpha fora de (0, 1] usa DefaultAlpha
func NewTracker(alpha float64) *Tracker {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultAlpha
	}
	return &Tracker{
		alpha:   alpha,
		records: make(map[int]models.CompetitorRecord),
	}
}

// Alpha retorna o peso em uso
func (t *Tracker) Alpha() float64 { return t.alpha }

// Update incorpora as amostras brutas e devolve a lista completa ordenada por equipe.
// Na primeira aparição o valor filtrado é a própria amostra. O rumo é suavizado
// linearmente, sem correção na passagem por 0/360.
func (t *Tracker) Update(samples []models.CompetitorRecord) []models.CompetitorRecord {
	for _, s := range samples {
		prev, seen := t.records[s.TeamID]

		rec := models.CompetitorRecord{
			TeamID:   s.TeamID,
			Raw:      s.Raw,
			Altitude: s.Altitude,
			Speed:    s.Speed,
		}
		if !seen {
			rec.Filtered = s.Raw
		} else {
			rec.Filtered = models.GeoHeading{
				Latitude:  t.smooth(prev.Filtered.Latitude, s.Raw.Latitude),
				Longitude: t.smooth(prev.Filtered.Longitude, s.Raw.Longitude),
				Heading:   t.smooth(prev.Filtered.Heading, s.Raw.Heading),
			}
		}
		t.records[s.TeamID] = rec
	}
	return t.Roster()
}

// Roster devolve uma cópia de todas as equipes já vistas, ordenada por equipe
func (t *Tracker) Roster() []models.CompetitorRecord {
	out := make([]models.CompetitorRecord, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out
}

func (t *Tracker) smooth(old, raw float64) float64 {
	return old*(1-t.alpha) + raw*t.alpha
}
