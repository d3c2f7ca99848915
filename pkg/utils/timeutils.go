package utils

import (
	"fmt"
	"time"
)

// FormatDuration formata uma duração para exibição amigável
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour

	m := d / time.Minute
	d -= m * time.Minute

	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	} else if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// UnixMillis converte um time.Time para milissegundos Unix, o formato usado
// no Redis e nas mensagens de ping do console
func UnixMillis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

// FromUnixMillis é o inverso de UnixMillis
func FromUnixMillis(ms int64) time.Time {
	return time.Unix(0, ms*int64(time.Millisecond))
}

// TimeAgo descreve quanto tempo passou desde t; zero vira "nunca"
func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return "nunca"
	}

	seconds := int(time.Since(t).Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%d segundos atrás", seconds)
	}

	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%d minutos atrás", minutes)
	}

	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%d horas atrás", hours)
	}

	return fmt.Sprintf("%d dias atrás", hours/24)
}
