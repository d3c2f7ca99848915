package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45s", FormatDuration(45*time.Second))
	assert.Equal(t, "2m 5s", FormatDuration(125*time.Second))
	assert.Equal(t, "1h 0m 1s", FormatDuration(time.Hour+time.Second))
	assert.Equal(t, "1s", FormatDuration(1400*time.Millisecond))
}

func TestUnixMillisRoundTrip(t *testing.T) {
	ts := time.Date(2026, 6, 1, 12, 30, 0, 123_000_000, time.UTC)
	ms := UnixMillis(ts)
	assert.Equal(t, int64(1780317000123), ms)
	assert.True(t, FromUnixMillis(ms).Equal(ts))
}

func TestTimeAgo(t *testing.T) {
	assert.Equal(t, "nunca", TimeAgo(time.Time{}))
	assert.Equal(t, "5 minutos atrás", TimeAgo(time.Now().Add(-5*time.Minute-time.Second)))
	assert.Equal(t, "3 horas atrás", TimeAgo(time.Now().Add(-3*time.Hour-time.Minute)))
}
