package competition

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufk_gcs/internal/models"
)

func TestClient_LoginKeepsSessionCookie(t *testing.T) {
	fs := newFakeServer(t)
	c := fs.client(t)
	ctx := context.Background()

	require.NoError(t, c.Login(ctx, "takim", "sifre"))

	qr, err := c.QRCoordinate(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.QRCoordinate{Latitude: 41.02, Longitude: 28.96}, qr)

	circles, err := c.NoFlyCircles(ctx)
	require.NoError(t, err)
	require.Len(t, circles, 1)
	assert.Equal(t, 50.0, circles[0].Radius)
}

func TestClient_LoginFailureCarriesBody(t *testing.T) {
	fs := newFakeServer(t)
	c := fs.client(t)

	err := c.Login(context.Background(), "", "")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, statusErr.Error(), "şifre hatalı")
}

func TestClient_FetchWithoutLoginFails(t *testing.T) {
	fs := newFakeServer(t)
	c := fs.client(t)

	_, err := c.QRCoordinate(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestClient_SubmitTelemetry(t *testing.T) {
	fs := newFakeServer(t)
	fs.setCompetitors([]CompetitorSample{{TeamID: 2, Latitude: 41, Longitude: 29, Heading: 90}})
	c := fs.client(t)
	ctx := context.Background()
	require.NoError(t, c.Login(ctx, "takim", "sifre"))

	samples, err := c.SubmitTelemetry(ctx, Submission{TeamID: 4, Latitude: 41.01})
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 2, samples[0].TeamID)

	sub, ok := fs.lastSubmission()
	require.True(t, ok)
	assert.Equal(t, 4, sub.TeamID)
	assert.Equal(t, 41.01, sub.Latitude)
}

func TestClient_ServerTimeAndLockInfo(t *testing.T) {
	fs := newFakeServer(t)
	c := fs.client(t)
	ctx := context.Background()

	st, err := c.ServerTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, st.Minute)

	assert.NoError(t, c.SendLockInfo(ctx, models.LockInfo{Automatic: 1}))
}

func TestClient_UnreachableServer(t *testing.T) {
	fs := newFakeServer(t)
	c := fs.client(t)
	fs.Close()

	assert.Error(t, c.Login(context.Background(), "takim", "sifre"))
}
