package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ufk_gcs/internal/config"
	"ufk_gcs/internal/models"
	"ufk_gcs/internal/redis"
	"ufk_gcs/internal/region"
	"ufk_gcs/internal/vehicle"
)

type fakeController struct {
	mu        sync.Mutex
	snap      models.TelemetrySnapshot
	hasSnap   bool
	roster    []models.CompetitorRecord
	region    models.Region
	lock      models.TargetLock
	submitted []models.Command
	submitErr error
	lockInfo  []models.LockInfo
	lockErr   error
	kamikaze  []string
	restarts  int
}

func (f *fakeController) Status() models.SystemStatus {
	return models.SystemStatus{Link: models.LinkStatus{State: "live"}, TargetLock: f.TargetLock()}
}

func (f *fakeController) Telemetry() (models.TelemetrySnapshot, bool) { return f.snap, f.hasSnap }

func (f *fakeController) Competitors() []models.CompetitorRecord { return f.roster }

func (f *fakeController) Region() models.Region { return f.region }

func (f *fakeController) SaveRegion(r models.Region) (models.Region, error) {
	if err := region.Validate(r); err != nil {
		return models.Region{}, err
	}
	f.region = r
	return r, nil
}

func (f *fakeController) Submit(cmd models.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, cmd)
	return nil
}

func (f *fakeController) TargetLock() models.TargetLock {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lock
}

func (f *fakeController) SetTargetLock(l models.TargetLock) error {
	if err := l.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lock = l
	return nil
}

func (f *fakeController) SendLockInfo(_ context.Context, info models.LockInfo) error {
	f.lockInfo = append(f.lockInfo, info)
	return f.lockErr
}

func (f *fakeController) SendKamikazeInfo(_ context.Context, text string) error {
	f.kamikaze = append(f.kamikaze, text)
	return nil
}

func (f *fakeController) ServerTime(_ context.Context) (models.ServerTime, error) {
	return models.ServerTime{Hour: 13, Minute: 4, Second: 5, Millisecond: 600}, nil
}

func (f *fakeController) RestartLink() error {
	f.restarts++
	return nil
}

func newTestRouter(t *testing.T, ctrl Controller) http.Handler {
	t.Helper()
	redisService, err := redis.NewService(config.RedisConfig{})
	require.NoError(t, err)

	router := NewRouter(ctrl, redisService, "/api")
	router.Setup()
	return router.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGetStatus(t *testing.T) {
	h := newTestRouter(t, &fakeController{lock: models.DefaultTargetLock()})

	rec := do(t, h, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var status models.SystemStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "live", status.Link.State)
	assert.Equal(t, 300, status.TargetLock.CenterX)

	rec = do(t, h, http.MethodPost, "/api/status", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGetTelemetry(t *testing.T) {
	ctrl := &fakeController{}
	h := newTestRouter(t, ctrl)

	rec := do(t, h, http.MethodGet, "/api/telemetry", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ctrl.snap = models.NewTelemetrySnapshot()
	ctrl.snap.Satellites = 12
	ctrl.hasSnap = true

	rec = do(t, h, http.MethodGet, "/api/telemetry", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.TelemetrySnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 12, got.Satellites)
}

func TestGetCompetitors_EmptyIsArray(t *testing.T) {
	h := newTestRouter(t, &fakeController{})

	rec := do(t, h, http.MethodGet, "/api/competitors", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRegion_GetAndPut(t *testing.T) {
	ctrl := &fakeController{region: models.DefaultRegion()}
	h := newTestRouter(t, ctrl)

	rec := do(t, h, http.MethodGet, "/api/region", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "41.03")

	body := `{"polygon":[[40,29],[40,29.1],[39.9,29.1],[39.9,29]]}`
	rec = do(t, h, http.MethodPut, "/api/region", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 40.0, ctrl.region.Polygon[0].Lat())

	rec = do(t, h, http.MethodPut, "/api/region", `{"polygon":[[40,29]]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/region", `{"polygon":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommands_Queued(t *testing.T) {
	ctrl := &fakeController{}
	h := newTestRouter(t, ctrl)

	rec := do(t, h, http.MethodPost, "/api/commands/mission", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/commands/manual", `{"pitch":0.5,"roll":-0.5,"throttle":0,"yaw":0}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/commands/motor-test", `{"motor_id":4}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/commands/motor-test", `{"motor_id":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Len(t, ctrl.submitted, 3)
	assert.Equal(t, models.StartMission{}, ctrl.submitted[0])
	assert.Equal(t, models.ManualControl{Pitch: 0.5, Roll: -0.5}, ctrl.submitted[1])
	assert.Equal(t, models.MotorTest{MotorID: 4}, ctrl.submitted[2])

	rec = do(t, h, http.MethodGet, "/api/commands/mission", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCommands_ManualControlOutOfRange(t *testing.T) {
	ctrl := &fakeController{}
	h := newTestRouter(t, ctrl)

	rec := do(t, h, http.MethodPost, "/api/commands/manual", `{"pitch":5,"roll":-40,"throttle":1,"yaw":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "pitch")
	assert.Empty(t, ctrl.submitted)
}

func TestCommands_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{vehicle.ErrQueueFull, http.StatusServiceUnavailable},
		{vehicle.ErrNotConnected, http.StatusConflict},
		{errors.New("qualquer"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		h := newTestRouter(t, &fakeController{submitErr: tc.err})
		rec := do(t, h, http.MethodPost, "/api/commands/mission", "")
		assert.Equal(t, tc.code, rec.Code, tc.err.Error())
	}
}

func TestTargetLock_PartialUpdate(t *testing.T) {
	ctrl := &fakeController{lock: models.DefaultTargetLock()}
	h := newTestRouter(t, ctrl)

	rec := do(t, h, http.MethodPut, "/api/target-lock", `{"target_locked":0}`)
	require.Equal(t, http.StatusOK, rec.Code)

	lock := ctrl.TargetLock()
	assert.Equal(t, 0, lock.Locked)
	assert.Equal(t, 1, lock.Autonomous)
	assert.Equal(t, 43, lock.Height)

	rec = do(t, h, http.MethodGet, "/api/target-lock", "")
	assert.JSONEq(t, `{"target_locked":0,"autonomous":1,"target_center_x":300,"target_center_y":230,"target_width":30,"target_height":43}`, rec.Body.String())
}

func TestTargetLock_RejectsNonBinaryFlags(t *testing.T) {
	ctrl := &fakeController{lock: models.DefaultTargetLock()}
	h := newTestRouter(t, ctrl)

	rec := do(t, h, http.MethodPut, "/api/target-lock", `{"target_locked":7}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/target-lock", `{"autonomous":-3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, models.DefaultTargetLock(), ctrl.TargetLock())
}

func TestLockInfo(t *testing.T) {
	ctrl := &fakeController{}
	h := newTestRouter(t, ctrl)

	body := `{"start":{"hour":10,"minute":1,"second":2,"millisecond":3},"end":{"hour":10,"minute":1,"second":7,"millisecond":0},"automatic":1}`
	rec := do(t, h, http.MethodPost, "/api/lock-info", body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ctrl.lockInfo, 1)
	assert.Equal(t, 7, ctrl.lockInfo[0].End.Second)

	ctrl.lockErr = errors.New("servidor fora do ar")
	rec = do(t, h, http.MethodPost, "/api/lock-info", body)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestRestartLink(t *testing.T) {
	ctrl := &fakeController{}
	h := newTestRouter(t, ctrl)

	rec := do(t, h, http.MethodPost, "/api/link/restart", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, ctrl.restarts)
}

func TestTrack_RedisDisabled(t *testing.T) {
	h := newTestRouter(t, &fakeController{})

	rec := do(t, h, http.MethodGet, "/api/track", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCorsPreflight(t *testing.T) {
	h := newTestRouter(t, &fakeController{})

	rec := do(t, h, http.MethodOptions, "/api/commands/mission", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestKamikazeInfo(t *testing.T) {
	ctrl := &fakeController{}
	h := newTestRouter(t, ctrl)

	rec := do(t, h, http.MethodPost, "/api/kamikaze-info", `{"kamikaze_info":"TEKNOFEST"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"TEKNOFEST"}, ctrl.kamikaze)

	rec = do(t, h, http.MethodPost, "/api/kamikaze-info", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServerTime(t *testing.T) {
	h := newTestRouter(t, &fakeController{})

	rec := do(t, h, http.MethodGet, "/api/server-time", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"hour":13,"minute":4,"second":5,"millisecond":600}`, rec.Body.String())
}

func TestRoutesListing(t *testing.T) {
	h := newTestRouter(t, &fakeController{})

	rec := do(t, h, http.MethodGet, "/api/routes", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var routes []Route
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &routes))
	require.NotEmpty(t, routes)
	assert.Contains(t, routes, Route{Path: "/api/region", Methods: []string{http.MethodGet, http.MethodPut}})
	assert.Contains(t, routes, Route{Path: "/api/link/restart", Methods: []string{http.MethodPost}})
	for i := 1; i < len(routes); i++ {
		assert.Less(t, routes[i-1].Path, routes[i].Path)
	}
}
