package competition

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ufk_gcs/internal/config"
	"ufk_gcs/internal/models"
)

const sessionCookie = "session"

// fakeServer imita o servidor de competição
type fakeServer struct {
	*httptest.Server

	mu          sync.Mutex
	submissions []Submission
	submitCode  int
	loginCode   int
	competitors []CompetitorSample

	submitHits atomic.Int32
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	fs := &fakeServer{submitCode: http.StatusOK, loginCode: http.StatusOK}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)

		fs.mu.Lock()
		code := fs.loginCode
		fs.mu.Unlock()

		if code != http.StatusOK || body["username"] == "" {
			http.Error(w, "kullanıcı adı veya şifre hatalı", http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "abc", Path: "/"})
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	})

	mux.HandleFunc("/api/qr-coordinate", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(models.QRCoordinate{Latitude: 41.02, Longitude: 28.96})
	})

	mux.HandleFunc("/api/no-fly-circles", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode([]models.NoFlyCircle{{Latitude: 41.015, Longitude: 28.955, Radius: 50}})
	})

	mux.HandleFunc("/api/server-time", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.ServerTime{Hour: 12, Minute: 30, Second: 15, Millisecond: 250})
	})

	mux.HandleFunc("/api/lock-info", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})

	mux.HandleFunc("/api/telemetry-submit", func(w http.ResponseWriter, r *http.Request) {
		fs.submitHits.Add(1)
		if !authorized(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var sub Submission
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		fs.mu.Lock()
		fs.submissions = append(fs.submissions, sub)
		code := fs.submitCode
		competitors := fs.competitors
		fs.mu.Unlock()

		if code != http.StatusOK {
			http.Error(w, "sunucu hatası", code)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"competitors": competitors})
	})

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func authorized(r *http.Request) bool {
	c, err := r.Cookie(sessionCookie)
	return err == nil && c.Value == "abc"
}

func (fs *fakeServer) setSubmitCode(code int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.submitCode = code
}

func (fs *fakeServer) setCompetitors(c []CompetitorSample) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.competitors = c
}

func (fs *fakeServer) lastSubmission() (Submission, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if len(fs.submissions) == 0 {
		return Submission{}, false
	}
	return fs.submissions[len(fs.submissions)-1], true
}

func (fs *fakeServer) config() config.CompetitionConfig {
	return config.CompetitionConfig{
		BaseURL:       fs.URL,
		Username:      "takim",
		Password:      "sifre",
		TeamID:        4,
		Period:        20 * time.Millisecond,
		LoginTimeout:  time.Second,
		FetchTimeout:  time.Second,
		SubmitTimeout: time.Second,
		Alpha:         0.1,
	}
}

func (fs *fakeServer) client(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(fs.config())
	require.NoError(t, err)
	return c
}
