package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"ufk_gcs/pkg/logger"
)

// RequestIDHeader identifica a requisição nos logs e na resposta
const RequestIDHeader = "X-Request-ID"

// Middleware embrulha um http.Handler
type Middleware func(http.Handler) http.Handler

// Chain combina múltiplos middlewares em uma única função.
// O primeiro da lista é o mais externo.
func Chain(middlewares ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// RequestIDMiddleware reaproveita o X-Request-ID do cliente ou gera um novo
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)

		next.ServeHTTP(w, r)
	})
}

// LoggingMiddleware registra cada requisição com status e duração.
// Leituras do console são frequentes e ficam em DEBUG; comandos ficam em INFO.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)

		log := logger.Infof
		switch {
		case rw.status >= http.StatusInternalServerError:
			log = logger.Warnf
		case r.Method == http.MethodGet || r.Method == http.MethodOptions:
			log = logger.Debugf
		}
		log("%d %s %s %s [%s] (%.3fs)", rw.status, r.Method, r.URL.Path, r.RemoteAddr,
			r.Header.Get(RequestIDHeader), time.Since(start).Seconds())
	})
}

// RecoveryMiddleware transforma um panic do handler em 500
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Errorf("Panic capturado em %s %s: %v", r.Method, r.URL.Path, err)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"Erro interno"}`))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// CorsMiddleware adiciona cabeçalhos CORS à resposta
func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)
		w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder guarda o status escrito pelo handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
