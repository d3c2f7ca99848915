package api

import (
	"net/http"
	"sort"
	"strings"

	"ufk_gcs/internal/redis"
	"ufk_gcs/pkg/logger"
)

// Route descreve um endpoint registrado; listado em GET <base>/routes
type Route struct {
	Path    string   `json:"path"`
	Methods []string `json:"methods"`
}

// Router monta a API REST do console sobre um ServeMux
type Router struct {
	handler  *Handler
	mux      *http.ServeMux
	basePath string
	chain    Middleware
	routes   []Route
}

// NewRouter cria o router; basePath é normalizado para "/x" sem barra final
func NewRouter(ctrl Controller, redisService *redis.Service, basePath string) *Router {
	basePath = strings.TrimSuffix(basePath, "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	return &Router{
		handler:  NewHandler(ctrl, redisService),
		mux:      http.NewServeMux(),
		basePath: basePath,
		chain:    Chain(RequestIDMiddleware, LoggingMiddleware, RecoveryMiddleware, CorsMiddleware),
	}
}

// Setup registra todos os endpoints
func (r *Router) Setup() {
	h := r.handler

	// Estado
	r.handle("/status", h.GetStatus, http.MethodGet)
	r.handle("/telemetry", h.GetTelemetry, http.MethodGet)
	r.handle("/competitors", h.GetCompetitors, http.MethodGet)
	r.handle("/region", h.HandleRegion, http.MethodGet, http.MethodPut)
	r.handle("/track", h.GetTrack, http.MethodGet)

	// Aeronave
	r.handle("/commands/mission", h.StartMission, http.MethodPost)
	r.handle("/commands/manual", h.ManualControl, http.MethodPost)
	r.handle("/commands/motor-test", h.MotorTest, http.MethodPost)
	r.handle("/link/restart", h.RestartLink, http.MethodPost)

	// Servidor de competição
	r.handle("/target-lock", h.HandleTargetLock, http.MethodGet, http.MethodPut)
	r.handle("/lock-info", h.SendLockInfo, http.MethodPost)
	r.handle("/kamikaze-info", h.SendKamikazeInfo, http.MethodPost)
	r.handle("/server-time", h.GetServerTime, http.MethodGet)

	r.mux.HandleFunc(r.path("/routes"), r.listRoutes)

	logger.Infof("API REST em %s com %d rotas", r.basePath, len(r.routes))
}

func (r *Router) handle(route string, fn http.HandlerFunc, methods ...string) {
	full := r.path(route)
	r.mux.Handle(full, fn)
	r.routes = append(r.routes, Route{Path: full, Methods: methods})
}

// Routes retorna os endpoints registrados ordenados por caminho
func (r *Router) Routes() []Route {
	out := append([]Route(nil), r.routes...)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (r *Router) listRoutes(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.handler.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}
	r.handler.respondWithJSON(w, http.StatusOK, r.Routes())
}

// Handler retorna o mux com a cadeia de middlewares aplicada uma única vez
func (r *Router) Handler() http.Handler {
	return r.chain(r.mux)
}

func (r *Router) path(route string) string {
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return r.basePath + route
}

// ServeHTTP permite usar o Router diretamente como http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Handler().ServeHTTP(w, req)
}
