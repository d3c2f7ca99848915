package server

import (
	"encoding/json"
	"net/http"
	"time"

	"ufk_gcs/internal/api"
	"ufk_gcs/internal/discovery"
	"ufk_gcs/internal/websocket"
	"ufk_gcs/pkg/logger"
	"ufk_gcs/pkg/utils"
)

// setupRoutes configura todas as rotas do servidor
func (s *Server) setupRoutes() {
	wsHandler := websocket.NewHandler(s.wsHub)
	apiRouter := api.NewRouter(s.station, s.redisService, "/api")
	apiRouter.Setup()

	// Endpoint de saúde
	s.router.HandleFunc("/health", s.healthHandler)

	// Endpoint de informações do servidor
	s.router.HandleFunc("/info", s.infoHandler)

	// Endpoint de descoberta manual
	s.router.HandleFunc("/discover", s.discoverHandler)

	// WebSocket
	s.router.Handle("/ws", wsHandler)
	s.router.HandleFunc("/ws/health", wsHandler.GetHealthHandler())

	// API REST (middlewares do pacote api)
	s.router.Handle("/api/", apiRouter.Handler())

	// Console estático (opcional)
	fs := http.FileServer(http.Dir("./static"))
	s.router.Handle("/", fs)
}

// healthHandler responde com o status de saúde do servidor
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	status := s.station.Status()

	redisStatus := "disabled"
	if s.config.Redis.Enabled {
		redisStatus = "offline"
		if s.redisService != nil && s.redisService.IsConnected() {
			redisStatus = "ok"
		}
	}

	discoveryStatus := "disabled"
	if s.advertiser != nil {
		discoveryStatus = "offline"
		if s.advertiser.Running() {
			discoveryStatus = "ok"
		}
	}

	lastTelemetry := "nunca"
	if snap, ok := s.station.Telemetry(); ok {
		lastTelemetry = utils.TimeAgo(snap.UpdatedAt)
	}

	response := map[string]interface{}{
		"status":        "ok",
		"timestamp":     time.Now(),
		"lastTelemetry": lastTelemetry,
		"services": map[string]string{
			"link":      status.Link.State,
			"sync":      status.Sync.State,
			"redis":     redisStatus,
			"websocket": "ok",
			"discovery": discoveryStatus,
		},
	}

	// Link em falha ou sincronização parada degradam o status geral
	if status.Link.State == "failed" || status.Sync.State == "stopped" {
		response["status"] = "degraded"
	}

	json.NewEncoder(w).Encode(response)
}

// infoHandler retorna informações básicas sobre o servidor
func (s *Server) infoHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	info := s.GetServerInfo()

	response := map[string]interface{}{
		"name":        discovery.ServiceName,
		"version":     info.Version,
		"ip":          info.IP,
		"port":        info.Port,
		"websocket":   info.WebSocketURL,
		"api":         info.APIURL,
		"link":        info.Link,
		"competition": s.config.Competition.BaseURL,
		"teamId":      s.config.Competition.TeamID,
		"startTime":   info.StartTime,
		"uptime":      utils.FormatDuration(time.Since(info.StartTime)),
		"connections": info.Connections,
	}

	json.NewEncoder(w).Encode(response)
}

// Tempo de escuta do mDNS em /discover?peers=1
const peerBrowseWait = time.Second

// discoverHandler descreve esta estação e, com ?peers=1, lista as outras
// estações anunciadas na rede
func (s *Server) discoverHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	info := s.GetServerInfo()

	response := map[string]interface{}{
		"name":        discovery.ServiceName,
		"ip":          info.IP,
		"port":        info.Port,
		"wsUrl":       info.WebSocketURL,
		"apiUrl":      info.APIURL,
		"version":     info.Version,
		"teamId":      s.config.Competition.TeamID,
		"wsEndpoint":  "/ws",
		"apiEndpoint": "/api",
	}

	if r.URL.Query().Get("peers") == "1" && s.advertiser != nil {
		peers, err := s.advertiser.Browse(r.Context(), peerBrowseWait)
		if err != nil {
			logger.Warnf("Busca de estações falhou: %v", err)
		}
		if peers == nil {
			peers = []discovery.Peer{}
		}
		response["peers"] = peers
	}

	json.NewEncoder(w).Encode(response)
}
