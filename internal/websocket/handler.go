package websocket

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"ufk_gcs/pkg/logger"
	"ufk_gcs/pkg/utils"
)

// Número máximo de consoles conectados ao mesmo tempo
const maxConsoles = 16

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// O console roda na rede local da estação
	CheckOrigin: func(*http.Request) bool { return true },
}

// Handler aceita conexões de console e as entrega ao Hub
type Handler struct {
	hub *Hub
}

// NewHandler cria o handler de conexões de console
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// ServeHTTP faz o upgrade e registra o console no hub
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.hub.ClientCount() >= maxConsoles {
		logger.Warnf("Console recusado: limite de %d conexões atingido", maxConsoles)
		http.Error(w, "limite de consoles atingido", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("Upgrade do console falhou: %v", err)
		return
	}

	addr := clientAddress(r)
	logger.Infof("Console conectado de %s (%s)", addr, r.UserAgent())

	client := newClient(h.hub, conn, r.UserAgent(), addr)
	select {
	case h.hub.register <- client:
	case <-h.hub.ctx.Done():
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// clientAddress usa o primeiro salto de X-Forwarded-For, depois X-Real-IP e por fim RemoteAddr
func clientAddress(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// consoleHealth é a resposta de /ws/health
type consoleHealth struct {
	Status        string    `json:"status"`
	Consoles      int       `json:"consoles"`
	MaxConsoles   int       `json:"maxConsoles"`
	LastTelemetry string    `json:"lastTelemetry"`
	Timestamp     time.Time `json:"timestamp"`
}

// GetHealthHandler informa quantos consoles estão conectados e quando a última
// telemetria foi repassada
func (h *Handler) GetHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := consoleHealth{
			Status:        "ok",
			Consoles:      h.hub.ClientCount(),
			MaxConsoles:   maxConsoles,
			LastTelemetry: utils.TimeAgo(h.hub.LastTelemetry()),
			Timestamp:     time.Now(),
		}
		if health.Consoles >= maxConsoles {
			health.Status = "full"
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(health); err != nil {
			logger.Debugf("Falha ao responder /ws/health: %v", err)
		}
	}
}
