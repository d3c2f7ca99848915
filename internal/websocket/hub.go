package websocket

import (
	"context"
	"errors"
	"sync"
	"time"

	"ufk_gcs/internal/models"
	"ufk_gcs/pkg/logger"
	"ufk_gcs/pkg/utils"
)

// Intervalo mínimo entre duas mensagens de telemetria para o console
const telemetryMinInterval = 50 * time.Millisecond

// ErrNoCommandSink indica que nenhum destino de comandos foi configurado
var ErrNoCommandSink = errors.New("nenhum destino de comandos configurado")

// CommandSink executa os comandos recebidos do console.
// O valor devolvido é enviado ao cliente como resposta.
type CommandSink interface {
	HandleCommand(ctx context.Context, cmd models.ClientCommand) (interface{}, error)
}

// Hub gerencia todas as conexões WebSocket e distribuição de mensagens
type Hub struct {
	// Clientes registrados
	clients map[*Client]bool

	// Canal para registrar clientes
	register chan *Client

	// Canal para desregistrar clientes
	unregister chan *Client

	// Canal para mensagens de broadcast
	broadcast chan []byte

	// Comando recebido dos clientes
	commands chan models.ClientCommand

	// Mutex para operações concorrentes no mapa de clientes
	mu sync.RWMutex

	// Destino dos comandos
	sink     CommandSink
	sinkLock sync.RWMutex

	// Última telemetria enviada (para limitar a taxa)
	lastTelemetryTime time.Time
	telemetryLock     sync.Mutex

	// Estatísticas
	stats struct {
		totalMessages      int64
		totalClients       int64
		messagesPerSecond  float64
		lastStatsReset     time.Time
		messagesSinceReset int64
	}
	statsLock sync.Mutex

	// Sinal para encerramento do hub
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub cria uma nova instância do Hub
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		commands:   make(chan models.ClientCommand, 100),
		ctx:        ctx,
		cancel:     cancel,
	}

	h.stats.lastStatsReset = time.Now()

	return h
}

// SetCommandSink define quem executa os comandos do console
func (h *Hub) SetCommandSink(sink CommandSink) {
	h.sinkLock.Lock()
	defer h.sinkLock.Unlock()
	h.sink = sink
}

// Run inicia o loop principal do hub para gerenciar clientes e mensagens
func (h *Hub) Run() {
	logger.Info("Iniciando WebSocket Hub")

	// Ticker para estatísticas periódicas
	statsTicker := time.NewTicker(30 * time.Second)
	defer statsTicker.Stop()

	// Ticker de ping para manter conexões ativas
	pingTicker := time.NewTicker(5 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			logger.Info("Encerrando WebSocket Hub")
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()

			logger.Infof("Novo cliente WebSocket conectado. ID: %s. Total: %d", client.id, clientCount)

			h.statsLock.Lock()
			h.stats.totalClients++
			h.statsLock.Unlock()

			go h.sendWelcome(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)

				logger.Infof("Cliente WebSocket desconectado. ID: %s. Total: %d", client.id, len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			clientCount := len(h.clients)

			h.statsLock.Lock()
			h.stats.totalMessages++
			h.stats.messagesSinceReset++
			h.statsLock.Unlock()

			if clientCount == 0 {
				h.mu.RUnlock()
				continue
			}

			deadClients := make([]*Client, 0, 4)
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Canal do cliente está cheio, marcar para desconexão
					deadClients = append(deadClients, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range deadClients {
				h.removeClient(client)
			}

		case cmd := <-h.commands:
			go h.handleClientCommand(cmd)

		case <-statsTicker.C:
			h.statsLock.Lock()
			elapsed := time.Since(h.stats.lastStatsReset).Seconds()
			if elapsed > 0 {
				h.stats.messagesPerSecond = float64(h.stats.messagesSinceReset) / elapsed
			}
			h.stats.messagesSinceReset = 0
			h.stats.lastStatsReset = time.Now()
			mps := h.stats.messagesPerSecond
			total := h.stats.totalMessages
			h.statsLock.Unlock()

			logger.Debugf("Estatísticas WebSocket: %d clientes, %.2f msgs/seg, total: %d mensagens",
				h.ClientCount(), mps, total)

		case <-pingTicker.C:
			h.sendPingToAllClients()
		}
	}
}

// BroadcastTelemetry envia a telemetria e a pose da aeronave.
// Atualizações a menos de 50ms da anterior são descartadas.
func (h *Hub) BroadcastTelemetry(snap models.TelemetrySnapshot) {
	h.telemetryLock.Lock()
	if time.Since(h.lastTelemetryTime) < telemetryMinInterval {
		h.telemetryLock.Unlock()
		return
	}
	h.lastTelemetryTime = time.Now()
	h.telemetryLock.Unlock()

	h.broadcastMessage(models.MessageTelemetry, snap)
	h.broadcastMessage(models.MessageVehicle, snap.Pose())
}

// LastTelemetry retorna quando a última telemetria foi repassada (zero se nunca)
func (h *Hub) LastTelemetry() time.Time {
	h.telemetryLock.Lock()
	defer h.telemetryLock.Unlock()
	return h.lastTelemetryTime
}

// BroadcastStatus envia o estado do link com a aeronave
func (h *Hub) BroadcastStatus(status models.LinkStatus) {
	h.broadcastMessage(models.MessageStatus, status)
}

// BroadcastSync envia o estado da sincronização com o servidor
func (h *Hub) BroadcastSync(status models.SyncStatus) {
	h.broadcastMessage(models.MessageSync, status)
}

// BroadcastCompetitors envia a lista filtrada de adversários
func (h *Hub) BroadcastCompetitors(roster []models.CompetitorRecord) {
	if roster == nil {
		roster = []models.CompetitorRecord{}
	}
	h.broadcastMessage(models.MessageCompetitors, roster)
}

// BroadcastMissionData envia ponto QR e zonas de exclusão
func (h *Hub) BroadcastMissionData(data models.MissionData) {
	h.broadcastMessage(models.MessageMissionData, data)
}

// BroadcastRegion envia a região de competição
func (h *Hub) BroadcastRegion(region models.Region) {
	h.broadcastMessage(models.MessageRegion, region)
}

// BroadcastError envia um erro para todos os clientes
func (h *Hub) BroadcastError(source, message string) {
	if jsonMessage, err := SerializeMessage(NewErrorMessage(message, source, "")); err == nil {
		h.enqueueBroadcast(jsonMessage)
	} else {
		logger.Error("Erro ao serializar mensagem de erro", err)
	}
}

func (h *Hub) broadcastMessage(msgType string, data interface{}) {
	message := models.WebSocketMessage{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}

	if jsonMessage, err := SerializeMessage(message); err == nil {
		h.enqueueBroadcast(jsonMessage)
	} else {
		logger.Errorf("Erro ao serializar mensagem %s: %v", msgType, err)
	}
}

func (h *Hub) enqueueBroadcast(message []byte) {
	select {
	case h.broadcast <- message:
	case <-h.ctx.Done():
	}
}

// handleClientCommand repassa o comando ao CommandSink e responde ao cliente
func (h *Hub) handleClientCommand(cmd models.ClientCommand) {
	logger.Infof("Comando recebido do cliente %s: %s", cmd.ClientID, cmd.Command)

	h.sinkLock.RLock()
	sink := h.sink
	h.sinkLock.RUnlock()

	if sink == nil {
		h.sendToClient(cmd.ClientID, NewErrorMessage(ErrNoCommandSink.Error(), "command", cmd.RequestID))
		return
	}

	result, err := sink.HandleCommand(h.ctx, cmd)
	if err != nil {
		logger.Warnf("Comando %s do cliente %s recusado: %v", cmd.Command, cmd.ClientID, err)
		h.sendToClient(cmd.ClientID, NewErrorMessage(err.Error(), "command", cmd.RequestID))
		return
	}

	if cmd.Command == models.CommandGetStatus {
		h.sendToClient(cmd.ClientID, models.WebSocketMessage{
			Type:      models.MessageStatus,
			Timestamp: time.Now(),
			Data:      result,
		})
		return
	}
	h.sendToClient(cmd.ClientID, NewAckMessage(cmd, result))
}

// sendToClient envia uma mensagem apenas ao cliente indicado, sem bloquear
func (h *Hub) sendToClient(clientID string, message interface{}) {
	jsonMsg, err := SerializeMessage(message)
	if err != nil {
		logger.Error("Erro ao serializar resposta", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.id != clientID {
			continue
		}
		select {
		case client.send <- jsonMsg:
		default:
			logger.Warnf("Buffer do cliente %s cheio, resposta descartada", clientID)
		}
		return
	}
}

// sendWelcome envia a mensagem de boas-vindas a um novo cliente
func (h *Hub) sendWelcome(client *Client) {
	welcome := models.WebSocketMessage{
		Type:      models.MessageWelcome,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"message":  "Conectado à estação de solo UFK",
			"clientId": client.id,
		},
	}
	h.sendToClient(client.id, welcome)
}

// removeClient desregistra um cliente sem depender do loop do hub
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		logger.Warnf("Cliente WebSocket %s removido por buffer cheio", client.id)
	}
}

// Shutdown encerra graciosamente o hub
func (h *Hub) Shutdown() {
	h.cancel()
	// Aguardar um pequeno tempo para processamento finalizar
	time.Sleep(100 * time.Millisecond)
}

// closeAllClients fecha todas as conexões dos clientes
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	logger.Info("Fechando todas as conexões de clientes WebSocket")
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// ClientCount retorna o número atual de clientes conectados
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// sendPingToAllClients envia ping para todos os clientes
func (h *Hub) sendPingToAllClients() {
	if h.ClientCount() == 0 {
		return
	}

	ping := models.PingMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      models.MessagePing,
			Timestamp: time.Now(),
		},
		Time: utils.UnixMillis(time.Now()),
	}

	if jsonMsg, err := SerializeMessage(ping); err == nil {
		select {
		case h.broadcast <- jsonMsg:
		default:
		}
	}
}
