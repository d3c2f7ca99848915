package websocket

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"ufk_gcs/internal/models"
	"ufk_gcs/pkg/logger"
	"ufk_gcs/pkg/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10 // precisa ser menor que pongWait
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

// Client é um console conectado. O hub escreve em send; writePump é o único
// que escreve na conexão.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	id          string
	userAgent   string
	ipAddress   string
	connectedAt time.Time
}

func newClient(hub *Hub, conn *websocket.Conn, userAgent, ipAddress string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		id:          uuid.New().String(),
		userAgent:   userAgent,
		ipAddress:   ipAddress,
		connectedAt: time.Now(),
	}
}

// readPump lê comandos do console até a conexão cair e então se desregistra
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		c.conn.Close()
		logger.Debugf("Cliente %s (%s) ficou conectado por %s", c.id, c.ipAddress, utils.FormatDuration(time.Since(c.connectedAt)))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warnf("Console %s desconectou com erro: %v", c.id, err)
			}
			return
		}
		c.processIncomingMessage(message)
	}
}

// writePump envia as mensagens do hub e os pings de keepalive.
// Cada mensagem vai num quadro próprio para o console poder decodificar JSON direto.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processIncomingMessage responde ping localmente e repassa o resto ao hub
func (c *Client) processIncomingMessage(message []byte) {
	var cmd models.CommandMessage
	decoder := json.NewDecoder(bytes.NewReader(message))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&cmd); err != nil {
		logger.Warnf("Erro ao decodificar mensagem do cliente %s: %v", c.id, err)
		c.hub.sendToClient(c.id, newCodedErrorMessage("invalid_format", "Formato de mensagem inválido"))
		return
	}

	switch cmd.Type {
	case models.CommandPing:
		c.handlePing(cmd)
	case "":
		c.hub.sendToClient(c.id, newCodedErrorMessage("missing_type", "Campo type obrigatório"))
	default:
		command := models.ClientCommand{
			Command:   cmd.Type,
			Params:    cmd.Params,
			RequestID: cmd.ID,
			ClientID:  c.id,
		}
		select {
		case c.hub.commands <- command:
		default:
			logger.Warnf("Fila de comandos do console cheia, comando %s descartado", cmd.Type)
			c.hub.sendToClient(c.id, NewErrorMessage("fila de comandos cheia", "command", cmd.ID))
		}
	}
}

// handlePing responde localmente com pong
func (c *Client) handlePing(cmd models.CommandMessage) {
	var ping struct {
		Time int64 `json:"time"`
	}
	if len(cmd.Params) > 0 {
		if err := json.Unmarshal(cmd.Params, &ping); err != nil {
			logger.Debugf("Ping do cliente %s com parâmetros inválidos: %v", c.id, err)
		}
	}

	c.hub.sendToClient(c.id, CreatePongResponse(ping.Time))
}
