package websocket

import (
	"encoding/json"
	"time"

	"ufk_gcs/internal/models"
	"ufk_gcs/pkg/utils"
)

// Funções utilitárias para criação e processamento de mensagens WebSocket

// NewErrorMessage cria uma nova mensagem de erro
func NewErrorMessage(message, source, requestID string) models.WebSocketMessage {
	return models.WebSocketMessage{
		Type:      models.MessageError,
		Timestamp: time.Now(),
		Error:     message,
		Data:      models.ErrorPayload{Source: source, RequestID: requestID},
	}
}

// newCodedErrorMessage é usada para erros de protocolo do próprio cliente
func newCodedErrorMessage(code, message string) models.WebSocketMessage {
	return models.WebSocketMessage{
		Type:      models.MessageError,
		Timestamp: time.Now(),
		Error:     message,
		Data:      models.ErrorPayload{Source: "websocket", Code: code},
	}
}

// NewAckMessage confirma a execução de um comando
func NewAckMessage(cmd models.ClientCommand, result interface{}) models.WebSocketMessage {
	data := map[string]interface{}{"command": cmd.Command}
	if cmd.RequestID != "" {
		data["requestId"] = cmd.RequestID
	}
	if result != nil {
		data["result"] = result
	}
	return models.WebSocketMessage{
		Type:      models.MessageAck,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// SerializeMessage serializa uma mensagem para JSON
func SerializeMessage(message interface{}) ([]byte, error) {
	return json.Marshal(message)
}

// ParseClientCommand analisa um comando recebido do cliente
func ParseClientCommand(data []byte) (models.CommandMessage, error) {
	var command models.CommandMessage
	err := json.Unmarshal(data, &command)
	return command, err
}

// CreatePongResponse cria uma resposta para um ping do cliente
func CreatePongResponse(pingTime int64) models.PongMessage {
	return models.PongMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      models.MessagePong,
			Timestamp: time.Now(),
		},
		Time:       pingTime,
		ServerTime: utils.UnixMillis(time.Now()),
	}
}
