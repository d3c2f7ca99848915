package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"ufk_gcs/internal/models"
	"ufk_gcs/internal/redis"
	"ufk_gcs/internal/region"
	"ufk_gcs/internal/vehicle"
	"ufk_gcs/pkg/logger"
)

// Tamanho máximo do corpo aceito nas requisições
const maxBodySize = 64 * 1024

// Controller é o que a API precisa da estação
type Controller interface {
	Status() models.SystemStatus
	Telemetry() (models.TelemetrySnapshot, bool)
	Competitors() []models.CompetitorRecord
	Region() models.Region
	SaveRegion(models.Region) (models.Region, error)
	Submit(models.Command) error
	TargetLock() models.TargetLock
	SetTargetLock(models.TargetLock) error
	SendLockInfo(ctx context.Context, info models.LockInfo) error
	SendKamikazeInfo(ctx context.Context, text string) error
	ServerTime(ctx context.Context) (models.ServerTime, error)
	RestartLink() error
}

// Handler contém os handlers HTTP para a API
type Handler struct {
	ctrl         Controller
	redisService *redis.Service
}

// NewHandler cria um novo handler de API
func NewHandler(ctrl Controller, redisService *redis.Service) *Handler {
	return &Handler{
		ctrl:         ctrl,
		redisService: redisService,
	}
}

// GetStatus retorna o estado consolidado da estação
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	h.respondWithJSON(w, http.StatusOK, h.ctrl.Status())
}

// GetTelemetry retorna a telemetria mais recente
func (h *Handler) GetTelemetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	snap, ok := h.ctrl.Telemetry()
	if !ok {
		h.respondWithError(w, http.StatusNotFound, "Nenhuma telemetria recebida")
		return
	}

	h.respondWithJSON(w, http.StatusOK, snap)
}

// GetCompetitors retorna a lista filtrada de adversários
func (h *Handler) GetCompetitors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	roster := h.ctrl.Competitors()
	if roster == nil {
		roster = []models.CompetitorRecord{}
	}
	h.respondWithJSON(w, http.StatusOK, roster)
}

// HandleRegion lê (GET) ou grava (PUT) a região de competição
func (h *Handler) HandleRegion(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.respondWithJSON(w, http.StatusOK, h.ctrl.Region())

	case http.MethodPut:
		var reg models.Region
		if !h.decodeBody(w, r, &reg) {
			return
		}
		saved, err := h.ctrl.SaveRegion(reg)
		if err != nil {
			h.respondWithControllerError(w, err)
			return
		}
		h.respondWithJSON(w, http.StatusOK, saved)

	default:
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
	}
}

// StartMission enfileira o comando de início de missão
func (h *Handler) StartMission(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}
	h.submit(w, models.StartMission{})
}

// ManualControl enfileira um comando de controle manual
func (h *Handler) ManualControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	var cmd models.ManualControl
	if !h.decodeBody(w, r, &cmd) {
		return
	}
	if err := cmd.Validate(); err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.submit(w, cmd)
}

// MotorTest enfileira um teste de motor
func (h *Handler) MotorTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	var raw json.RawMessage
	if !h.decodeBody(w, r, &raw) {
		return
	}
	cmd, err := models.DecodeCommand(models.CommandMotorTest, raw)
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.submit(w, cmd)
}

func (h *Handler) submit(w http.ResponseWriter, cmd models.Command) {
	if err := h.ctrl.Submit(cmd); err != nil {
		h.respondWithControllerError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusAccepted, map[string]string{
		"status":  "queued",
		"command": cmd.Name(),
	})
}

// HandleTargetLock lê (GET) ou altera (PUT) os campos de travamento enviados ao servidor
func (h *Handler) HandleTargetLock(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.respondWithJSON(w, http.StatusOK, h.ctrl.TargetLock())

	case http.MethodPut:
		// Campos ausentes mantêm o valor atual
		lock := h.ctrl.TargetLock()
		if !h.decodeBody(w, r, &lock) {
			return
		}
		if err := h.ctrl.SetTargetLock(lock); err != nil {
			h.respondWithControllerError(w, err)
			return
		}
		h.respondWithJSON(w, http.StatusOK, lock)

	default:
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
	}
}

// SendLockInfo repassa ao servidor de competição o intervalo de travamento
func (h *Handler) SendLockInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	var info models.LockInfo
	if !h.decodeBody(w, r, &info) {
		return
	}
	if err := h.ctrl.SendLockInfo(r.Context(), info); err != nil {
		logger.Warnf("Falha ao enviar lock-info: %v", err)
		h.respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// SendKamikazeInfo repassa ao servidor de competição o texto lido do QR
func (h *Handler) SendKamikazeInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	var body struct {
		Text string `json:"kamikaze_info"`
	}
	if !h.decodeBody(w, r, &body) {
		return
	}
	if body.Text == "" {
		h.respondWithError(w, http.StatusBadRequest, "kamikaze_info obrigatório")
		return
	}
	if err := h.ctrl.SendKamikazeInfo(r.Context(), body.Text); err != nil {
		logger.Warnf("Falha ao enviar kamikaze-info: %v", err)
		h.respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// GetServerTime consulta o horário do servidor de competição
func (h *Handler) GetServerTime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	st, err := h.ctrl.ServerTime(r.Context())
	if err != nil {
		h.respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.respondWithJSON(w, http.StatusOK, st)
}

// RestartLink substitui a sessão com a aeronave por uma nova instância
func (h *Handler) RestartLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	if err := h.ctrl.RestartLink(); err != nil {
		h.respondWithControllerError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "restarting"})
}

// GetTrack retorna a trilha recente da aeronave guardada no Redis
func (h *Handler) GetTrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	if h.redisService == nil || !h.redisService.IsConnected() {
		h.respondWithError(w, http.StatusServiceUnavailable, redis.ErrUnavailable.Error())
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.respondWithError(w, http.StatusBadRequest, "limit inválido")
			return
		}
		limit = n
	}

	track, err := h.redisService.GetTrack(limit)
	if err != nil {
		h.respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.respondWithJSON(w, http.StatusOK, track)
}

// decodeBody lê o corpo JSON; responde 400 e retorna false em caso de erro
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("JSON inválido: %v", err))
		return false
	}
	return true
}

// respondWithControllerError traduz os erros conhecidos em códigos HTTP
func (h *Handler) respondWithControllerError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, region.ErrInvalidRegion), errors.Is(err, models.ErrInvalidParams):
		code = http.StatusBadRequest
	case errors.Is(err, vehicle.ErrQueueFull):
		code = http.StatusServiceUnavailable
	case errors.Is(err, vehicle.ErrNotConnected), errors.Is(err, vehicle.ErrSessionFailed):
		code = http.StatusConflict
	}
	h.respondWithError(w, code, err.Error())
}

// respondWithError responde com erro em formato JSON
func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON responde com JSON
func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Errorf("Erro ao codificar resposta JSON: %v", err)
		// Se falhar ao codificar JSON, tentar responder com erro simples
		fmt.Fprintf(w, `{"error":"Erro interno ao processar resposta"}`)
	}
}
