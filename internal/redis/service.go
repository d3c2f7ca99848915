package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"ufk_gcs/internal/config"
	"ufk_gcs/internal/models"
	"ufk_gcs/pkg/logger"
	"ufk_gcs/pkg/utils"
)

const (
	// Tamanho máximo da trilha da aeronave mantida no Redis
	maxTrackSize = 1000

	defaultPrefix = "ufk_gcs"
)

// ErrUnavailable indica Redis desabilitado ou desconectado
var ErrUnavailable = errors.New("Redis não conectado ou desabilitado")

// Service replica o estado vivo da estação no Redis: cada atualização grava a
// chave com TTL e publica no canal de eventos.
type Service struct {
	client    *redis.Client
	ctx       context.Context
	cancel    context.CancelFunc
	prefix    string
	ttl       time.Duration
	config    config.RedisConfig
	connected bool
	mutex     sync.RWMutex
}

// NewService cria um novo serviço Redis
func NewService(cfg config.RedisConfig) (*Service, error) {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}

	if !cfg.Enabled {
		logger.Info("Serviço Redis desabilitado por configuração")
		return &Service{
			config:    cfg,
			prefix:    prefix,
			ttl:       cfg.TTL,
			connected: false,
		}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	service := &Service{
		client: client,
		ctx:    ctx,
		cancel: cancel,
		prefix: prefix,
		ttl:    cfg.TTL,
		config: cfg,
	}

	// Testar conexão
	if err := service.TestConnection(); err != nil {
		logger.Warnf("Aviso: %v. O Redis será utilizado em modo offline.", err)
		return service, nil
	}

	return service, nil
}

// TestConnection testa a conexão com o Redis
func (s *Service) TestConnection() error {
	if !s.config.Enabled {
		return fmt.Errorf("serviço Redis desabilitado")
	}

	result, err := s.client.Ping(s.ctx).Result()
	if err != nil {
		return fmt.Errorf("erro ao conectar ao Redis: %w", err)
	}

	logger.Infof("Conexão com o Redis estabelecida. Resposta: %s", result)
	s.mutex.Lock()
	s.connected = true
	s.mutex.Unlock()
	return nil
}

// IsConnected verifica se o serviço está conectado
func (s *Service) IsConnected() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.connected && s.config.Enabled
}

// key monta o nome da chave com o prefixo configurado
func (s *Service) key(parts ...string) string {
	k := s.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

// EventsChannel é o canal PUBLISH onde cada atualização é anunciada
func (s *Service) EventsChannel() string {
	return s.key("events")
}

// event é o envelope publicado no canal de eventos
type event struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// WriteTelemetry grava a telemetria e a pose e acrescenta a posição à trilha
func (s *Service) WriteTelemetry(snap models.TelemetrySnapshot) error {
	if !s.IsConnected() {
		return nil
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("erro ao serializar telemetria: %w", err)
	}
	pose, err := json.Marshal(snap.Pose())
	if err != nil {
		return fmt.Errorf("erro ao serializar pose: %w", err)
	}

	timestamp := utils.UnixMillis(snap.UpdatedAt)
	trackKey := s.key("track")

	pipe := s.client.Pipeline()
	pipe.Set(s.ctx, s.key("telemetry"), payload, s.ttl)
	pipe.Set(s.ctx, s.key("vehicle"), pose, s.ttl)

	// Trilha ordenada por timestamp, limitada aos últimos pontos
	pipe.ZAdd(s.ctx, trackKey, &redis.Z{
		Score:  float64(timestamp),
		Member: string(pose),
	})
	pipe.ZRemRangeByRank(s.ctx, trackKey, 0, -(maxTrackSize + 1))

	s.publish(pipe, models.MessageTelemetry, snap)

	return s.exec(pipe, "telemetria")
}

// WriteCompetitors grava a lista de adversários e uma chave por equipe
func (s *Service) WriteCompetitors(roster []models.CompetitorRecord) error {
	if !s.IsConnected() {
		return nil
	}

	payload, err := json.Marshal(roster)
	if err != nil {
		return fmt.Errorf("erro ao serializar adversários: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(s.ctx, s.key("competitors"), payload, s.ttl)

	for _, rec := range roster {
		data, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		pipe.Set(s.ctx, s.key("competitor", strconv.Itoa(rec.TeamID)), data, s.ttl)
	}

	s.publish(pipe, models.MessageCompetitors, roster)

	return s.exec(pipe, "adversários")
}

// WriteLinkStatus grava o estado do link com a aeronave
func (s *Service) WriteLinkStatus(status models.LinkStatus) error {
	return s.writeStatus("link", models.MessageStatus, status, status.LastError)
}

// WriteSyncStatus grava o estado da sincronização com o servidor
func (s *Service) WriteSyncStatus(status models.SyncStatus) error {
	return s.writeStatus("sync", models.MessageSync, status, status.LastError)
}

func (s *Service) writeStatus(name, msgType string, status interface{}, lastError string) error {
	if !s.IsConnected() {
		return nil
	}

	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("erro ao serializar status: %w", err)
	}

	// Status não expira: o último estado conhecido continua válido
	pipe := s.client.Pipeline()
	pipe.Set(s.ctx, s.key(name, "status"), payload, 0)

	if lastError != "" {
		pipe.Set(s.ctx, s.key(name, "ultimo_erro"), lastError, 0)
		pipe.Incr(s.ctx, s.key(name, "erros"))
	}

	s.publish(pipe, msgType, status)

	return s.exec(pipe, "status "+name)
}

// WriteMissionData grava ponto QR e zonas de exclusão recebidos após o login
func (s *Service) WriteMissionData(data models.MissionData) error {
	if !s.IsConnected() {
		return nil
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("erro ao serializar dados da missão: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(s.ctx, s.key("mission"), payload, 0)
	s.publish(pipe, models.MessageMissionData, data)

	return s.exec(pipe, "dados da missão")
}

// GetTelemetry lê a última telemetria gravada
func (s *Service) GetTelemetry() (*models.TelemetrySnapshot, error) {
	if !s.IsConnected() {
		return nil, ErrUnavailable
	}

	data, err := s.client.Get(s.ctx, s.key("telemetry")).Bytes()
	if err != nil {
		return nil, fmt.Errorf("erro ao obter telemetria: %w", err)
	}

	var snap models.TelemetrySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("telemetria inválida no Redis: %w", err)
	}
	return &snap, nil
}

// GetTrack retorna os últimos pontos da trilha, do mais antigo ao mais recente
func (s *Service) GetTrack(limit int) ([]models.VehiclePose, error) {
	if !s.IsConnected() {
		return nil, ErrUnavailable
	}
	if limit <= 0 || limit > maxTrackSize {
		limit = maxTrackSize
	}

	members, err := s.client.ZRange(s.ctx, s.key("track"), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("erro ao obter trilha: %w", err)
	}

	track := make([]models.VehiclePose, 0, len(members))
	for _, m := range members {
		var pose models.VehiclePose
		if err := json.Unmarshal([]byte(m), &pose); err != nil {
			continue
		}
		track = append(track, pose)
	}
	return track, nil
}

// publish acrescenta o PUBLISH do evento à pipeline
func (s *Service) publish(pipe redis.Pipeliner, msgType string, data interface{}) {
	msg, err := json.Marshal(event{
		Type:      msgType,
		Timestamp: utils.UnixMillis(time.Now()),
		Data:      data,
	})
	if err != nil {
		logger.Debugf("Evento %s não serializado: %v", msgType, err)
		return
	}
	pipe.Publish(s.ctx, s.EventsChannel(), msg)
}

// exec executa a pipeline; uma falha marca o serviço como desconectado
func (s *Service) exec(pipe redis.Pipeliner, what string) error {
	if _, err := pipe.Exec(s.ctx); err != nil {
		s.mutex.Lock()
		s.connected = false
		s.mutex.Unlock()
		return fmt.Errorf("erro ao escrever %s no Redis: %w", what, err)
	}
	return nil
}

// Shutdown encerra graciosamente o serviço Redis
func (s *Service) Shutdown() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	if s.client != nil {
		if err := s.client.Close(); err != nil {
			logger.Errorf("Erro ao fechar conexão com Redis: %v", err)
		} else {
			logger.Info("Conexão com o Redis fechada")
		}
	}

	s.connected = false
}
