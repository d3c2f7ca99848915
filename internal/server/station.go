package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ufk_gcs/internal/competition"
	"ufk_gcs/internal/config"
	"ufk_gcs/internal/models"
	"ufk_gcs/internal/redis"
	"ufk_gcs/internal/region"
	"ufk_gcs/internal/vehicle"
	"ufk_gcs/internal/websocket"
	"ufk_gcs/pkg/logger"
)

// Broadcaster é o lado do console que recebe as atualizações
type Broadcaster interface {
	BroadcastStatus(models.LinkStatus)
	BroadcastTelemetry(models.TelemetrySnapshot)
	BroadcastSync(models.SyncStatus)
	BroadcastCompetitors([]models.CompetitorRecord)
	BroadcastMissionData(models.MissionData)
	BroadcastRegion(models.Region)
	BroadcastError(source, message string)
	ClientCount() int
}

// Station liga a sessão com a aeronave e o worker de sincronização ao console.
// Implementa websocket.CommandSink e api.Controller.
type Station struct {
	cfg     *config.Config
	console Broadcaster
	redis   *redis.Service
	regions *region.Store
	store   *vehicle.Store
	worker  *competition.Worker
	client  *competition.Client

	newSession func() *vehicle.Session
	restart    chan struct{}

	mu         sync.RWMutex
	session    *vehicle.Session
	linkStatus models.LinkStatus
	syncStatus models.SyncStatus
	mission    models.MissionData
	roster     []models.CompetitorRecord
	region     models.Region

	fence region.Geofence
}

// StationOption configura uma Station
type StationOption func(*Station)

// WithSessionOptions repassa opções para cada nova sessão (usado em testes)
func WithSessionOptions(opts ...vehicle.Option) StationOption {
	return func(s *Station) {
		s.newSession = func() *vehicle.Session {
			return vehicle.NewSession(s.cfg.Vehicle, append([]vehicle.Option{vehicle.WithStore(s.store)}, opts...)...)
		}
	}
}

// NewStation monta a estação; nada é iniciado antes de Run
func NewStation(cfg *config.Config, console Broadcaster, redisService *redis.Service, opts ...StationOption) (*Station, error) {
	client, err := competition.NewClient(cfg.Competition)
	if err != nil {
		return nil, fmt.Errorf("erro ao criar cliente do servidor de competição: %w", err)
	}

	s := &Station{
		cfg:     cfg,
		console: console,
		redis:   redisService,
		regions: region.NewStore(cfg.Region.Path),
		store:   vehicle.NewStore(),
		client:  client,
		restart: make(chan struct{}, 1),
	}
	s.newSession = func() *vehicle.Session {
		return vehicle.NewSession(s.cfg.Vehicle, vehicle.WithStore(s.store))
	}
	for _, opt := range opts {
		opt(s)
	}

	s.worker = competition.NewWorker(cfg.Competition, client, s.store)

	reg, err := s.regions.Load()
	if err != nil {
		logger.Warnf("Região não carregada de %s, usando padrão: %v", s.regions.Path(), err)
		reg = models.DefaultRegion()
	}
	s.region = reg

	link := cfg.Vehicle.Descriptor().String()
	s.linkStatus = models.LinkStatus{State: vehicle.Disconnected.String(), Link: link, Timestamp: time.Now()}
	s.syncStatus = models.SyncStatus{State: competition.Idle.String(), Server: client.BaseURL(), Timestamp: time.Now()}

	return s, nil
}

// Run executa o link e a sincronização até o contexto ser cancelado
func (s *Station) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.linkLoop(gctx)
		return nil
	})

	g.Go(func() error {
		// Login recusado encerra só a sincronização; o link continua
		if err := s.worker.Run(gctx); err != nil {
			logger.Error("Sincronização com o servidor encerrada", err)
		}
		return nil
	})

	g.Go(func() error {
		s.pumpSyncEvents(gctx)
		return nil
	})

	err := g.Wait()
	s.worker.Stop()
	return err
}

// linkLoop mantém uma sessão por vez. Uma sessão que falha fica parada até
// RestartLink pedir uma nova instância.
func (s *Station) linkLoop(ctx context.Context) {
	for ctx.Err() == nil {
		sess := s.newSession()

		s.mu.Lock()
		s.session = sess
		s.mu.Unlock()

		done := make(chan struct{})
		pumped := make(chan struct{})
		go func() {
			defer close(pumped)
			s.pumpLinkEvents(sess, done)
		}()

		if err := sess.Connect(); err == nil {
			if err := sess.Run(ctx); err != nil {
				logger.Warnf("Sessão %s encerrada: %v", sess.ID(), err)
			}
		}
		close(done)
		<-pumped

		select {
		case <-ctx.Done():
			return
		case <-s.restart:
			logger.Info("Reiniciando link com a aeronave")
		}
	}
}

// RestartLink encerra a sessão atual e pede uma nova instância
func (s *Station) RestartLink() error {
	select {
	case s.restart <- struct{}{}:
	default:
		// Já existe um pedido pendente
	}

	s.mu.RLock()
	sess := s.session
	s.mu.RUnlock()
	if sess != nil {
		sess.Stop()
	}
	return nil
}

// pumpLinkEvents repassa os eventos da sessão até done ser fechado
func (s *Station) pumpLinkEvents(sess *vehicle.Session, done <-chan struct{}) {
	for {
		select {
		case evt := <-sess.Events():
			s.handleLinkEvent(sess, evt)
		case <-done:
			// Entregar o que ficou no canal
			for {
				select {
				case evt := <-sess.Events():
					s.handleLinkEvent(sess, evt)
				default:
					return
				}
			}
		}
	}
}

func (s *Station) handleLinkEvent(sess *vehicle.Session, evt vehicle.Event) {
	switch evt.Kind {
	case vehicle.EventTelemetry:
		s.console.BroadcastTelemetry(evt.Telemetry)
		if err := s.redis.WriteTelemetry(evt.Telemetry); err != nil {
			logger.Debugf("Telemetria não replicada no Redis: %v", err)
		}
		s.checkGeofence(evt.Telemetry)
		return

	case vehicle.EventError:
		s.console.BroadcastError("link", evt.Message)
	}

	s.mu.Lock()
	s.linkStatus.State = evt.State.String()
	s.linkStatus.SessionID = sess.ID()
	s.linkStatus.Timestamp = evt.Time
	if evt.Kind == vehicle.EventError {
		s.linkStatus.LastError = evt.Message
	} else {
		s.linkStatus.Message = evt.Message
	}
	status := s.linkStatus
	s.mu.Unlock()

	s.console.BroadcastStatus(status)
	if err := s.redis.WriteLinkStatus(status); err != nil {
		logger.Debugf("Status do link não replicado no Redis: %v", err)
	}
}

// checkGeofence avisa o console quando a aeronave sai ou volta para a região.
// Coordenadas de placeholder (sem GPS) são ignoradas.
func (s *Station) checkGeofence(snap models.TelemetrySnapshot) {
	if snap.Latitude == models.PlaceholderLatitude && snap.Longitude == models.PlaceholderLongitude {
		return
	}

	switch s.fence.Update(s.Region(), snap.Latitude, snap.Longitude) {
	case region.Left:
		logger.Warnf("Aeronave fora da região: %.6f, %.6f", snap.Latitude, snap.Longitude)
		s.console.BroadcastError("geofence", "Aeronave fora da região de competição")
	case region.Entered:
		logger.Info("Aeronave voltou para a região de competição")
	}
}

// pumpSyncEvents repassa os eventos do worker até o contexto ser cancelado
func (s *Station) pumpSyncEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-s.worker.Events():
			s.handleSyncEvent(evt)
		}
	}
}

func (s *Station) handleSyncEvent(evt competition.Event) {
	switch evt.Kind {
	case competition.EventRoster:
		s.mu.Lock()
		s.roster = evt.Roster
		s.mu.Unlock()

		s.console.BroadcastCompetitors(evt.Roster)
		if err := s.redis.WriteCompetitors(evt.Roster); err != nil {
			logger.Debugf("Adversários não replicados no Redis: %v", err)
		}

	case competition.EventQRCoordinate:
		qr := evt.QR
		s.mu.Lock()
		s.mission.QR = &qr
		s.mu.Unlock()

		s.mergeQRPoint(qr)
		s.publishMission()

	case competition.EventNoFlyCircles:
		s.mu.Lock()
		s.mission.NoFly = evt.NoFly
		s.mu.Unlock()

		s.publishMission()

	case competition.EventStatus, competition.EventError:
		s.mu.Lock()
		s.syncStatus.State = evt.State.String()
		s.syncStatus.Timestamp = evt.Time
		if evt.Kind == competition.EventError {
			s.syncStatus.LastError = evt.Message
			s.syncStatus.ErrorCount++
		} else {
			s.syncStatus.Message = evt.Message
		}
		status := s.syncStatus
		s.mu.Unlock()

		if evt.Kind == competition.EventError {
			s.console.BroadcastError("sync", evt.Message)
		}
		s.console.BroadcastSync(status)
		if err := s.redis.WriteSyncStatus(status); err != nil {
			logger.Debugf("Status da sincronização não replicado no Redis: %v", err)
		}
	}
}

// mergeQRPoint grava no arquivo de região o ponto QR recebido do servidor
func (s *Station) mergeQRPoint(qr models.QRCoordinate) {
	reg, err := s.regions.SetQRPoint(models.QRPoint{Latitude: qr.Latitude, Longitude: qr.Longitude})
	if err != nil {
		logger.Warnf("Ponto QR não gravado em %s: %v", s.regions.Path(), err)
		return
	}

	s.mu.Lock()
	s.region = reg
	s.mu.Unlock()

	s.console.BroadcastRegion(reg)
}

func (s *Station) publishMission() {
	s.mu.RLock()
	data := s.mission
	s.mu.RUnlock()

	s.console.BroadcastMissionData(data)
	if err := s.redis.WriteMissionData(data); err != nil {
		logger.Debugf("Dados da missão não replicados no Redis: %v", err)
	}
}

// HandleCommand executa um comando vindo do WebSocket
func (s *Station) HandleCommand(ctx context.Context, cmd models.ClientCommand) (interface{}, error) {
	switch cmd.Command {
	case models.CommandGetStatus:
		return s.Status(), nil

	case models.CommandSetTargetLock:
		lock := s.TargetLock()
		if len(cmd.Params) == 0 {
			return nil, errors.New("parâmetros obrigatórios ausentes")
		}
		if err := json.Unmarshal(cmd.Params, &lock); err != nil {
			return nil, fmt.Errorf("parâmetros inválidos: %w", err)
		}
		if err := s.SetTargetLock(lock); err != nil {
			return nil, err
		}
		return lock, nil
	}

	command, err := models.DecodeCommand(cmd.Command, cmd.Params)
	if err != nil {
		return nil, err
	}
	if err := s.Submit(command); err != nil {
		return nil, err
	}
	return "queued", nil
}

// Submit enfileira um comando para a aeronave. Só é aceito com o link vivo.
func (s *Station) Submit(cmd models.Command) error {
	s.mu.RLock()
	sess := s.session
	s.mu.RUnlock()

	if sess == nil {
		return vehicle.ErrNotConnected
	}
	switch state := sess.State(); state {
	case vehicle.Live:
	case vehicle.Failed:
		return vehicle.ErrSessionFailed
	default:
		return fmt.Errorf("%w: link em %s", vehicle.ErrNotConnected, state)
	}

	if err := sess.Enqueue(cmd); err != nil {
		return err
	}
	logger.Infof("Comando %s enfileirado", cmd.Name())
	return nil
}

// Status retorna a visão consolidada da estação
func (s *Station) Status() models.SystemStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mission := s.mission
	mission.NoFly = append([]models.NoFlyCircle(nil), s.mission.NoFly...)

	return models.SystemStatus{
		Link:       s.linkStatus,
		Sync:       s.syncStatus,
		TargetLock: s.worker.TargetLock(),
		Mission:    mission,
		Clients:    s.console.ClientCount(),
		Timestamp:  time.Now(),
	}
}

// Telemetry retorna a última telemetria publicada
func (s *Station) Telemetry() (models.TelemetrySnapshot, bool) {
	return s.store.Latest()
}

// Competitors retorna a última lista de adversários
func (s *Station) Competitors() []models.CompetitorRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.CompetitorRecord(nil), s.roster...)
}

// Region retorna a região de competição atual
func (s *Station) Region() models.Region {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.region
}

// SaveRegion grava os novos cantos; sem ponto QR no pedido mantém o atual
func (s *Station) SaveRegion(reg models.Region) (models.Region, error) {
	s.mu.RLock()
	if reg.QRPoint == nil {
		reg.QRPoint = s.region.QRPoint
	}
	s.mu.RUnlock()

	if err := s.regions.Save(reg); err != nil {
		return models.Region{}, err
	}

	s.mu.Lock()
	s.region = reg
	s.mu.Unlock()
	s.fence.Reset()

	s.console.BroadcastRegion(reg)
	return reg, nil
}

// TargetLock retorna os campos de travamento em uso
func (s *Station) TargetLock() models.TargetLock {
	return s.worker.TargetLock()
}

// SetTargetLock altera os campos de travamento dos próximos envios
func (s *Station) SetTargetLock(lock models.TargetLock) error {
	if err := s.worker.SetTargetLock(lock); err != nil {
		return err
	}
	logger.Infof("Travamento de alvo atualizado: %+v", lock)
	return nil
}

// SendLockInfo repassa o relatório de travamento ao servidor de competição
func (s *Station) SendLockInfo(ctx context.Context, info models.LockInfo) error {
	return s.client.SendLockInfo(ctx, info)
}

// SendKamikazeInfo repassa o texto lido do QR ao servidor de competição
func (s *Station) SendKamikazeInfo(ctx context.Context, text string) error {
	return s.client.SendKamikazeInfo(ctx, text)
}

// ServerTime consulta o horário do servidor de competição
func (s *Station) ServerTime(ctx context.Context) (models.ServerTime, error) {
	return s.client.ServerTime(ctx)
}

var _ websocket.CommandSink = (*Station)(nil)
