package vehicle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bluenviron/gomavlib/v3/pkg/dialects/common"
	"github.com/google/uuid"

	"ufk_gcs/internal/config"
	"ufk_gcs/internal/models"
	"ufk_gcs/pkg/logger"
)

const (
	defaultIdleInterval = 10 * time.Millisecond
	defaultArmTimeout   = 5 * time.Second
	defaultEventBuffer  = 128
	defaultSystemID     = 255
)

var errArmTimeout = errors.New("tempo esgotado aguardando armamento")

// ConnectionState é o estado do link com a aeronave
type ConnectionState int32

const (
	Disconnected ConnectionState = iota
	Connecting
	AwaitingHeartbeat
	Live
	Failed
)

// String retorna o nome do estado como aparece no console
func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case AwaitingHeartbeat:
		return "awaiting_heartbeat"
	case Live:
		return "live"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// EventKind classifica os eventos emitidos pela sessão
type EventKind int

const (
	EventStatus EventKind = iota
	EventTelemetry
	EventError
)

// Event é publicado no canal de eventos da sessão
type Event struct {
	Kind      EventKind
	State     ConnectionState
	Message   string
	Telemetry models.TelemetrySnapshot
	Err       error
	Time      time.Time
}

// Option configura uma Session
type Option func(*Session)

// WithTransportFactory troca o transporte MAVLink (usado em testes)
func WithTransportFactory(f TransportFactory) Option {
	return func(s *Session) { s.open = f }
}

// WithStore faz a sessão publicar num Store compartilhado
func WithStore(store *Store) Option {
	return func(s *Session) { s.store = store }
}

// WithEventBuffer define a capacidade do canal de eventos
func WithEventBuffer(n int) Option {
	return func(s *Session) { s.events = make(chan Event, n) }
}

// Session mantém o link com a aeronave: recebe quadros, atualiza a telemetria
// e envia os comandos da fila. Uma instância que chega a Failed não é reutilizada.
type Session struct {
	id     string
	cfg    config.VehicleConfig
	link   config.LinkDescriptor
	open   TransportFactory
	store  *Store
	queue  *CommandQueue
	events chan Event

	mutex     sync.Mutex
	transport Transport
	target    target

	state atomic.Int32
	stop  atomic.Bool

	idle       time.Duration
	armTimeout time.Duration
}

// NewSession cria uma sessão desconectada
func NewSession(cfg config.VehicleConfig, opts ...Option) *Session {
	s := &Session{
		id:         uuid.New().String(),
		cfg:        cfg,
		link:       cfg.Descriptor(),
		open:       OpenMAVLink,
		queue:      NewCommandQueue(cfg.QueueSize),
		target:     defaultTarget,
		idle:       cfg.IdleInterval,
		armTimeout: cfg.ArmTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.idle <= 0 {
		s.idle = defaultIdleInterval
	}
	if s.armTimeout <= 0 {
		s.armTimeout = defaultArmTimeout
	}
	if s.events == nil {
		s.events = make(chan Event, defaultEventBuffer)
	}
	if s.store == nil {
		s.store = NewStore()
	} else {
		s.store.Reset()
	}

	return s
}

// ID identifica esta instância da sessão
func (s *Session) ID() string { return s.id }

// Link retorna o descritor do link
func (s *Session) Link() config.LinkDescriptor { return s.link }

// State retorna o estado atual da conexão
func (s *Session) State() ConnectionState {
	return ConnectionState(s.state.Load())
}

// Events retorna o canal de eventos da sessão
func (s *Session) Events() <-chan Event {
	return s.events
}

// Latest retorna a cópia mais recente da telemetria
func (s *Session) Latest() (models.TelemetrySnapshot, bool) {
	return s.store.Latest()
}

// Store retorna o Store usado pela sessão
func (s *Session) Store() *Store {
	return s.store
}

// Enqueue adiciona um comando à fila; nunca bloqueia
func (s *Session) Enqueue(cmd models.Command) error {
	return s.queue.Enqueue(cmd)
}

// Stop pede o encerramento; observado entre quadros e entre iterações
func (s *Session) Stop() {
	s.stop.Store(true)
}

// Connect abre o transporte descrito na configuração
func (s *Session) Connect() error {
	if s.State() == Failed {
		return ErrSessionFailed
	}

	s.emit(Event{Kind: EventStatus, State: s.State(), Message: fmt.Sprintf("Conectando: %s", s.link)})

	systemID := s.cfg.SystemID
	if systemID <= 0 || systemID > 255 {
		systemID = defaultSystemID
	}

	t, err := s.open(s.link, uint8(systemID))
	if err != nil {
		cerr := &ConnectionError{Link: s.link, Err: err}
		s.fail(cerr)
		return cerr
	}

	s.mutex.Lock()
	s.transport = t
	s.mutex.Unlock()

	s.setState(Connecting, fmt.Sprintf("Conectado: %s", s.link))
	return nil
}

// Run executa o laço da sessão na goroutine chamadora até Stop, cancelamento
// do contexto ou erro irrecuperável do transporte.
func (s *Session) Run(ctx context.Context) error {
	s.mutex.Lock()
	t := s.transport
	s.mutex.Unlock()

	if s.State() == Failed {
		return ErrSessionFailed
	}
	if t == nil {
		return ErrNotConnected
	}
	defer s.closeTransport()

	s.setState(AwaitingHeartbeat, "Aguardando heartbeat...")

	hb, ok, err := s.awaitHeartbeat(ctx, t)
	if err != nil {
		return s.failTransport(err)
	}
	if !ok {
		s.setState(Disconnected, "Sessão encerrada antes do heartbeat")
		return nil
	}

	if hb.SystemID != 0 {
		s.target = target{system: hb.SystemID, component: hb.ComponentID}
	}
	s.store.Apply(hb)
	s.setState(Live, "Heartbeat MAVLink recebido")
	logger.Infof("Aeronave viva (sistema %d, componente %d)", s.target.system, s.target.component)

	for !s.stopped(ctx) {
		if err := s.step(ctx, t); err != nil {
			return s.failTransport(err)
		}
		sleepContext(ctx, s.idle)
	}

	s.setState(Disconnected, "Link encerrado")
	return nil
}

// awaitHeartbeat descarta quadros até o primeiro heartbeat
func (s *Session) awaitHeartbeat(ctx context.Context, t Transport) (HeartbeatFrame, bool, error) {
	for !s.stopped(ctx) {
		f, err := t.Poll()
		if err != nil {
			return HeartbeatFrame{}, false, err
		}
		if hb, ok := f.(HeartbeatFrame); ok {
			return hb, true, nil
		}
		if f == nil {
			sleepContext(ctx, s.idle)
		}
	}
	return HeartbeatFrame{}, false, nil
}

// step é uma iteração: um quadro, depois a fila inteira
func (s *Session) step(ctx context.Context, t Transport) error {
	f, err := t.Poll()
	if err != nil {
		return err
	}
	if f != nil {
		s.handleFrame(f)
	}

	for _, cmd := range s.queue.drain() {
		if err := s.execute(ctx, t, cmd); err != nil {
			if errors.Is(err, ErrTransportClosed) {
				return err
			}
			logger.Warnf("Comando %s abortado: %v", cmd.Name(), err)
			s.emit(Event{Kind: EventError, State: s.State(), Message: err.Error(), Err: err})
		}
	}
	return nil
}

func (s *Session) handleFrame(f Frame) {
	if logger.IsDebugEnabled() {
		logger.Debugf("Quadro %T recebido", f)
	}
	snap, changed := s.store.Apply(f)
	if changed {
		s.emit(Event{Kind: EventTelemetry, State: s.State(), Telemetry: snap})
	}
}

// execute traduz e envia um comando
func (s *Session) execute(ctx context.Context, t Transport, cmd models.Command) error {
	switch c := cmd.(type) {
	case models.StartMission:
		return s.startMission(ctx, t)

	case models.ManualControl:
		if err := t.Send(manualControlMessage(s.target, c)); err != nil {
			return &CommandError{Command: c.Name(), Step: "manual_control", Err: err}
		}
		return nil

	case models.MotorTest:
		s.emitStatus(fmt.Sprintf("Comando: teste do motor %d", c.MotorID))
		if err := t.Send(motorTestMessage(s.target, c)); err != nil {
			return &CommandError{Command: c.Name(), Step: "motor_test", Err: err}
		}
		return nil
	}

	return &CommandError{Command: cmd.Name(), Step: "dispatch", Err: fmt.Errorf("comando desconhecido %T", cmd)}
}

// startMission arma, espera a confirmação e inicia a missão
func (s *Session) startMission(ctx context.Context, t Transport) error {
	name := models.StartMission{}.Name()

	s.emitStatus("Comando: ARM")
	if err := t.Send(armMessage(s.target)); err != nil {
		return &CommandError{Command: name, Step: "arm", Err: err}
	}
	if err := s.awaitArmed(ctx, t); err != nil {
		return &CommandError{Command: name, Step: "arm_ack", Err: err}
	}

	s.emitStatus("Comando: MISSION START")
	if err := t.Send(missionStartMessage(s.target)); err != nil {
		return &CommandError{Command: name, Step: "mission_start", Err: err}
	}
	return nil
}

// awaitArmed continua processando quadros até um heartbeat armado ou um ACK
// do comando de armamento
func (s *Session) awaitArmed(ctx context.Context, t Transport) error {
	deadline := time.Now().Add(s.armTimeout)

	for {
		if s.stopped(ctx) {
			return context.Canceled
		}
		if time.Now().After(deadline) {
			return errArmTimeout
		}

		f, err := t.Poll()
		if err != nil {
			return err
		}
		if f == nil {
			sleepContext(ctx, s.idle)
			continue
		}
		s.handleFrame(f)

		switch fr := f.(type) {
		case HeartbeatFrame:
			if fr.Armed {
				return nil
			}
		case CommandAckFrame:
			if fr.Command != common.MAV_CMD_COMPONENT_ARM_DISARM {
				continue
			}
			switch fr.Result {
			case common.MAV_RESULT_ACCEPTED:
				return nil
			case common.MAV_RESULT_IN_PROGRESS:
				continue
			default:
				return fmt.Errorf("armamento recusado (resultado %d)", fr.Result)
			}
		}
	}
}

func (s *Session) stopped(ctx context.Context) bool {
	return s.stop.Load() || ctx.Err() != nil
}

func (s *Session) failTransport(err error) error {
	cerr := &ConnectionError{Link: s.link, Err: err}
	s.fail(cerr)
	return cerr
}

func (s *Session) fail(err error) {
	s.state.Store(int32(Failed))
	logger.Error("Falha no link MAVLink", err)
	s.emit(Event{Kind: EventError, State: Failed, Message: err.Error(), Err: err})
}

func (s *Session) setState(state ConnectionState, msg string) {
	s.state.Store(int32(state))
	logger.Infof("Link: %s (%s)", msg, state)
	s.emit(Event{Kind: EventStatus, State: state, Message: msg})
}

func (s *Session) emitStatus(msg string) {
	logger.Info(msg)
	s.emit(Event{Kind: EventStatus, State: s.State(), Message: msg})
}

// emit publica sem bloquear; se o consumidor estiver atrasado o evento é descartado
func (s *Session) emit(evt Event) {
	if evt.Time.IsZero() {
		evt.Time = time.Now()
	}
	select {
	case s.events <- evt:
	default:
		logger.Debugf("Canal de eventos do link cheio, evento descartado (%d)", evt.Kind)
	}
}

func (s *Session) closeTransport() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.transport != nil {
		if err := s.transport.Close(); err != nil {
			logger.Warnf("Erro ao fechar link: %v", err)
		}
		s.transport = nil
	}
}

// sleepContext dorme d ou até o contexto ser cancelado
func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
