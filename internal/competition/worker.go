package competition

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"ufk_gcs/internal/config"
	"ufk_gcs/internal/models"
	"ufk_gcs/pkg/logger"
)

const (
	defaultPeriod      = 500 * time.Millisecond
	defaultEventBuffer = 64
)

// State é o estado do worker de sincronização
type State int32

const (
	Idle State = iota
	LoggingIn
	Polling
	Stopped
)

// String retorna o nome do estado
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case LoggingIn:
		return "logging_in"
	case Polling:
		return "polling"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// EventKind classifica os eventos do worker
type EventKind int

const (
	EventStatus EventKind = iota
	EventQRCoordinate
	EventNoFlyCircles
	EventRoster
	EventError
)

// Event é publicado no canal de eventos do worker
type Event struct {
	Kind    EventKind
	State   State
	Message string
	QR      models.QRCoordinate
	NoFly   []models.NoFlyCircle
	Roster  []models.CompetitorRecord
	Err     error
	Time    time.Time
}

// SnapshotSource fornece a última telemetria conhecida
type SnapshotSource interface {
	Latest() (models.TelemetrySnapshot, bool)
}

// WorkerOption configura um Worker
type WorkerOption func(*Worker)

// WithClock troca o relógio usado em server_time
func WithClock(now func() time.Time) WorkerOption {
	return func(w *Worker) { w.now = now }
}

// WithWorkerEventBuffer define a capacidade do canal de eventos
func WithWorkerEventBuffer(n int) WorkerOption {
	return func(w *Worker) { w.events = make(chan Event, n) }
}

// Worker faz login, busca os dados da missão uma vez e depois envia telemetria
// periodicamente, repassando a resposta ao Tracker.
type Worker struct {
	cfg     config.CompetitionConfig
	client  *Client
	source  SnapshotSource
	tracker *Tracker
	events  chan Event
	period  time.Duration
	now     func() time.Time

	state atomic.Int32
	stop  atomic.Bool

	lockMutex sync.RWMutex
	lock      models.TargetLock
}

// NewWorker cria o worker em Idle
func NewWorker(cfg config.CompetitionConfig, client *Client, source SnapshotSource, opts ...WorkerOption) *Worker {
	w := &Worker{
		cfg:     cfg,
		client:  client,
		source:  source,
		tracker: NewTracker(cfg.Alpha),
		period:  cfg.Period,
		now:     time.Now,
		lock:    models.DefaultTargetLock(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.period <= 0 {
		w.period = defaultPeriod
	}
	if w.events == nil {
		w.events = make(chan Event, defaultEventBuffer)
	}
	return w
}

// Events retorna o canal de eventos
func (w *Worker) Events() <-chan Event { return w.events }

// State retorna o estado atual
func (w *Worker) State() State { return State(w.state.Load()) }

// Client retorna o cliente HTTP usado pelo worker
func (w *Worker) Client() *Client { return w.client }

// Stop pede o encerramento; observado no início da próxima iteração
func (w *Worker) Stop() { w.stop.Store(true) }

// SetTargetLock atualiza os campos de travamento enviados nos próximos ciclos.
// Valores inválidos são recusados e o travamento atual é mantido.
func (w *Worker) SetTargetLock(lock models.TargetLock) error {
	if err := lock.Validate(); err != nil {
		return err
	}
	w.lockMutex.Lock()
	defer w.lockMutex.Unlock()
	w.lock = lock
	return nil
}

// TargetLock retorna os campos de travamento em uso
func (w *Worker) TargetLock() models.TargetLock {
	w.lockMutex.RLock()
	defer w.lockMutex.RUnlock()
	return w.lock
}

// Run executa login, buscas iniciais e o laço de envio até Stop ou cancelamento.
// Retorna *SyncError fatal se o login falhar.
func (w *Worker) Run(ctx context.Context) error {
	w.setState(LoggingIn, fmt.Sprintf("Login em %s", w.client.BaseURL()))

	if err := w.client.Login(ctx, w.cfg.Username, w.cfg.Password); err != nil {
		serr := &SyncError{Op: "login", Fatal: true, Err: err}
		w.reportError(serr)
		w.setState(Stopped, "Login recusado")
		return serr
	}
	w.emit(Event{Kind: EventStatus, State: w.State(), Message: "Login realizado"})

	w.fetchMissionData(ctx)

	w.setState(Polling, "Enviando telemetria")
	for !w.stopped(ctx) {
		started := time.Now()
		w.poll(ctx)

		if wait := w.period - time.Since(started); wait > 0 {
			sleepContext(ctx, wait)
		}
	}

	w.setState(Stopped, "Sincronização encerrada")
	return nil
}

// fetchMissionData faz as duas buscas únicas; falhas são reportadas mas não param o worker
func (w *Worker) fetchMissionData(ctx context.Context) {
	qr, err := w.client.QRCoordinate(ctx)
	if err != nil {
		w.reportError(&SyncError{Op: "qr_coordinate", Err: err})
	} else {
		logger.Infof("Coordenada QR recebida: %.6f, %.6f", qr.Latitude, qr.Longitude)
		w.emit(Event{Kind: EventQRCoordinate, State: w.State(), QR: qr})
	}

	circles, err := w.client.NoFlyCircles(ctx)
	if err != nil {
		w.reportError(&SyncError{Op: "no_fly_circles", Err: err})
	} else {
		logger.Infof("%d zonas de exclusão recebidas", len(circles))
		w.emit(Event{Kind: EventNoFlyCircles, State: w.State(), NoFly: circles})
	}
}

// poll é um ciclo de envio
func (w *Worker) poll(ctx context.Context) {
	snap, ok := w.source.Latest()
	if !ok {
		logger.Debug("Sem telemetria ainda, ciclo ignorado")
		return
	}

	sub := BuildSubmission(w.cfg.TeamID, snap, w.TargetLock(), w.now())
	samples, err := w.client.SubmitTelemetry(ctx, sub)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		w.reportError(&SyncError{Op: "telemetry_submit", Err: err})
		return
	}

	roster := w.tracker.Update(Records(samples))
	w.emit(Event{Kind: EventRoster, State: w.State(), Roster: roster})
}

func (w *Worker) stopped(ctx context.Context) bool {
	return w.stop.Load() || ctx.Err() != nil
}

func (w *Worker) setState(state State, msg string) {
	w.state.Store(int32(state))
	logger.Infof("Servidor: %s (%s)", msg, state)
	w.emit(Event{Kind: EventStatus, State: state, Message: msg})
}

func (w *Worker) reportError(err *SyncError) {
	if err.Fatal {
		logger.Error("Falha fatal na sincronização", err)
	} else {
		logger.Warnf("Falha na sincronização: %v", err)
	}
	w.emit(Event{Kind: EventError, State: w.State(), Message: err.Error(), Err: err})
}

// emit publica sem bloquear; eventos excedentes são descartados
func (w *Worker) emit(evt Event) {
	if evt.Time.IsZero() {
		evt.Time = time.Now()
	}
	select {
	case w.events <- evt:
	default:
		logger.Debugf("Canal de eventos da sincronização cheio, evento descartado (%d)", evt.Kind)
	}
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
