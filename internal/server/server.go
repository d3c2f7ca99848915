package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ufk_gcs/internal/config"
	"ufk_gcs/internal/discovery"
	"ufk_gcs/internal/redis"
	"ufk_gcs/internal/websocket"
	"ufk_gcs/pkg/logger"
)

// Version é a versão anunciada pelo console
const Version = "1.0.0"

// Server encapsula o servidor HTTP com todos os componentes
type Server struct {
	config       *config.Config
	httpServer   *http.Server
	router       *http.ServeMux
	station      *Station
	redisService *redis.Service
	wsHub        *websocket.Hub
	advertiser   *discovery.Advertiser
	serverInfo   ServerInfo

	cancel   context.CancelFunc
	stopOnce sync.Once
}

// ServerInfo contém informações sobre o servidor
type ServerInfo struct {
	IP           string
	Port         int
	StartTime    time.Time
	Connections  int
	Version      string
	WebSocketURL string
	APIURL       string
	Link         string
}

// NewServer cria uma nova instância do servidor
func NewServer(cfg *config.Config) (*Server, error) {
	server := &Server{
		config: cfg,
		router: http.NewServeMux(),
		serverInfo: ServerInfo{
			StartTime: time.Now(),
			Version:   Version,
			Port:      cfg.Server.Port,
			Link:      cfg.Vehicle.Descriptor().String(),
		},
	}

	ip, err := discovery.LocalIP()
	if err != nil {
		logger.Warnf("IP local não determinado, usando localhost: %v", err)
		ip = "localhost"
	}
	server.serverInfo.IP = ip

	server.serverInfo.WebSocketURL = fmt.Sprintf("ws://%s:%d/ws", ip, cfg.Server.Port)
	server.serverInfo.APIURL = fmt.Sprintf("http://%s:%d/api", ip, cfg.Server.Port)

	if err := server.initComponents(); err != nil {
		return nil, err
	}

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return server, nil
}

// initComponents inicializa todos os componentes do servidor
func (s *Server) initComponents() error {
	s.wsHub = websocket.NewHub()

	redisService, err := redis.NewService(s.config.Redis)
	if err != nil {
		return fmt.Errorf("erro ao inicializar serviço Redis: %w", err)
	}
	s.redisService = redisService

	station, err := NewStation(s.config, s.wsHub, s.redisService)
	if err != nil {
		return fmt.Errorf("erro ao inicializar estação: %w", err)
	}
	s.station = station
	s.wsHub.SetCommandSink(station)

	if s.config.Discovery.Enabled {
		s.advertiser = discovery.NewAdvertiser(discovery.Options{
			Instance: s.config.Discovery.Instance,
			Port:     s.config.Server.Port,
			TeamID:   s.config.Competition.TeamID,
			Link:     s.serverInfo.Link,
		})
	}

	return nil
}

// Start inicia o hub, a estação e o servidor HTTP. Bloqueia até Shutdown
// ou até um deles falhar.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	defer cancel()

	if s.advertiser != nil {
		// Sem mDNS o console continua acessível pelo IP
		if err := s.advertiser.Start(); err != nil {
			logger.Warnf("Descoberta indisponível: %v", err)
		}
	}

	s.logServerInfo()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.wsHub.Run()
		return nil
	})

	g.Go(func() error {
		return s.station.Run(gctx)
	})

	g.Go(func() error {
		logger.Infof("Iniciando servidor HTTP na porta %d", s.config.Server.Port)
		if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("erro ao iniciar servidor HTTP: %w", err)
		}
		return nil
	})

	// Encerrar o hub e o HTTP quando qualquer parte terminar
	g.Go(func() error {
		<-gctx.Done()
		s.wsHub.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout())
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Erro ao encerrar servidor HTTP: %v", err)
		}
		return nil
	})

	return g.Wait()
}

// Shutdown encerra graciosamente o servidor e todos os serviços
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Iniciando shutdown do servidor")

	s.stopOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}

		if err := s.httpServer.Shutdown(ctx); err != nil {
			logger.Errorf("Erro ao encerrar servidor HTTP: %v", err)
		}

		if s.advertiser != nil {
			s.advertiser.Stop()
		}

		if s.redisService != nil {
			s.redisService.Shutdown()
		}
	})

	logger.Info("Shutdown completo")
	return nil
}

func (s *Server) shutdownTimeout() time.Duration {
	if s.config.Server.ShutdownTimeout > 0 {
		return s.config.Server.ShutdownTimeout
	}
	return 10 * time.Second
}

// Station retorna a estação controlada por este servidor
func (s *Server) Station() *Station {
	return s.station
}

// GetServerInfo retorna informações sobre o servidor
func (s *Server) GetServerInfo() ServerInfo {
	info := s.serverInfo
	info.Connections = s.wsHub.ClientCount()
	return info
}

// logServerInfo exibe informações do servidor no log
func (s *Server) logServerInfo() {
	logger.Info("===============================================")
	logger.Info("          UFK Estação de Solo (GCS)            ")
	logger.Info("===============================================")
	logger.Infof("Versão: %s", s.serverInfo.Version)
	logger.Infof("Endereço IP: %s", s.serverInfo.IP)
	logger.Infof("Porta HTTP: %d", s.serverInfo.Port)
	logger.Infof("WebSocket URL: %s", s.serverInfo.WebSocketURL)
	logger.Infof("API URL: %s", s.serverInfo.APIURL)
	logger.Infof("Link com a aeronave: %s", s.serverInfo.Link)
	logger.Infof("Servidor de competição: %s", s.config.Competition.BaseURL)
	if s.advertiser != nil {
		logger.Infof("mDNS: %s.%s.%s", s.advertiser.Instance(), discovery.ServiceType, discovery.ServiceDomain)
	}
	logger.Info("===============================================")
	logger.Info("Servidor pronto para conexões!")
}
