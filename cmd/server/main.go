package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ufk_gcs/internal/config"
	"ufk_gcs/internal/server"
	"ufk_gcs/pkg/logger"
)

func main() {
	configPath := flag.String("config", "settings.json", "arquivo de configuração JSON (chaves planas)")
	flag.Parse()

	logger.Init()

	// Exibir banner de inicialização
	displayBanner()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("Erro ao carregar configurações", err)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetIncludeFile(cfg.Log.Source)
	if cfg.Log.ToFile {
		err := logger.EnableFileLogging(logger.FileOptions{
			Dir:        cfg.Log.Dir,
			Prefix:     "gcs",
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   true,
		})
		if err != nil {
			logger.Warnf("Log em arquivo desabilitado: %v", err)
		}
	}
	defer logger.Sync()

	logger.Info("Iniciando estação de solo UFK")
	logger.Infof("Configuração carregada: link %s, servidor %s, equipe %d",
		cfg.Vehicle.Descriptor(), cfg.Competition.BaseURL, cfg.Competition.TeamID)
	if cfg.Redis.Enabled {
		logger.Infof("Redis em %s:%d", cfg.Redis.Host, cfg.Redis.Port)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Fatal("Erro ao criar servidor", err)
	}

	// Iniciar o servidor em uma goroutine separada
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Servidor iniciado na porta %d", cfg.Server.Port)
		errCh <- srv.Start()
	}()

	// Configurar captura de sinais para shutdown gracioso
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Desligando servidor...")
	case err := <-errCh:
		if err != nil {
			logger.Error("Servidor encerrado com erro", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Erro durante o shutdown do servidor", err)
	}

	logger.Info("Servidor encerrado com sucesso")
}

// displayBanner exibe um banner de inicialização
func displayBanner() {
	banner := `
  _   _ _____ _  __    ____  ____ ____
 | | | |  ___| |/ /   / ___|/ ___/ ___|
 | | | | |_  | ' /   | |  _| |   \___ \
 | |_| |  _| | . \   | |_| | |___ ___) |
  \___/|_|   |_|\_\   \____|\____|____/   v1.0
                         ESTAÇÃO DE SOLO
 `
	fmt.Println(banner)
	fmt.Printf("Iniciando em %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
}
