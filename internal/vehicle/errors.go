package vehicle

import (
	"errors"
	"fmt"

	"ufk_gcs/internal/config"
)

var (
	// ErrQueueFull indica que a fila de comandos atingiu a capacidade
	ErrQueueFull = errors.New("fila de comandos cheia")
	// ErrNotConnected indica uso da sessão antes de Connect
	ErrNotConnected = errors.New("link não conectado")
	// ErrTransportClosed indica que o transporte foi encerrado do outro lado
	ErrTransportClosed = errors.New("transporte encerrado")
	// ErrSessionFailed indica que a instância já está em Failed
	ErrSessionFailed = errors.New("sessão em estado de falha")
)

// ConnectionError é a falha ao abrir o link ou um erro irrecuperável do transporte
type ConnectionError struct {
	Link config.LinkDescriptor
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("erro de conexão com %s: %v", e.Link, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// CommandError é a falha de um passo de um comando; só aborta aquele comando
type CommandError struct {
	Command string
	Step    string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("comando %s falhou em %s: %v", e.Command, e.Step, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }
