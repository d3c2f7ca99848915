package vehicle

import (
	"errors"

	"ufk_gcs/internal/models"
)

// DefaultQueueSize é a capacidade da fila quando a configuração não informa
const DefaultQueueSize = 256

// CommandQueue é a fila FIFO de comandos do operador.
// Qualquer goroutine enfileira; só a goroutine da sessão esvazia.
type CommandQueue struct {
	ch chan models.Command
}

// NewCommandQueue cria uma fila com a capacidade informada
func NewCommandQueue(size int) *CommandQueue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &CommandQueue{ch: make(chan models.Command, size)}
}

// Enqueue adiciona o comando sem bloquear
func (q *CommandQueue) Enqueue(cmd models.Command) error {
	if cmd == nil {
		return errors.New("comando nulo")
	}
	select {
	case q.ch <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// Len retorna quantos comandos aguardam envio
func (q *CommandQueue) Len() int {
	return len(q.ch)
}

// drain remove exatamente os comandos presentes no momento da chamada.
// Comandos enfileirados durante o envio ficam para a próxima iteração.
func (q *CommandQueue) drain() []models.Command {
	n := len(q.ch)
	if n == 0 {
		return nil
	}
	out := make([]models.Command, 0, n)
	for i := 0; i < n; i++ {
		select {
		case cmd := <-q.ch:
			out = append(out, cmd)
		default:
			return out
		}
	}
	return out
}
