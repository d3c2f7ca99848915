package competition

import (
	"fmt"
	"strings"
)

// SyncError é a falha de uma operação com o servidor de competição.
// Fatal só é verdadeiro para o login; as demais falhas não param o laço.
type SyncError struct {
	Op    string
	Fatal bool
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sincronização %s: %v", e.Op, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// StatusError é uma resposta não-200 do servidor; Body traz o detalhe
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, body)
}
