package vehicle

import (
	"sync"

	"github.com/bluenviron/gomavlib/v3/pkg/message"

	"ufk_gcs/internal/config"
)

// fakeTransport entrega quadros de uma fila e registra as mensagens enviadas
type fakeTransport struct {
	mu      sync.Mutex
	frames  []Frame
	sent    []message.Message
	err     error
	sendErr error
	closed  bool
	onSend  func(msg message.Message) []Frame
}

func (f *fakeTransport) Poll() (Frame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.frames) == 0 {
		return nil, f.err
	}
	fr := f.frames[0]
	f.frames = f.frames[1:]
	return fr, nil
}

func (f *fakeTransport) Send(msg message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, msg)
	if f.onSend != nil {
		f.frames = append(f.frames, f.onSend(msg)...)
	}
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) push(frames ...Frame) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frames...)
}

func (f *fakeTransport) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeTransport) sentMessages() []message.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]message.Message, len(f.sent))
	copy(out, f.sent)
	return out
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func factoryFor(t *fakeTransport) TransportFactory {
	return func(config.LinkDescriptor, uint8) (Transport, error) {
		return t, nil
	}
}
