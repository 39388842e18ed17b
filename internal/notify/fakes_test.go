package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/yukikurage/taskflow-api/internal/mail"
)

type recordingMailer struct {
	mu       sync.Mutex
	messages []mail.Message
	failFor  map[string]bool
	panicFor map[string]bool
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{failFor: map[string]bool{}, panicFor: map[string]bool{}}
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	if m.panicFor[msg.To] {
		panic("smtp exploded")
	}
	if m.failFor[msg.To] {
		return errors.New("smtp unavailable")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *recordingMailer) sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mail.Message, len(m.messages))
	copy(out, m.messages)
	return out
}
