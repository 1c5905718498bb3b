package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/jobscout-api/internal/mailer"
)

// MockSender implements mailer.Sender for testing and records every message.
type MockSender struct {
	SendFn func(ctx context.Context, msgs ...*mailer.Message) error
	Err    error

	mu   sync.Mutex
	sent []*mailer.Message
}

var _ mailer.Sender = (*MockSender)(nil)

// Send implements the mailer.Sender interface. Messages are recorded only
// when the send succeeds.
func (m *MockSender) Send(ctx context.Context, msgs ...*mailer.Message) error {
	var err error
	if m.SendFn != nil {
		err = m.SendFn(ctx, msgs...)
	} else {
		err = m.Err
	}
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.sent = append(m.sent, msgs...)
	m.mu.Unlock()
	return nil
}

// Sent returns the delivered messages.
func (m *MockSender) Sent() []*mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*mailer.Message(nil), m.sent...)
}
