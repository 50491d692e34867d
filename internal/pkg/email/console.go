package email

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// ConsoleMailer writes every message to the log instead of delivering it
type ConsoleMailer struct {
	from   string
	logger zerolog.Logger
}

// NewConsoleMailer creates a new ConsoleMailer
func NewConsoleMailer(cfg Config, logger zerolog.Logger) *ConsoleMailer {
	return &ConsoleMailer{from: fromAddress(cfg), logger: logger}
}

// Send implements Mailer
func (c *ConsoleMailer) Send(_ context.Context, msg Message) error {
	if !msg.HasRecipients() {
		return nil
	}
	body, err := compose(c.from, msg)
	if err != nil {
		return err
	}
	c.logger.Info().Strs("to", msg.To).Str("subject", msg.Subject).Msg("email\n" + body)
	return nil
}

// MemoryMailer records messages in memory. Used by tests.
type MemoryMailer struct {
	mu   sync.Mutex
	sent []Message
	// Err, when set, is returned by Send and nothing is recorded
	Err error
}

// NewMemoryMailer creates an empty MemoryMailer
func NewMemoryMailer() *MemoryMailer {
	return &MemoryMailer{}
}

// Send implements Mailer
func (m *MemoryMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of every recorded message
func (m *MemoryMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentTo returns the recorded messages addressed to addr
func (m *MemoryMailer) SentTo(addr string) []Message {
	var out []Message
	for _, msg := range m.Sent() {
		for _, to := range msg.To {
			if to == addr {
				out = append(out, msg)
				break
			}
		}
	}
	return out
}

// Reset drops every recorded message
func (m *MemoryMailer) Reset() {
	m.mu.Lock()
	m.sent = nil
	m.mu.Unlock()
}
