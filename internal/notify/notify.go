// Package notify delivers customer notifications rendered by the
// Notifications capability. Delivery is mirrored to an operator channel
// (Slack, Telegram) or just logged when none is configured.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/contactdesk/contactdesk/pkg/logger"
)

var ErrNotConfigured = errors.New("notify: sender not configured")

// Message is one rendered notification.
type Message struct {
	Channel  string // customer channel: email, sms, push, whatsapp, voice_call
	To       string
	Template string
	Subject  string
	Body     string
}

// Text renders m as a single operator-facing line block.
func (m Message) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] to %s", m.Channel, m.To)
	if m.Template != "" {
		fmt.Fprintf(&b, " (%s)", m.Template)
	}
	if m.Subject != "" {
		b.WriteString("\n")
		b.WriteString(m.Subject)
	}
	if m.Body != "" {
		b.WriteString("\n")
		b.WriteString(m.Body)
	}
	return b.String()
}

// Sender delivers a message and returns a transport-specific receipt.
type Sender interface {
	Name() string
	Send(ctx context.Context, m Message) (string, error)
}

// LogSender only records the notification in the log.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(l *logger.Logger) *LogSender {
	if l == nil {
		l = logger.Get()
	}
	return &LogSender{log: l.Named("notify")}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Send(_ context.Context, m Message) (string, error) {
	s.log.Infow("Notification", "channel", m.Channel, "to", m.To, "template", m.Template, "subject", m.Subject)
	return "logged", nil
}

// Config selects the operator channel. Slack wins over Telegram when both
// are configured.
type Config struct {
	SlackToken     string
	SlackChannel   string
	SlackAPIURL    string // override for tests and Slack-compatible gateways
	TelegramToken  string
	TelegramChatID string
	TelegramAPI    string // endpoint format, defaults to the public Bot API
}

// New returns the sender selected by cfg.
func New(cfg Config, l *logger.Logger) (Sender, error) {
	switch {
	case cfg.SlackToken != "":
		if cfg.SlackChannel == "" {
			return nil, fmt.Errorf("%w: slack channel is empty", ErrNotConfigured)
		}
		return NewSlackSender(cfg.SlackToken, cfg.SlackChannel, cfg.SlackAPIURL), nil
	case cfg.TelegramToken != "":
		return NewTelegramSender(cfg.TelegramToken, cfg.TelegramChatID, cfg.TelegramAPI)
	default:
		return NewLogSender(l), nil
	}
}
