// Package mailer delivers transactional email over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// ErrDisabled is returned by the disabled mailer when no SMTP host is configured.
var ErrDisabled = errors.New("mailer: smtp not configured")

// Message is a single outgoing email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig configures the SMTP transport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// New returns an SMTP mailer, or a disabled mailer when cfg.Host is empty.
func New(cfg SMTPConfig, logger *zap.Logger) (Mailer, error) {
	if cfg.Host == "" {
		return Disabled{}, nil
	}
	return NewSMTP(cfg, logger)
}

// Disabled rejects every message with ErrDisabled.
type Disabled struct{}

// Send implements Mailer.
func (Disabled) Send(context.Context, Message) error {
	return ErrDisabled
}

// SMTP sends mail through one SMTP relay. A circuit breaker stops hammering
// the relay when it keeps failing.
type SMTP struct {
	client  *mail.Client
	from    string
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewSMTP builds the SMTP transport.
func NewSMTP(cfg SMTPConfig, logger *zap.Logger) (*SMTP, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &SMTP{client: client, from: cfg.From, breaker: breaker, logger: logger}, nil
}

// Send implements Mailer.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	m.Subject(msg.Subject)
	if msg.Text != "" {
		m.SetBodyString(mail.TypeTextPlain, msg.Text)
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	} else {
		m.SetBodyString(mail.TypeTextHTML, msg.HTML)
	}

	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.client.DialAndSendWithContext(ctx, m)
	})
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
