// Package mail delivers notification emails over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gomail "github.com/wneessen/go-mail"
	"golang.org/x/time/rate"

	"github.com/rpggio/projmon/internal/domain/notify"
)

const (
	defaultPort          = 587
	defaultRatePerSecond = 2
	defaultBurst         = 1
)

// ErrInvalidMessage is returned when a message cannot be built from its
// addresses or body.
var ErrInvalidMessage = errors.New("invalid message")

// Config holds SMTP settings. An empty Host selects the logging sender.
type Config struct {
	Host          string
	Port          int
	Username      string
	Password      string
	RatePerSecond float64
	Burst         int
}

// New returns a throttled sender for cfg.
func New(cfg Config, logger *slog.Logger) (notify.Sender, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var sender notify.Sender
	if strings.TrimSpace(cfg.Host) == "" {
		logger.Warn("mail host not configured, emails will only be logged")
		sender = &LogSender{logger: logger}
	} else {
		smtp, err := NewSMTPSender(cfg, logger)
		if err != nil {
			return nil, err
		}
		sender = smtp
	}

	return Throttle(sender, cfg.RatePerSecond, cfg.Burst), nil
}

// SMTPSender sends one message per call through an SMTP relay.
type SMTPSender struct {
	client *gomail.Client
	logger *slog.Logger
}

// NewSMTPSender configures a client for the relay. No connection is made
// until the first Send.
func NewSMTPSender(cfg Config, logger *slog.Logger) (*SMTPSender, error) {
	if logger == nil {
		logger = slog.Default()
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	opts := []gomail.Option{
		gomail.WithPort(port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating smtp client: %w", err)
	}
	return &SMTPSender{client: client, logger: logger}, nil
}

// Send delivers an HTML message.
func (s *SMTPSender) Send(ctx context.Context, to, from, subject, htmlBody string) error {
	msg, err := buildMessage(to, from, subject, htmlBody)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	s.logger.Debug("mail sent", "to", to, "subject", subject)
	return nil
}

func buildMessage(to, from, subject, htmlBody string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("%w: from %q: %v", ErrInvalidMessage, from, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("%w: to %q: %v", ErrInvalidMessage, to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)
	return msg, nil
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender returns a LogSender. Nil logger falls back to slog.Default().
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to, from, subject, htmlBody string) error {
	s.logger.Info("mail (not sent)", "to", to, "from", from, "subject", subject, "bytes", len(htmlBody))
	return nil
}

type throttled struct {
	next    notify.Sender
	limiter *rate.Limiter
}

// Throttle limits next to perSecond sends with the given burst. Zero values
// use the defaults.
func Throttle(next notify.Sender, perSecond float64, burst int) notify.Sender {
	if perSecond <= 0 {
		perSecond = defaultRatePerSecond
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	return &throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

func (t *throttled) Send(ctx context.Context, to, from, subject, htmlBody string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail rate limiter: %w", err)
	}
	return t.next.Send(ctx, to, from, subject, htmlBody)
}
