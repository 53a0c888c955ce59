package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"myshop-backend/pkg/config"
	pkgerrors "myshop-backend/pkg/errors"
	"myshop-backend/pkg/logger"
)

var (
	errHostRequired   = errors.New("smtp host is required")
	errFromRequired   = errors.New("smtp default from address is required")
	errLoggerRequired = errors.New("mailer logger is required")
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	addr     string
	host     string
	username string
	password string
	from     string
	logger   *logger.Logger

	// sendFunc is swapped in tests to avoid dialing a relay.
	sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer validates the relay config and returns a Mailer.
func NewSMTPMailer(cfg config.SMTPConfig, logg *logger.Logger) (*SMTPMailer, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return nil, errHostRequired
	}
	from := strings.TrimSpace(cfg.DefaultFrom)
	if from == "" {
		return nil, errFromRequired
	}
	port := cfg.Port
	if port <= 0 {
		port = 587
	}

	return &SMTPMailer{
		addr:     fmt.Sprintf("%s:%d", host, port),
		host:     host,
		username: strings.TrimSpace(cfg.Username),
		password: cfg.Password,
		from:     from,
		logger:   logg,
		sendFunc: smtp.SendMail,
	}, nil
}

// Send delivers one message through the relay. Delivery failures map to a
// dependency error so callers can decide whether to surface or swallow them.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if m == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "mailer not configured")
	}
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient address is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subject is required")
	}

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	raw := buildRFC822(m.from, to, msg.Subject, msg.Body)
	if err := m.sendFunc(m.addr, auth, m.from, []string{to}, raw); err != nil {
		m.logger.Error(m.logger.WithFields(ctx, map[string]any{
			"subject": msg.Subject,
		}), "smtp send failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "smtp send failed")
	}

	m.logger.Info(m.logger.WithFields(ctx, map[string]any{
		"subject": msg.Subject,
	}), "email sent")
	return nil
}

func buildRFC822(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
