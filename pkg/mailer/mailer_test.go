package mailer

import (
	"context"
	"io"
	"net/smtp"
	"strings"
	"testing"

	"myshop-backend/pkg/config"
	pkgerrors "myshop-backend/pkg/errors"
	"myshop-backend/pkg/logger"
)

func testSMTPConfig() config.SMTPConfig {
	return config.SMTPConfig{
		Host:        "smtp.test",
		Port:        2525,
		Username:    "mailer",
		Password:    "secret",
		DefaultFrom: "noreply@myshop.test",
	}
}

func TestSendBuildsMessage(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	m, err := NewSMTPMailer(testSMTPConfig(), logg)
	if err != nil {
		t.Fatalf("new mailer: %v", err)
	}

	var capturedAddr, capturedFrom string
	var capturedTo []string
	var capturedRaw []byte
	m.sendFunc = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		capturedAddr = addr
		capturedFrom = from
		capturedTo = to
		capturedRaw = msg
		return nil
	}

	err = m.Send(context.Background(), Message{
		To:      "customer@example.com",
		Subject: "Your order is on the way",
		Body:    "Expected delivery in 3 days.",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if capturedAddr != "smtp.test:2525" {
		t.Fatalf("unexpected addr %q", capturedAddr)
	}
	if capturedFrom != "noreply@myshop.test" {
		t.Fatalf("unexpected from %q", capturedFrom)
	}
	if len(capturedTo) != 1 || capturedTo[0] != "customer@example.com" {
		t.Fatalf("unexpected recipients %v", capturedTo)
	}

	raw := string(capturedRaw)
	for _, want := range []string{
		"From: noreply@myshop.test\r\n",
		"To: customer@example.com\r\n",
		"Subject: Your order is on the way\r\n",
		"Expected delivery in 3 days.",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSendValidatesRecipient(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	m, err := NewSMTPMailer(testSMTPConfig(), logg)
	if err != nil {
		t.Fatalf("new mailer: %v", err)
	}

	err = m.Send(context.Background(), Message{Subject: "hi"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if domainErr := pkgerrors.As(err); domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSendMapsRelayFailure(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	m, err := NewSMTPMailer(testSMTPConfig(), logg)
	if err != nil {
		t.Fatalf("new mailer: %v", err)
	}
	m.sendFunc = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return io.ErrUnexpectedEOF
	}

	err = m.Send(context.Background(), Message{To: "customer@example.com", Subject: "hi", Body: "x"})
	if err == nil {
		t.Fatal("expected relay error")
	}
	if domainErr := pkgerrors.As(err); domainErr == nil || domainErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestNewSMTPMailerValidation(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	if _, err := NewSMTPMailer(config.SMTPConfig{DefaultFrom: "a@b.c"}, logg); err == nil {
		t.Fatal("expected host error")
	}
	if _, err := NewSMTPMailer(config.SMTPConfig{Host: "smtp.test"}, logg); err == nil {
		t.Fatal("expected from error")
	}
	if _, err := NewSMTPMailer(testSMTPConfig(), nil); err == nil {
		t.Fatal("expected logger error")
	}
}
