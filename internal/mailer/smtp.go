package mailer

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/mail.v2"
)

type SMTPMailer struct {
	dialer    *mail.Dialer
	fromEmail string
	backoff   time.Duration
}

func NewSMTPMailer(host string, port int, username, password, fromEmail string) (*SMTPMailer, error) {
	if host == "" {
		return nil, errors.New("smtp host is required")
	}
	if fromEmail == "" {
		return nil, errors.New("from email is required")
	}

	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = 10 * time.Second

	return &SMTPMailer{
		dialer:    dialer,
		fromEmail: fromEmail,
		backoff:   time.Second,
	}, nil
}

func (m *SMTPMailer) Send(templateFile, username, email string, data any) (int, error) {
	subject, body, err := render(templateFile, data)
	if err != nil {
		return -1, err
	}

	msg := mail.NewMessage()
	msg.SetAddressHeader("From", m.fromEmail, FromName)
	msg.SetAddressHeader("To", email, username)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if err := m.dialer.DialAndSend(msg); err != nil {
			lastErr = err
			// exponential backoff
			time.Sleep(m.backoff << i)
			continue
		}
		return 250, nil
	}

	return -1, fmt.Errorf("failed to send email after %d attempts: %w", maxRetries, lastErr)
}
