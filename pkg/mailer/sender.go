package mailer

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"time"
)

// Sender delivers a single HTML message.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type smtpSender struct {
	dialer  Dialer
	from    string
	timeout time.Duration
}

// NewSMTPSender returns a Sender that bounds every delivery by timeout.
func NewSMTPSender(dialer Dialer, from string, timeout time.Duration) Sender {
	return &smtpSender{dialer: dialer, from: from, timeout: timeout}
}

func (s *smtpSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	client, err := s.dialer.Dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err = client.Mail(s.from); err != nil {
		return fmt.Errorf("failed to set mail sender: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient %s: %w", to, err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get write closer: %w", err)
	}
	if _, err = wc.Write([]byte(BuildMessage(s.from, to, subject, htmlBody))); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = wc.Close(); err != nil {
		return fmt.Errorf("failed to close write closer: %w", err)
	}

	if err = client.Quit(); err != nil {
		return fmt.Errorf("failed to quit smtp session: %w", err)
	}
	return nil
}

// BuildMessage renders an RFC 5322 message with an HTML body.
func BuildMessage(from, to, subject, htmlBody string) string {
	return strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		htmlBody,
	}, "\r\n")
}
