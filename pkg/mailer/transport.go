package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"time"

	"anoa.com/handchatter/pkg/logger"
)

// Client is the subset of *smtp.Client used to deliver one message.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer opens an authenticated SMTP session.
type Dialer interface {
	Dial(ctx context.Context) (Client, error)
}

type TransportConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

// Transport dials an SMTP server, upgrades with STARTTLS and authenticates
// with PLAIN auth.
type Transport struct {
	cfg TransportConfig
}

func NewTransport(cfg TransportConfig) *Transport {
	return &Transport{cfg: cfg}
}

type smtpClientWrapper struct {
	client *smtp.Client
}

func (w *smtpClientWrapper) Mail(from string) error       { return w.client.Mail(from) }
func (w *smtpClientWrapper) Rcpt(to string) error         { return w.client.Rcpt(to) }
func (w *smtpClientWrapper) Data() (io.WriteCloser, error) { return w.client.Data() }
func (w *smtpClientWrapper) Quit() error                  { return w.client.Quit() }
func (w *smtpClientWrapper) Close() error                 { return w.client.Close() }

// Dial connects to the server. The context deadline, if any, is applied to
// the underlying connection so a stalled server cannot block the caller.
func (t *Transport) Dial(ctx context.Context) (Client, error) {
	log := logger.WithComponent("mailer")
	addr := net.JoinHostPort(t.cfg.Host, t.cfg.Port)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		log.WithError(err).Error("failed to dial SMTP server")
		return nil, fmt.Errorf("failed to dial SMTP server: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		log.WithError(err).Error("failed to create SMTP client")
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if ok, _ := client.Extension("STARTTLS"); !ok {
		_ = client.Close()
		return nil, fmt.Errorf("smtp server does not support STARTTLS")
	}
	tlsConfig := &tls.Config{
		ServerName: t.cfg.Host,
		MinVersion: tls.VersionTLS12,
	}
	if err = client.StartTLS(tlsConfig); err != nil {
		log.WithError(err).Error("failed to start TLS")
		_ = client.Close()
		return nil, fmt.Errorf("failed to start TLS: %w", err)
	}

	auth := smtp.PlainAuth("", t.cfg.User, t.cfg.Password, t.cfg.Host)
	if err = client.Auth(auth); err != nil {
		log.WithError(err).Error("smtp auth failed")
		_ = client.Close()
		return nil, fmt.Errorf("smtp auth failed: %w", err)
	}

	return &smtpClientWrapper{client: client}, nil
}
