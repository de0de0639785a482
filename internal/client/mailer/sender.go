// Package mailer sends the forum's transactional email over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

var ErrNotConfigured = errors.New("smtp not configured")

type Config struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	// From is the envelope sender (MAIL FROM), a bare mailbox address.
	From string `json:"from"`
	// FromName is an optional display name for the From header.
	FromName string `json:"from_name"`
}

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Sender struct {
	config Config
	auth   smtp.Auth
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSender(config Config) *Sender {
	var auth smtp.Auth
	if config.User != "" && config.Password != "" {
		auth = smtp.PlainAuth("", config.User, config.Password, config.Host)
	}
	return &Sender{config: config, auth: auth, send: smtp.SendMail}
}

func (s *Sender) IsConfigured() bool {
	return s.config.Host != "" && s.config.From != ""
}

func (s *Sender) Send(ctx context.Context, m Message) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("recipient missing")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	port := s.config.Port
	if port == "" {
		port = "25"
	}
	addr := net.JoinHostPort(s.config.Host, port)

	from := s.config.From
	if strings.TrimSpace(s.config.FromName) != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}
	to := sanitizeHeader(m.To)

	msg := []string{
		"From: " + sanitizeHeader(from),
		"To: " + to,
		"Subject: " + sanitizeHeader(m.Subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
		"",
		m.HTML,
	}

	if err := s.send(addr, s.auth, s.config.From, []string{to}, []byte(strings.Join(msg, "\r\n"))); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", "")
}
