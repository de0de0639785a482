package mailer

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/prestigeforum/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type smtpCapture struct {
	addr string
	rcpt string
	data string
	done chan struct{}
}

func startSMTPServer(t *testing.T) *smtpCapture {
	t.Helper()

	listener, err := (&net.ListenConfig{}).Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	capture := &smtpCapture{addr: listener.Addr().String(), done: make(chan struct{})}

	go func() {
		defer close(capture.done)
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		writer := bufio.NewWriter(conn)
		reader := bufio.NewReader(conn)
		writeLine := func(line string) {
			_, _ = writer.WriteString(line + "\r\n")
			_ = writer.Flush()
		}

		writeLine("220 localhost")
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\r\n")
			upper := strings.ToUpper(line)

			switch {
			case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
				writeLine("250-localhost")
				writeLine("250 OK")
			case strings.HasPrefix(upper, "MAIL FROM:"):
				writeLine("250 OK")
			case strings.HasPrefix(upper, "RCPT TO:"):
				capture.rcpt = strings.TrimSpace(line[len("RCPT TO:"):])
				writeLine("250 OK")
			case strings.HasPrefix(upper, "DATA"):
				writeLine("354 End data with <CR><LF>.<CR><LF>")
				var lines []string
				for {
					dl, err := reader.ReadString('\n')
					if err != nil {
						return
					}
					dl = strings.TrimRight(dl, "\r\n")
					if dl == "." {
						break
					}
					lines = append(lines, dl)
				}
				capture.data = strings.Join(lines, "\n")
				writeLine("250 OK")
			case strings.HasPrefix(upper, "QUIT"):
				writeLine("221 Bye")
				return
			default:
				writeLine("250 OK")
			}
		}
	}()

	return capture
}

func TestSender_SendsHTMLMail(t *testing.T) {
	srv := startSMTPServer(t)
	host, port, err := net.SplitHostPort(srv.addr)
	require.NoError(t, err)

	s := NewSender(Config{Host: host, Port: port, From: "noreply@forum.dev", FromName: "Prestige Forum"})
	err = s.Send(context.Background(), Message{To: "alice@example.com", Subject: "Hi\r\nBcc: evil@x", HTML: "<p>hello</p>"})
	require.NoError(t, err)

	select {
	case <-srv.done:
	case <-time.After(2 * time.Second):
		t.Fatal("smtp server did not finish")
	}

	assert.Equal(t, "<alice@example.com>", srv.rcpt)
	assert.Contains(t, srv.data, "From: Prestige Forum <noreply@forum.dev>")
	assert.Contains(t, srv.data, "Subject: HiBcc: evil@x")
	assert.Contains(t, srv.data, "Content-Type: text/html; charset=UTF-8")
	assert.Contains(t, srv.data, "<p>hello</p>")
}

func TestSender_NotConfigured(t *testing.T) {
	s := NewSender(Config{})
	assert.False(t, s.IsConfigured())
	err := s.Send(context.Background(), Message{To: "a@b.c"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSender_WrapsTransportError(t *testing.T) {
	s := NewSender(Config{Host: "smtp.example.com", From: "noreply@forum.dev"})
	var gotAddr string
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		return errors.New("connection refused")
	}

	err := s.Send(context.Background(), Message{To: "a@b.c", Subject: "s", HTML: "h"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a@b.c")
	assert.Equal(t, "smtp.example.com:25", gotAddr)
}

func TestSender_CanceledContext(t *testing.T) {
	s := NewSender(Config{Host: "smtp.example.com", From: "noreply@forum.dev"})
	s.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, Message{To: "a@b.c"}), context.Canceled)
}

func TestWelcome(t *testing.T) {
	m, err := Welcome(models.Identity{Email: "a@b.c", Username: "<alice>"})
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", m.To)
	assert.Contains(t, m.HTML, "&lt;alice&gt;")
	assert.Contains(t, m.HTML, "Newcomer")
}
