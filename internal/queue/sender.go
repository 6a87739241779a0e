package queue

import (
	"context"
	"fmt"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// SMTPSender delivers mail through a plain SMTP relay.
type SMTPSender struct {
	Addr string
	From string
	Auth smtp.Auth
}

// NewSMTPSender returns a sender for addr ("host:port"). PLAIN auth is used
// when user is set.
func NewSMTPSender(addr, from, user, pass string) *SMTPSender {
	s := &SMTPSender{Addr: addr, From: from}
	if user != "" {
		host, _, _ := strings.Cut(addr, ":")
		s.Auth = smtp.PlainAuth("", user, pass, host)
	}
	return s
}

func (s *SMTPSender) Send(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := strings.Join([]string{
		"From: " + s.From,
		"To: " + recipient,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")
	if err := smtp.SendMail(s.Addr, s.Auth, s.From, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", recipient, err)
	}
	return nil
}

// FileSender appends one line per message to a log file. It is the default
// when no SMTP relay is configured.
type FileSender struct {
	Path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewFileSender(path string) *FileSender {
	if path == "" {
		path = filepath.Join("logs", "booking.log")
	}
	return &FileSender{Path: path, now: time.Now}
}

func (s *FileSender) Send(_ context.Context, recipient, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] to=%s | subject=%q | body=%q\n",
		s.now().UTC().Format(time.RFC3339), recipient, subject, body)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
