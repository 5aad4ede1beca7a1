// Package mail sends the few transactional emails the marketplace needs.
package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"marketplace/internal/logger"
)

const resetSubject = "Password Reset Request"

// Message is a plain-text email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Sender delivers a message. Implementations must respect ctx cancellation
// before starting delivery.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ResetEmail builds the password reset message for a user.
func ResetEmail(from, to, link string, expiry time.Duration) Message {
	var b strings.Builder
	b.WriteString("To reset your password, visit the following link:\n")
	b.WriteString(link)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "This link expires in %d seconds.\n\n", int(expiry/time.Second))
	b.WriteString("If you did not make this request, simply ignore this email and no changes will be made.\n")
	return Message{From: from, To: to, Subject: resetSubject, Body: b.String()}
}

// SMTPSender delivers mail through an SMTP relay with optional PLAIN auth.
type SMTPSender struct {
	addr string
	host string
	auth smtp.Auth
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(host string, port int, username, password string) *SMTPSender {
	s := &SMTPSender{
		addr: net.JoinHostPort(host, strconv.Itoa(port)),
		host: host,
		send: smtp.SendMail,
	}
	if username != "" {
		s.auth = smtp.PlainAuth("", username, password, host)
	}
	return s
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.send(s.addr, s.auth, msg.From, []string{msg.To}, encode(msg)); err != nil {
		return fmt.Errorf("send mail to %s via %s: %w", msg.To, s.addr, err)
	}
	return nil
}

func encode(msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + msg.From + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// LogSender writes messages to the log instead of sending them. Used when no
// SMTP host is configured.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.log != nil {
		s.log.Infow("mail_logged", "from", msg.From, "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	}
	return nil
}
