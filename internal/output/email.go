package output

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"os"
	"strings"
)

const defaultSubject = "New contact message"

// EmailOutput sends notifications via SMTP.
type EmailOutput struct {
	to       string
	from     string
	subject  string
	addr     string
	host     string
	username string
	password string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailOutput creates an email output. SMTP settings come from the
// environment: SMTP_HOST, SMTP_PORT (default 587), SMTP_USER, SMTP_PASS and
// SMTP_FROM.
func NewEmailOutput(to, subject string) (*EmailOutput, error) {
	if to == "" {
		return nil, fmt.Errorf("email recipient (to) is required")
	}
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return nil, fmt.Errorf("SMTP_HOST environment variable not set")
	}
	from := os.Getenv("SMTP_FROM")
	if from == "" {
		return nil, fmt.Errorf("SMTP_FROM environment variable not set")
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	if subject == "" {
		subject = defaultSubject
	}

	return &EmailOutput{
		to:       to,
		from:     from,
		subject:  subject,
		addr:     net.JoinHostPort(host, port),
		host:     host,
		username: os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASS"),
		send:     smtp.SendMail,
	}, nil
}

// Name returns "email".
func (e *EmailOutput) Name() string {
	return "email"
}

// To returns the recipient.
func (e *EmailOutput) To() string { return e.to }

// Subject returns the subject line.
func (e *EmailOutput) Subject() string { return e.subject }

// Send delivers message as a plain text mail. smtp.SendMail takes no context,
// so ctx is only checked before dialing.
func (e *EmailOutput) Send(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if e.username != "" && e.password != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.host)
	}

	if err := e.send(e.addr, auth, e.from, []string{e.to}, e.compose(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (e *EmailOutput) compose(message string) []byte {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", e.from)
	fmt.Fprintf(&msg, "To: %s\r\n", e.to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", e.subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(strings.ReplaceAll(message, "\n", "\r\n"))
	return []byte(msg.String())
}

// Close is a no-op for email output.
func (e *EmailOutput) Close() error {
	return nil
}
