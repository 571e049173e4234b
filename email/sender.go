package email

import (
	"fmt"
	"net/smtp"
	"os"
	"strings"
)

// Sender delivers one HTML email
type Sender interface {
	Send(to, subject string, htmlBody []byte) error
}

// SMTPSender sends mail over STARTTLS-capable SMTP with plain auth
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPSenderFromEnv configures the sender from SMTP_HOST, SMTP_PORT,
// EMAIL_USER, EMAIL_PASS and EMAIL_FROM. Returns nil when credentials are
// missing; callers treat a nil sender as "email disabled".
func NewSMTPSenderFromEnv() *SMTPSender {
	user := os.Getenv("EMAIL_USER")
	pass := os.Getenv("EMAIL_PASS")
	if user == "" || pass == "" {
		return nil
	}

	host := os.Getenv("SMTP_HOST")
	if host == "" {
		host = "smtp.gmail.com"
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = user
	}
	return &SMTPSender{host: host, port: port, username: user, password: pass, from: from}
}

// Send delivers one message as a text/html MIME part
func (s *SMTPSender) Send(to, subject string, htmlBody []byte) error {
	var msg strings.Builder
	msg.WriteString("From: " + s.from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.Write(htmlBody)

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := s.host + ":" + s.port
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}
