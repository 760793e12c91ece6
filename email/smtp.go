package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/irsalhamdi/ecolearn/config"
)

type SMTPMailer struct {
	from string
	addr string
	auth smtp.Auth
}

func NewSMTP(cfg config.Email) *SMTPMailer {
	m := SMTPMailer{
		from: cfg.From,
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}
	if cfg.Address != "" {
		m.auth = smtp.PlainAuth("", cfg.Address, cfg.Password, cfg.Host)
	}
	return &m
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, html string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(html)
	b.WriteString("\r\n")

	return smtp.SendMail(m.addr, m.auth, envelope(m.from), []string{to}, []byte(b.String()))
}

// envelope strips a display name: "Name <a@b>" becomes "a@b".
func envelope(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		return strings.TrimSuffix(from[i+1:], ">")
	}
	return from
}
