package infra

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/JoaquinRodriguez332/gesticom/internal/config"

	"github.com/jordan-wright/email"
)

// Mailer sends plain-text alert e-mails. Calls go through a circuit breaker
// so a dead SMTP relay fails fast instead of holding up the email queue.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	cb       *CircuitBreaker
	send     func(e *email.Email, addr string, auth smtp.Auth) error
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		cb:       NewCircuitBreaker(DefaultCBConfig()),
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// Send delivers one message to all recipients. Returns ErrCircuitOpen while
// the relay is considered down.
func (m *Mailer) Send(to []string, subject, body string) error {
	e := email.NewEmail()
	e.From = m.user
	e.To = to
	e.Subject = subject
	e.Text = []byte(body)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	return m.cb.Execute(func() error {
		if err := m.send(e, m.addr, auth); err != nil {
			return fmt.Errorf("mailer: send to %s: %w", strings.Join(to, ","), err)
		}
		return nil
	})
}

// BreakerState exposes the relay breaker for the health endpoint.
func (m *Mailer) BreakerState() CBState { return m.cb.State() }
