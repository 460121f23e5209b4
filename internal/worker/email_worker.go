package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail. ToEmail may hold
// several comma separated owner addresses.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender delivers a plain-text email to every recipient in one message.
type Sender interface {
	Send(to []string, subject, body string) error
}

// EmailWorker processes alert e-mails from QueueEmail.
type EmailWorker struct {
	sender Sender
}

func NewEmailWorker(sender Sender) *EmailWorker {
	return &EmailWorker{sender: sender}
}

// Process sends one alert. Malformed addresses are dropped; a job left with
// no valid recipient is discarded instead of retried.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("email_worker: invalid payload: %w", err)
	}

	to := Destinatarios(payload.ToEmail)
	if len(to) == 0 {
		log.Warn().Str("subject", payload.Subject).Msg("email_worker: no valid recipient, skipping")
		return nil
	}
	if strings.TrimSpace(payload.Subject) == "" {
		return errors.New("email_worker: empty subject")
	}

	if err := w.sender.Send(to, payload.Subject, payload.Body); err != nil {
		return fmt.Errorf("email_worker: send %q: %w", payload.Subject, err)
	}
	log.Info().Strs("to", to).Str("subject", payload.Subject).Msg("email_worker: alert sent")
	return nil
}

// Destinatarios splits a comma separated address list, keeping the bare
// address of each valid entry once.
func Destinatarios(list string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		addr, err := mail.ParseAddress(part)
		if err != nil {
			log.Warn().Str("address", part).Msg("email_worker: invalid address")
			continue
		}
		key := strings.ToLower(addr.Address)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, addr.Address)
	}
	return out
}
