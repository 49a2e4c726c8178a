package worker

// email_worker.go
// Processes alert email jobs from QueueEmail. Sends through the SMTP circuit
// breaker so a downed relay fast-fails instead of blocking the pool.

import (
	"context"
	"encoding/json"
	"fmt"

	"stocktrack/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	ToEmail string `json:"to_email"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailWorker processes email jobs from QueueEmail.
type EmailWorker struct {
	mailer *infra.Mailer
	cb     *infra.CircuitBreaker
}

// NewEmailWorker creates an EmailWorker with the provided SMTP mailer.
func NewEmailWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker) *EmailWorker {
	return &EmailWorker{mailer: mailer, cb: cb}
}

// Process sends one alert email. A returned error triggers the pool's
// retry/DLQ handling.
func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return nil // malformed payloads are not retryable
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email — skipping")
		return nil
	}

	err := w.cb.Execute(func() error {
		return w.mailer.SendAlert(payload.ToEmail, payload.Subject, payload.Body)
	})
	if err != nil {
		log.Error().Err(err).Str("to", payload.ToEmail).Msg("email_worker: failed to send email")
		return fmt.Errorf("send alert to %s: %w", payload.ToEmail, err)
	}
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: alert sent")
	return nil
}
