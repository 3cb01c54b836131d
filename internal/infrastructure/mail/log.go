package mail

import (
	"context"

	"github.com/rs/zerolog"
)

// LogMailer implements ports.Mailer by logging the envelope instead of
// sending. It is used when no SMTP host is configured.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.log.Info().
		Str("to", to).
		Str("subject", subject).
		Int("body_bytes", len(htmlBody)).
		Msg("smtp not configured, email not delivered")
	return nil
}
