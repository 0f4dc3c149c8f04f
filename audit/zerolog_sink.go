package audit

import "github.com/rs/zerolog"

// ZerologSink writes audit events as structured log lines.
type ZerologSink struct {
	logger zerolog.Logger
}

func NewZerologSink(logger zerolog.Logger) *ZerologSink {
	return &ZerologSink{logger: logger.With().Str("stream", "audit").Logger()}
}

func (s *ZerologSink) Record(event Event) {
	s.logger.Info().
		Str("kind", string(event.Kind)).
		Str("identity", event.Identity).
		Str("source", event.Source).
		Str("outcome", event.Outcome).
		Time("timestamp", event.Timestamp).
		Msg("audit event")
}
