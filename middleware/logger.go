package middleware

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Camilejo/TallerBDRedis/adapters/controller"
	"github.com/Camilejo/TallerBDRedis/model"
)

// Logger decorates the ingest service with per-call duration logging.
type Logger struct {
	svc    model.IIngest
	logger zerolog.Logger
}

func NewLogger(conf controller.ControllerConfig, svc model.IIngest) *Logger {
	return &Logger{
		svc:    svc,
		logger: zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).Level(zerolog.Level(conf.LogLevel + 1)).With().Timestamp().Int("pid", os.Getpid()).Logger(),
	}
}

func (l *Logger) Ingest(payload []byte) error {
	defer func(timeCalled time.Time) {
		l.logger.Info().Int64("duration", time.Now().Sub(timeCalled).Milliseconds()).Msg("Payload ingested in ms")
	}(time.Now())
	return l.svc.Ingest(payload)
}
