package output

import (
	"context"

	"go.uber.org/zap"
)

// LogOutput writes notifications to the application log.
type LogOutput struct {
	log *zap.Logger
}

// NewLogOutput creates a log output. A nil logger discards messages.
func NewLogOutput(log *zap.Logger) *LogOutput {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogOutput{log: log.Named("notify")}
}

func (l *LogOutput) Name() string { return "log" }

func (l *LogOutput) Send(_ context.Context, message string) error {
	l.log.Info("notification", zap.String("message", message))
	return nil
}

func (l *LogOutput) Close() error { return nil }
