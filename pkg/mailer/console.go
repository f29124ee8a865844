package mailer

import (
	"context"

	"go.uber.org/zap"
)

// ConsoleSender logs messages instead of delivering them. Used in
// development and whenever no SendGrid key is configured.
type ConsoleSender struct {
	logger *zap.Logger
}

// NewConsoleSender builds a logging sender.
func NewConsoleSender(logger *zap.Logger) *ConsoleSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleSender{logger: logger}
}

// Send writes the message to the log.
func (s *ConsoleSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email (console)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}
