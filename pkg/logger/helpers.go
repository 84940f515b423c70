package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// ForRequest returns a logger tagged with the request identifiers of one
// incoming chat update
func ForRequest(base Logger, requestID string, userID, chatID int64) Logger {
	return base.WithFields(map[string]interface{}{
		"request_id": requestID,
		"user_id":    userID,
		"chat_id":    chatID,
	})
}

// LogStep logs the outcome of one pipeline step
func LogStep(l Logger, step string, started time.Time, err error) {
	l = l.WithFields(map[string]interface{}{
		"step":     step,
		"duration": time.Since(started),
	})
	if err != nil {
		l.WithError(err).Warn("Step failed")
		return
	}
	l.Debug("Step completed")
}

// LogComponentStart logs when a component starts
func LogComponentStart(component string, config map[string]interface{}) {
	l := GetLogger().WithField("component", component)
	if len(config) > 0 {
		l = l.WithFields(config)
	}
	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(component string, reason string) {
	GetLogger().WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(string)                             {}
func (n *nopLogger) Info(string)                              {}
func (n *nopLogger) Warn(string)                              {}
func (n *nopLogger) Error(string)                             {}
func (n *nopLogger) WithField(string, interface{}) Logger     { return n }
func (n *nopLogger) WithFields(map[string]interface{}) Logger { return n }
func (n *nopLogger) WithError(error) Logger                   { return n }
func (n *nopLogger) GetZerolog() *zerolog.Logger              { l := zerolog.Nop(); return &l }
