// Package logger provides structured logging for the reel bot.
//
// It wraps zerolog behind a small Logger interface. Output goes to stdout as
// colored console lines when stdout is a terminal, and as JSON lines
// otherwise. A log file can be configured in addition to stdout.
//
// Basic Usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	logger.Info("Bot started")
//
//	log := logger.ForRequest(logger.GetLogger(), requestID, userID, chatID)
//	log.WithField("url", reelURL).Info("Processing reel")
//
// Tests can use NewTestLogger to capture and assert on messages, or
// NewNopLogger to discard them.
package logger
