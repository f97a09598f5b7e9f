package logger

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs a completed Twitter API request at a level matching its status
func LogRequest(log Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 500:
		log.ErrorWithFields("HTTP request server error", fields)
	case statusCode == http.StatusTooManyRequests:
		log.WarnWithFields("HTTP request rate limited", fields)
	case statusCode >= 400:
		log.WarnWithFields("HTTP request client error", fields)
	default:
		log.DebugWithFields("HTTP request completed", fields)
	}
}

// LogRateLimit logs a rate limit rejection and the backoff that follows it
func LogRateLimit(log Logger, userID string, retry, maxRetries int, wait time.Duration) {
	log.WarnWithFields("Too many requests, backing off", map[string]interface{}{
		"user_id":     userID,
		"retry":       retry,
		"max_retries": maxRetries,
		"wait":        wait,
		"action":      "rate_limited",
	})
}

// LogFetchProgress logs the running totals after a page
func LogFetchProgress(log Logger, userID string, page, tweets, users int) {
	log.InfoWithFields("Fetch progress", map[string]interface{}{
		"user_id": userID,
		"page":    page,
		"tweets":  tweets,
		"users":   users,
	})
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

// nopLogger is a logger that does nothing
type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
