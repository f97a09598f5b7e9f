// Package logger provides structured logging for tweetscraper on top of
// zerolog.
//
// Console output is colored and written to stderr, so stdout carries only
// the fetched records. When a log file is configured, events go to both.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//		return err
//	}
//	log := logger.WithField("run_id", runID)
//	log.InfoWithFields("Fetching timeline", map[string]interface{}{
//		"user_id": "2244994945",
//	})
//
// Tests use NewTestLogger to capture and inspect messages, or NewNopLogger
// to discard them.
package logger
