// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production).
//
// # Run correlation
//
// Every CLI invocation gets a run id. WithRunID attaches it to the logger so
// that all entries written by one import, build or pack run can be correlated.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log = logger.WithRunID(log, logger.NewRunID())
//	log.Info("Pack started")
package logger
