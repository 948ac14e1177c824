// Package logger builds configured slog.Logger instances with sane defaults
// for both development (text, debug) and production (JSON, info).
//
// The returned logger supports context attribute injection: extractors
// registered at construction pull request-scoped values (session id, request
// id) out of the context on every log call.
//
// # Usage
//
//	log := logger.New(logger.WithProduction("sessionstore"))
//	logger.SetAsDefault(log)
//
//	log.Info("session archived", logger.SessionID(sid))
package logger
