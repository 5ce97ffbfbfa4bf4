// Package structlog emits structured log records as single-line JSON,
// encoded with rs/zerolog, with layered context fields and a per-name
// logger registry.
//
// Key features
//   - Five fixed levels (DEBUG=10 .. CRITICAL=50); unknown level names
//     parse as INFO instead of failing
//   - Field precedence, lowest first: factory globals, the logger's base
//     fields, permanent layers (WithContext), open scopes (Scope), and the
//     fields passed to the call
//   - A Factory that returns the same *Logger for the same name and can
//     broadcast a level or global fields to every registered logger
//   - Scopes that are removed on every exit path and panic on unbalanced use
//   - LogExecution and LogErrors decorators for func(A) (R, error)
//   - The reserved "exception" field expands into error_type,
//     error_message, error_chain and stacktrace (outermost call first)
//
// Typical usage
//
//	f, err := structlog.NewFactory(structlog.Config{
//		DefaultLevel: "info",
//		GlobalFields: structlog.Fields{"env": "prod"},
//	})
//	if err != nil { panic(err) }
//	defer f.Close()
//
//	log := f.GetLogger("app.auth")
//	log.WithContext(structlog.Fields{"request_id": rid})
//	_ = log.Info("login", structlog.Fields{"user_id": id})
//	log.ErrorWith().Err(err).Str("op", "token").Msg("refresh failed")
package structlog
