// Package plog provides the settable-level, settable-formatter
// log/slog handler kupferbootstrap installs as its default logger.
//
//	handler := plog.NewHandler()
//	handler.SetLevel(slog.LevelDebug)
//	slog.SetDefault(slog.New(handler.WithGroup("kupferbootstrap")))
package plog
