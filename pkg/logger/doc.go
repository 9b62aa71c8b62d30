// Package logger provides a slog factory shared by the SDK packages.
//
// Components accept a *slog.Logger through their options; this package only
// builds configured instances and the common attribute helpers, it never
// holds global state.
//
// Basic usage:
//
//	log := logger.New(
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithTextFormatter(),
//	)
//	log.Info("cart refreshed", logger.Component("syncer"))
package logger
