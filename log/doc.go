// Package log provides a simplified structured logging interface based
// on [log/slog].
//
// The package offers configurable time formatting, caller information,
// and output formats applied at logger creation time using functional
// options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithPretty(true))
//	logger.Info("document loaded", slog.Int("templates", n))
//
// Five levels are supported: Trace, Debug, Info, Warn, and Error. Each
// level has a context-aware and a context-unaware variant; the latter
// delegates using [DefaultContextProvider].
//
// The zero-value [Logger] is a no-op, so library types can hold one
// unconditionally and callers opt in to diagnostics.
//
// A package-level default logger (writing to stderr) backs the
// top-level functions; [Config] adjusts it, typically from CLI flags.
package log
