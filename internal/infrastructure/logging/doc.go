// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components receive a *zap.Logger (usually via Logger.Component) and fall
// back to zap.NewNop() when none is given, so packages stay testable without
// any logging setup.
//
// Example Usage:
//
//	logger := logging.NewOrNop(logging.DefaultConfig())
//	bridgeLog := logger.Component("editor")
//	bridgeLog.Warn("save abandoned", zap.Duration("timeout", 2500*time.Millisecond))
package logging
