// Package main is the entry point for the notebook backend server.
//
// The server hosts a markdown note space and provides:
//   - Decoration scans that turn image and page embeds into inline widgets
//   - Document editor sessions bridged to isolated frames
//   - Syscall passthrough from editors to backend services
//   - Prometheus metrics and structured logging
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./server -port 8000 -space ./notes -editors ./editors.yaml
//
//	# Development mode (console logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown, waiting for pending editor saves
package main
