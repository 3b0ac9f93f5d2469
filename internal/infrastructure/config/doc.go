// Package config provides 12-factor configuration management for the notebook backend.
//
// Configuration is loaded from environment variables with sensible defaults.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host, CORS origins)
//   - Space: note space directory and embedded-page depth
//   - Editor: document editor bridge (manifest, save timeout and policy, frame kind)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Environment Variables:
//   - PORT, HOST, CORS_ORIGINS
//   - SPACE_DIR, EMBED_DEPTH
//   - EDITORS_MANIFEST, EDITOR_SAVE_TIMEOUT, EDITOR_SAVE_POLICY, EDITOR_FRAME, SANDBOX_TIMEOUT
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
