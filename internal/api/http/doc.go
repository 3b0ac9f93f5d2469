// Package http provides the REST endpoints of the notebook backend.
//
// Endpoints:
//   - Content: decoration scans, widget height reports, embedded page rendering
//   - Space: page and file access, raw file serving for inline media
//   - Editors: editor session lifecycle and the frame page plus its websocket
//   - Services: syscall invocation and service discovery
//   - Themes: listing and switching the active theme
//   - Logs: client log ingestion into the structured logger
//
// Errors are returned as {"error": "..."} with a status derived from the
// error's sentinel.
package http
