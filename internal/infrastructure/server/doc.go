// Package server wires configuration, storage, the content pipeline, the
// editor bridge and the HTTP API into a runnable backend.
package server
