// Package sandbox runs editor frames inside an embedded JavaScript VM.
//
// Each frame owns one goja runtime driven by a single event-loop goroutine,
// so editor code sees the same run-to-completion semantics it would in a
// browser frame. Every task is bounded by the configured timeout; a task
// that overruns is interrupted and the frame keeps running.
package sandbox
