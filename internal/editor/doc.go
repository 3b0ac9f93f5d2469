// Package editor hosts third-party document editors inside an isolated frame.
//
// A DocumentEditor owns one frame for its whole life. The host talks to the
// frame only through Envelope messages; messages flagged internal belong to
// the frame skeleton and are never seen as document content by the editor
// running inside it.
//
// Saves are coordinated through a single SaveTransaction. The transaction
// settles exactly once, either when the frame reports file-saved or when a
// waiter gives up after the save timeout. Content updates are never posted
// while a transaction is outstanding.
package editor
