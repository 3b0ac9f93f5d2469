// Package session manages hosted document editor sessions.
//
// A session binds one file in the space to one DocumentEditor. Opening a
// session picks the editor by file extension, creates its frame, sends the
// file contents once the frame is ready and writes saved contents back to
// the space. Edits reported by the frame mark the session dirty and trigger
// an autosave.
//
// Example Usage:
//
//	manager := session.NewManager(session.Options{Store: store, Registry: editors, Frames: hub.Factory})
//	s, err := manager.Open(ctx, "drawings/plan.excalidraw")
//	<-s.Ready()
//	outcome, err := manager.Save(ctx, s.ID)
package session
