package socket

import (
	"context"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/notebook/internal/editor"
)

// ConnectionObserver is told when browser connections come and go
type ConnectionObserver interface {
	IncWSConnections()
	DecWSConnections()
}

// Hub tracks frames waiting for, or attached to, a browser connection
type Hub struct {
	frames   sync.Map
	logger   *zap.Logger
	observer ConnectionObserver
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{logger: logger}
}

// WithObserver reports connection counts to o
func (h *Hub) WithObserver(o ConnectionObserver) *Hub {
	h.observer = o
	return h
}

// Factory returns a frame factory registering the frame under id
func (h *Hub) Factory(id string) editor.FrameFactory {
	return func(ctx context.Context) (editor.Frame, error) {
		f := New(h.logger.With(zap.String("session", id)))
		if _, loaded := h.frames.LoadOrStore(id, f); loaded {
			return nil, fmt.Errorf("frame %s already exists", id)
		}
		return &hubFrame{Frame: f, hub: h, id: id}, nil
	}
}

// Attach connects conn to the frame registered under id
func (h *Hub) Attach(id string, conn *websocket.Conn) error {
	v, ok := h.frames.Load(id)
	if !ok {
		return fmt.Errorf("no frame %s", id)
	}
	f := v.(*Frame)
	if err := f.Attach(conn); err != nil {
		return err
	}
	if h.observer != nil {
		h.observer.IncWSConnections()
		go func() {
			<-f.done
			h.observer.DecWSConnections()
		}()
	}
	h.logger.Debug("Frame attached", zap.String("session", id))
	return nil
}

// Has reports whether a frame is registered under id
func (h *Hub) Has(id string) bool {
	_, ok := h.frames.Load(id)
	return ok
}

// hubFrame unregisters itself on Close
type hubFrame struct {
	*Frame
	hub *Hub
	id  string
}

func (f *hubFrame) Close() error {
	f.hub.frames.Delete(f.id)
	return f.Frame.Close()
}
