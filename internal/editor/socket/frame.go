// Package socket hosts editor frames in a browser, connected back to the
// server over a websocket.
package socket

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/notebook/internal/editor"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 32 << 20
)

// ErrAlreadyAttached is returned when a second connection claims a frame
var ErrAlreadyAttached = errors.New("frame already attached")

// Frame is an editor frame whose skeleton runs in a browser page. It loads
// once the page connects and is attached.
type Frame struct {
	logger *zap.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	attached chan struct{}
	closed   chan struct{}
	once     sync.Once

	writeMu sync.Mutex
	inbound chan editor.Envelope
	done    chan struct{}
}

// New creates an unattached frame
func New(logger *zap.Logger) *Frame {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Frame{
		logger:   logger,
		attached: make(chan struct{}),
		closed:   make(chan struct{}),
		inbound:  make(chan editor.Envelope, 64),
		done:     make(chan struct{}),
	}
}

// Attach binds the browser connection to the frame and starts reading
func (f *Frame) Attach(conn *websocket.Conn) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	select {
	case <-f.closed:
		return editor.ErrFrameClosed
	default:
	}
	if f.conn != nil {
		return ErrAlreadyAttached
	}
	f.conn = conn
	close(f.attached)

	go f.readPump(conn)
	go f.pingPump(conn)
	return nil
}

func (f *Frame) readPump(conn *websocket.Conn) {
	defer close(f.done)
	defer close(f.inbound)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				f.logger.Warn("Frame connection lost", zap.Error(err))
			}
			return
		}
		env, err := editor.UnmarshalEnvelope(data)
		if err != nil {
			f.logger.Warn("Frame sent an invalid message", zap.Error(err))
			continue
		}
		select {
		case f.inbound <- env:
		case <-f.closed:
			return
		}
	}
}

func (f *Frame) pingPump(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			f.writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			f.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-f.done:
			return
		}
	}
}

// Attached is closed once a connection is attached
func (f *Frame) Attached() <-chan struct{} {
	return f.attached
}

// Load implements editor.Frame.
func (f *Frame) Load(ctx context.Context) error {
	select {
	case <-f.attached:
		return nil
	case <-f.closed:
		return editor.ErrFrameClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post implements editor.Frame.
func (f *Frame) Post(env editor.Envelope) error {
	f.mu.Lock()
	conn := f.conn
	f.mu.Unlock()

	select {
	case <-f.closed:
		return editor.ErrFrameClosed
	default:
	}
	if conn == nil {
		return editor.ErrNotReady
	}

	data, err := env.Marshal()
	if err != nil {
		return err
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Inbound implements editor.Frame.
func (f *Frame) Inbound() <-chan editor.Envelope {
	return f.inbound
}

// Close implements editor.Frame.
func (f *Frame) Close() error {
	var err error
	f.once.Do(func() {
		f.mu.Lock()
		conn := f.conn
		close(f.closed)
		f.mu.Unlock()

		if conn == nil {
			close(f.inbound)
			return
		}

		f.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "editor closed"),
			time.Now().Add(writeWait))
		f.writeMu.Unlock()
		err = conn.Close()
		<-f.done
	})
	return err
}

var _ editor.Frame = (*Frame)(nil)
