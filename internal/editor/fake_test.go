package editor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"
)

type fakeFrame struct {
	posted  chan Envelope
	inbound chan Envelope
	loadErr error
	postErr error

	mu     sync.Mutex
	closed bool
}

func newFakeFrame() *fakeFrame {
	return &fakeFrame{
		posted:  make(chan Envelope, 64),
		inbound: make(chan Envelope, 16),
	}
}

func (f *fakeFrame) Load(ctx context.Context) error { return f.loadErr }

func (f *fakeFrame) Post(env Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFrameClosed
	}
	if f.postErr != nil {
		return f.postErr
	}
	f.posted <- env
	return nil
}

func (f *fakeFrame) Inbound() <-chan Envelope { return f.inbound }

func (f *fakeFrame) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeFrame) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// send delivers a message from the editor side
func (f *fakeFrame) send(t *testing.T, msgType string, data any) {
	t.Helper()
	env := Envelope{Type: msgType}
	if data != nil {
		raw, err := sonic.Marshal(data)
		require.NoError(t, err)
		env.Data = raw
	}
	f.inbound <- env
}

// next returns the next posted envelope
func (f *fakeFrame) next(t *testing.T) Envelope {
	t.Helper()
	select {
	case env := <-f.posted:
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a posted message")
		return Envelope{}
	}
}

// quiet asserts nothing is posted for d
func (f *fakeFrame) quiet(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case env := <-f.posted:
		t.Fatalf("unexpected %s message", env.Type)
	case <-time.After(d):
	}
}

type fakeHost struct {
	dirty    atomic.Int32
	persists chan struct{}
	err      error
}

func newFakeHost() *fakeHost {
	return &fakeHost{persists: make(chan struct{}, 8)}
}

func (h *fakeHost) MarkDirty() { h.dirty.Add(1) }

func (h *fakeHost) Persist(ctx context.Context) error {
	h.persists <- struct{}{}
	return h.err
}

type dispatchFunc func(ctx context.Context, name string, args []any) (any, error)

func (f dispatchFunc) Invoke(ctx context.Context, name string, args []any) (any, error) {
	return f(ctx, name, args)
}

type savedFile struct {
	path string
	data []byte
}

type saveRecorder struct {
	mu    sync.Mutex
	saves []savedFile
}

func (r *saveRecorder) save(path string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, savedFile{path: path, data: data})
}

func (r *saveRecorder) all() []savedFile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]savedFile(nil), r.saves...)
}

var errBoom = errors.New("boom")

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register(Definition{
		Name:       "excalidraw",
		Extensions: []string{"excalidraw", ".draw"},
		Content: func(ctx context.Context) (Bootstrap, error) {
			return Bootstrap{HTML: "<div id=root></div>", Script: "start()"}, nil
		},
	}))
	return r
}
