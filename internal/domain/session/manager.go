package session

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/notebook/internal/editor"
	"github.com/GriffinCanCode/notebook/internal/shared/id"
	"github.com/GriffinCanCode/notebook/internal/space"
)

// ErrNotFound is returned for unknown session IDs
var ErrNotFound = errors.New("session not found")

// Store reads and writes the files sessions edit
type Store interface {
	Read(ctx context.Context, name string) ([]byte, space.FileInfo, error)
	Write(ctx context.Context, name string, data []byte) (space.FileInfo, error)
}

// FrameSource returns the frame factory for a new session
type FrameSource func(sessionID string) editor.FrameFactory

// Observer receives session count changes
type Observer interface {
	SetSessionsActive(count int)
}

// Options configures a Manager
type Options struct {
	Store       Store
	Registry    *editor.Registry
	Frames      FrameSource
	Dispatcher  editor.Dispatcher
	Theme       func() string
	SaveTimeout time.Duration
	Policy      editor.SavePolicy
	Metrics     editor.Metrics
	Observer    Observer
	Logger      *zap.Logger
}

// Session is one open editor
type Session struct {
	ID        id.EditorSessionID `json:"id"`
	Path      string             `json:"path"`
	Extension string             `json:"extension"`
	Created   time.Time          `json:"created"`

	editor  *editor.DocumentEditor
	manager *Manager
	dirty   atomic.Bool
	ready   chan struct{}
	err     error
	cancel  context.CancelFunc
}

// Info is the JSON view of a session
type Info struct {
	ID        id.EditorSessionID `json:"id"`
	Path      string             `json:"path"`
	Editor    string             `json:"editor"`
	State     string             `json:"state"`
	Dirty     bool               `json:"dirty"`
	Created   time.Time          `json:"created"`
	LastError string             `json:"lastError,omitempty"`
}

// Editor returns the session's bridge
func (s *Session) Editor() *editor.DocumentEditor {
	return s.editor
}

// Ready is closed once the editor is initialized and the file sent, or
// initialization failed
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}

// Err returns the initialization error, valid after Ready is closed
func (s *Session) Err() error {
	select {
	case <-s.ready:
		return s.err
	default:
		return nil
	}
}

// Dirty reports whether the frame reported edits since the last save
func (s *Session) Dirty() bool {
	return s.dirty.Load()
}

// Info returns a snapshot of the session
func (s *Session) Info() Info {
	info := Info{
		ID:      s.ID,
		Path:    s.Path,
		Editor:  s.editor.Name(),
		State:   s.editor.State().String(),
		Dirty:   s.Dirty(),
		Created: s.Created,
	}
	if err := s.Err(); err != nil {
		info.LastError = err.Error()
	}
	return info
}

// MarkDirty implements editor.Host.
func (s *Session) MarkDirty() {
	s.dirty.Store(true)
}

// Persist implements editor.Host by asking the frame to save.
func (s *Session) Persist(ctx context.Context) error {
	_, err := s.manager.save(ctx, s)
	return err
}

// Manager tracks open sessions
type Manager struct {
	opts     Options
	logger   *zap.Logger
	mu       sync.RWMutex
	sessions map[id.EditorSessionID]*Session
}

// NewManager creates a session manager
func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Manager{
		opts:     opts,
		logger:   opts.Logger,
		sessions: make(map[id.EditorSessionID]*Session),
	}
}

// Open starts an editor session for the file at name. A missing file opens
// as an empty document. Initialization continues in the background; wait on
// Ready to observe its result.
func (m *Manager) Open(ctx context.Context, name string) (*Session, error) {
	ext := strings.TrimPrefix(path.Ext(name), ".")
	if _, err := m.opts.Registry.Lookup(ext); err != nil {
		return nil, err
	}

	data, info, err := m.opts.Store.Read(ctx, name)
	switch {
	case errors.Is(err, space.ErrNotFound):
		info = space.FileInfo{Name: name, Perm: "rw"}
	case err != nil:
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	s := &Session{
		ID:        id.NewEditorSessionID(),
		Path:      name,
		Extension: ext,
		Created:   time.Now(),
		manager:   m,
		ready:     make(chan struct{}),
	}
	s.editor = editor.New(editor.Options{
		Registry:    m.opts.Registry,
		Frames:      m.opts.Frames(s.ID.String()),
		Dispatcher:  m.opts.Dispatcher,
		Host:        s,
		OnSave:      m.writeBack(s),
		Theme:       m.opts.Theme,
		SaveTimeout: m.opts.SaveTimeout,
		Policy:      m.opts.Policy,
		Metrics:     m.opts.Metrics,
		Logger:      m.logger.With(zap.String("session", s.ID.String())),
	})

	m.mu.Lock()
	m.sessions[s.ID] = s
	count := len(m.sessions)
	m.mu.Unlock()
	m.observe(count)

	meta := editor.DocumentMeta{
		Name:         name,
		ContentType:  info.ContentType,
		Size:         int64(len(data)),
		LastModified: info.LastModified,
		Perm:         info.Perm,
	}
	startCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go m.start(startCtx, s, data, meta)

	m.logger.Info("Editor session opened",
		zap.String("session", s.ID.String()),
		zap.String("path", name))
	return s, nil
}

// start initializes the bridge and opens the file in it
func (m *Manager) start(ctx context.Context, s *Session, data []byte, meta editor.DocumentMeta) {
	defer close(s.ready)

	if err := s.editor.Init(ctx, s.Extension); err != nil {
		s.err = err
		m.logger.Warn("Editor init failed",
			zap.String("session", s.ID.String()),
			zap.Error(err))
		return
	}
	if err := s.editor.SetContent(data, meta); err != nil {
		s.err = err
	}
}

// writeBack persists saved content to the store
func (m *Manager) writeBack(s *Session) editor.SaveFunc {
	return func(name string, data []byte) {
		if _, err := m.opts.Store.Write(context.Background(), name, data); err != nil {
			m.logger.Error("Failed to write saved document",
				zap.String("session", s.ID.String()),
				zap.String("path", name),
				zap.Error(err))
			return
		}
		s.dirty.Store(false)
	}
}

// Get returns the session with the given ID
func (m *Manager) Get(sessionID id.EditorSessionID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

// List returns all sessions ordered by ID
func (m *Manager) List() []Info {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	infos := make([]Info, len(sessions))
	for i, s := range sessions {
		infos[i] = s.Info()
	}
	return infos
}

func (m *Manager) lookup(sessionID id.EditorSessionID) (*Session, error) {
	s, ok := m.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return s, nil
}

// Save requests a save and waits for it to settle
func (m *Manager) Save(ctx context.Context, sessionID id.EditorSessionID) (editor.SaveOutcome, error) {
	s, err := m.lookup(sessionID)
	if err != nil {
		return editor.SaveNone, err
	}
	return m.save(ctx, s)
}

func (m *Manager) save(ctx context.Context, s *Session) (editor.SaveOutcome, error) {
	if _, err := s.editor.RequestSave(); err != nil && !errors.Is(err, editor.ErrSaveInProgress) {
		return editor.SaveNone, err
	}
	return s.editor.WaitForSave(ctx)
}

// Replace swaps the document shown in a session once pending saves settle
func (m *Manager) Replace(ctx context.Context, sessionID id.EditorSessionID, data []byte) error {
	s, err := m.lookup(sessionID)
	if err != nil {
		return err
	}
	meta := editor.DocumentMeta{
		Name:         s.Path,
		ContentType:  space.DetectContentType(data),
		Size:         int64(len(data)),
		LastModified: time.Now().UnixMilli(),
		Perm:         "rw",
	}
	return s.editor.ChangeContent(ctx, data, meta)
}

// Focus forwards focus to the session's frame
func (m *Manager) Focus(sessionID id.EditorSessionID) error {
	s, err := m.lookup(sessionID)
	if err != nil {
		return err
	}
	return s.editor.Focus()
}

// Send delivers a public message to the session's frame
func (m *Manager) Send(sessionID id.EditorSessionID, msgType string, data any) error {
	s, err := m.lookup(sessionID)
	if err != nil {
		return err
	}
	return s.editor.SendPublic(msgType, data)
}

// UpdateThemes pushes the current theme to every ready session
func (m *Manager) UpdateThemes() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		if s.editor.State() != editor.StateReady && s.editor.State() != editor.StateSaving {
			continue
		}
		if err := s.editor.UpdateTheme(); err != nil {
			m.logger.Debug("Theme update skipped",
				zap.String("session", s.ID.String()),
				zap.Error(err))
		}
	}
}

// Close destroys a session after its pending save settles
func (m *Manager) Close(ctx context.Context, sessionID id.EditorSessionID) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	count := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	m.observe(count)

	// a frame that never attached would keep Init waiting
	s.cancel()
	select {
	case <-s.ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	err := s.editor.Destroy(ctx)
	m.logger.Info("Editor session closed",
		zap.String("session", sessionID.String()),
		zap.Error(err))
	return err
}

// CloseAll destroys every session
func (m *Manager) CloseAll(ctx context.Context) error {
	m.mu.RLock()
	ids := make([]id.EditorSessionID, 0, len(m.sessions))
	for sid := range m.sessions {
		ids = append(ids, sid)
	}
	m.mu.RUnlock()

	var errs []error
	for _, sid := range ids {
		if err := m.Close(ctx, sid); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) observe(count int) {
	if m.opts.Observer != nil {
		m.opts.Observer.SetSessionsActive(count)
	}
}
