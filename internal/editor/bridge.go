package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNotReady is returned when an operation needs an initialized editor
	ErrNotReady = errors.New("editor not ready")
	// ErrSaveInProgress is returned by RequestSave under SaveReject
	ErrSaveInProgress = errors.New("save already in progress")
	// ErrDestroyed is returned once the editor has been torn down
	ErrDestroyed = errors.New("editor destroyed")
)

// DefaultSaveTimeout bounds how long a waiter holds out for file-saved
const DefaultSaveTimeout = 2500 * time.Millisecond

// State is the lifecycle state of a DocumentEditor
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateSaving
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateSaving:
		return "saving"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// SavePolicy decides what RequestSave does while a save is outstanding
type SavePolicy int

const (
	// SaveShare re-sends request-save and hands back the outstanding
	// transaction
	SaveShare SavePolicy = iota
	// SaveReject fails with ErrSaveInProgress
	SaveReject
)

// ParseSavePolicy maps "share" and "reject" to a policy
func ParseSavePolicy(s string) (SavePolicy, error) {
	switch s {
	case "share", "":
		return SaveShare, nil
	case "reject":
		return SaveReject, nil
	default:
		return SaveShare, fmt.Errorf("unknown save policy %q", s)
	}
}

// Dispatcher runs host capabilities requested by the frame
type Dispatcher interface {
	Invoke(ctx context.Context, name string, args []any) (any, error)
}

// SaveFunc persists content reported by the editor
type SaveFunc func(path string, data []byte)

// Host is the application hosting the editor
type Host interface {
	MarkDirty()
	Persist(ctx context.Context) error
}

// Metrics observes bridge activity
type Metrics interface {
	SaveSettled(editor string, outcome SaveOutcome, elapsed time.Duration)
	SyscallHandled(name string, err error)
	MessageDropped(msgType string)
}

type noopMetrics struct{}

func (noopMetrics) SaveSettled(string, SaveOutcome, time.Duration) {}
func (noopMetrics) SyscallHandled(string, error)                   {}
func (noopMetrics) MessageDropped(string)                          {}

type noopHost struct{}

func (noopHost) MarkDirty()                    {}
func (noopHost) Persist(context.Context) error { return nil }

// Options configures a DocumentEditor
type Options struct {
	Registry    *Registry
	Frames      FrameFactory
	Dispatcher  Dispatcher
	Host        Host
	OnSave      SaveFunc
	Theme       func() string
	SaveTimeout time.Duration
	Policy      SavePolicy
	Metrics     Metrics
	Logger      *zap.Logger
}

// DocumentEditor bridges the host and one editor frame
type DocumentEditor struct {
	registry    *Registry
	frames      FrameFactory
	dispatcher  Dispatcher
	host        Host
	onSave      SaveFunc
	theme       func() string
	saveTimeout time.Duration
	policy      SavePolicy
	metrics     Metrics
	logger      *zap.Logger

	// sendMu orders outbound posts against the pending-save check
	sendMu sync.Mutex

	mu        sync.Mutex
	state     State
	name      string
	extension string
	path      string
	frame     Frame
	pending   *SaveTransaction
	stop      chan struct{}
	listening chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an uninitialized editor bridge
func New(opts Options) *DocumentEditor {
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if opts.Host == nil {
		opts.Host = noopHost{}
	}
	if opts.Theme == nil {
		opts.Theme = func() string { return "light" }
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = DefaultSaveTimeout
	}
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &DocumentEditor{
		registry:    opts.Registry,
		frames:      opts.Frames,
		dispatcher:  opts.Dispatcher,
		host:        opts.Host,
		onSave:      opts.OnSave,
		theme:       opts.Theme,
		saveTimeout: opts.SaveTimeout,
		policy:      opts.Policy,
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// State returns the current lifecycle state
func (d *DocumentEditor) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Name returns the editor implementation name, empty before Init
func (d *DocumentEditor) Name() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.name
}

// Path returns the path of the document last handed to the editor
func (d *DocumentEditor) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.path
}

// Init finds the editor for extension, loads its frame and injects it.
func (d *DocumentEditor) Init(ctx context.Context, extension string) error {
	d.mu.Lock()
	if d.state != StateUninitialized {
		state := d.state
		d.mu.Unlock()
		return fmt.Errorf("cannot initialize editor in state %s", state)
	}
	def, err := d.registry.Lookup(extension)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.state = StateInitializing
	d.name = def.Name
	d.extension = extension
	d.mu.Unlock()

	logger := d.logger.With(zap.String("editor", def.Name))

	frame, boot, err := d.load(ctx, def)
	if err != nil {
		d.mu.Lock()
		d.state = StateUninitialized
		d.name = ""
		d.extension = ""
		d.mu.Unlock()
		return err
	}

	d.mu.Lock()
	if d.state != StateInitializing {
		d.mu.Unlock()
		_ = frame.Close()
		return ErrDestroyed
	}
	d.frame = frame
	d.stop = make(chan struct{})
	d.listening = make(chan struct{})
	go d.listen(frame, d.stop, d.listening)
	d.mu.Unlock()

	d.sendMu.Lock()
	err = d.post(frame, Init{HTML: boot.HTML, Script: boot.Script})
	if err == nil {
		err = d.post(frame, SetTheme{Theme: d.theme()})
	}
	d.sendMu.Unlock()
	if err != nil {
		d.abortInit(frame)
		return fmt.Errorf("failed to inject editor %s: %w", def.Name, err)
	}

	d.mu.Lock()
	if d.state == StateInitializing {
		d.state = StateReady
	}
	d.mu.Unlock()

	logger.Info("Editor initialized", zap.String("extension", extension))
	return nil
}

// abortInit returns a bridge whose injection failed to the uninitialized
// state, so Init can be retried. A concurrent Destroy owns the cleanup.
func (d *DocumentEditor) abortInit(frame Frame) {
	d.mu.Lock()
	if d.state != StateInitializing {
		d.mu.Unlock()
		return
	}
	stop, listening := d.stop, d.listening
	d.state = StateUninitialized
	d.frame = nil
	d.stop = nil
	d.listening = nil
	d.name = ""
	d.extension = ""
	d.mu.Unlock()

	close(stop)
	<-listening
	_ = frame.Close()
}

func (d *DocumentEditor) load(ctx context.Context, def Definition) (Frame, Bootstrap, error) {
	boot, err := def.Content(ctx)
	if err != nil {
		return nil, Bootstrap{}, fmt.Errorf("failed to load editor %s: %w", def.Name, err)
	}
	if d.frames == nil {
		return nil, Bootstrap{}, fmt.Errorf("no frame factory configured")
	}
	frame, err := d.frames(ctx)
	if err != nil {
		return nil, Bootstrap{}, fmt.Errorf("failed to create frame: %w", err)
	}
	if err := frame.Load(ctx); err != nil {
		_ = frame.Close()
		return nil, Bootstrap{}, fmt.Errorf("frame did not load: %w", err)
	}
	return frame, boot, nil
}

// activeFrame returns the frame when the editor accepts messages. Callers
// hold d.mu.
func (d *DocumentEditor) activeFrame() (Frame, error) {
	switch d.state {
	case StateReady, StateSaving:
		return d.frame, nil
	case StateDestroyed:
		return nil, ErrDestroyed
	default:
		return nil, fmt.Errorf("%w: state %s", ErrNotReady, d.state)
	}
}

// send posts msg if the editor accepts messages
func (d *DocumentEditor) send(msg Outbound) error {
	d.sendMu.Lock()
	defer d.sendMu.Unlock()

	d.mu.Lock()
	frame, err := d.activeFrame()
	d.mu.Unlock()
	if err != nil {
		return err
	}
	return d.post(frame, msg)
}

func (d *DocumentEditor) post(frame Frame, msg Outbound) error {
	env, err := Encode(msg)
	if err != nil {
		return err
	}
	if err := frame.Post(env); err != nil {
		return fmt.Errorf("failed to post %s: %w", env.Type, err)
	}
	return nil
}

// SetContent opens a document in the editor without waiting for anything.
func (d *DocumentEditor) SetContent(data []byte, meta DocumentMeta) error {
	d.sendMu.Lock()
	defer d.sendMu.Unlock()

	d.mu.Lock()
	frame, err := d.activeFrame()
	if err == nil {
		d.path = meta.Name
	}
	d.mu.Unlock()
	if err != nil {
		return err
	}
	return d.post(frame, FileOpen{Data: data, Meta: meta})
}

// ChangeContent replaces the document once no save is outstanding.
func (d *DocumentEditor) ChangeContent(ctx context.Context, data []byte, meta DocumentMeta) error {
	for {
		if _, err := d.WaitForSave(ctx); err != nil {
			return err
		}

		d.sendMu.Lock()
		d.mu.Lock()
		if d.pending != nil {
			// another save started while we were waiting
			d.mu.Unlock()
			d.sendMu.Unlock()
			continue
		}
		frame, err := d.activeFrame()
		if err == nil {
			d.path = meta.Name
		}
		d.mu.Unlock()
		if err != nil {
			d.sendMu.Unlock()
			return err
		}

		err = d.post(frame, FileUpdate{Data: data, Meta: meta})
		d.sendMu.Unlock()
		return err
	}
}

// RequestSave asks the editor for its content. The returned transaction
// settles when the editor answers or a waiter gives up.
func (d *DocumentEditor) RequestSave() (*SaveTransaction, error) {
	d.sendMu.Lock()
	defer d.sendMu.Unlock()

	d.mu.Lock()
	frame, err := d.activeFrame()
	if err != nil {
		d.mu.Unlock()
		return nil, err
	}
	tx := d.pending
	created := false
	if tx != nil {
		if d.policy == SaveReject {
			d.mu.Unlock()
			return tx, ErrSaveInProgress
		}
		d.logger.Warn("Save requested while another save is outstanding",
			zap.String("editor", d.name),
			zap.String("path", d.path))
	} else {
		tx = newSaveTransaction()
		d.pending = tx
		d.state = StateSaving
		created = true
	}
	d.mu.Unlock()

	if err := d.post(frame, RequestSave{}); err != nil {
		if created {
			d.settle(tx, SaveAbandoned)
		}
		return nil, err
	}
	return tx, nil
}

// WaitForSave blocks until the outstanding save settles. When the save
// timeout elapses first the transaction is abandoned and the caller proceeds.
// It returns SaveNone when nothing was outstanding.
func (d *DocumentEditor) WaitForSave(ctx context.Context) (SaveOutcome, error) {
	d.mu.Lock()
	tx := d.pending
	d.mu.Unlock()
	if tx == nil {
		return SaveNone, nil
	}

	timer := time.NewTimer(d.saveTimeout)
	defer timer.Stop()

	select {
	case <-tx.Done():
	case <-timer.C:
		if d.settle(tx, SaveAbandoned) {
			d.logger.Warn("Save not acknowledged in time, proceeding",
				zap.String("editor", d.Name()),
				zap.String("path", d.Path()),
				zap.Duration("timeout", d.saveTimeout))
		}
	case <-ctx.Done():
		return SaveNone, ctx.Err()
	}
	return tx.Outcome(), nil
}

// settle resolves tx and frees the save slot. It reports whether this call
// was the one that settled it.
func (d *DocumentEditor) settle(tx *SaveTransaction, outcome SaveOutcome) bool {
	d.mu.Lock()
	if !tx.settle(outcome) {
		d.mu.Unlock()
		return false
	}
	if d.pending == tx {
		d.pending = nil
		if d.state == StateSaving {
			d.state = StateReady
		}
	}
	name := d.name
	d.mu.Unlock()

	d.metrics.SaveSettled(name, outcome, time.Since(tx.started))
	return true
}

// Focus moves keyboard focus into the editor
func (d *DocumentEditor) Focus() error {
	return d.send(Focus{})
}

// UpdateTheme re-sends the current host theme
func (d *DocumentEditor) UpdateTheme() error {
	return d.send(SetTheme{Theme: d.theme()})
}

// SendPublic sends an editor-domain message
func (d *DocumentEditor) SendPublic(msgType string, data any) error {
	if msgType == "" {
		return fmt.Errorf("message type cannot be empty")
	}
	return d.send(Public{Type: msgType, Data: data})
}

// Destroy waits for the outstanding save, stops listening and closes the
// frame. Editors that never established an implementation are left alone.
func (d *DocumentEditor) Destroy(ctx context.Context) error {
	d.mu.Lock()
	if d.name == "" || d.state == StateDestroyed {
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	_, waitErr := d.WaitForSave(ctx)

	d.mu.Lock()
	if d.state == StateDestroyed {
		d.mu.Unlock()
		return nil
	}
	d.state = StateDestroyed
	frame := d.frame
	stop, listening := d.stop, d.listening
	tx := d.pending
	d.frame = nil
	d.mu.Unlock()

	d.cancel()
	if stop != nil {
		close(stop)
		<-listening
	}

	var closeErr error
	if frame != nil {
		closeErr = frame.Close()
	}
	d.wg.Wait()

	if tx != nil {
		d.settle(tx, SaveAbandoned)
	}

	d.logger.Info("Editor destroyed", zap.String("editor", d.Name()))
	return errors.Join(waitErr, closeErr)
}

func (d *DocumentEditor) listen(frame Frame, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-stop:
			return
		case env, ok := <-frame.Inbound():
			if !ok {
				d.logger.Debug("Frame inbound channel closed", zap.String("editor", d.Name()))
				return
			}
			d.route(frame, env)
		}
	}
}

func (d *DocumentEditor) route(frame Frame, env Envelope) {
	msg, err := Decode(env)
	if err != nil {
		d.logger.Warn("Dropping message from frame",
			zap.String("editor", d.Name()),
			zap.String("type", env.Type),
			zap.Error(err))
		d.metrics.MessageDropped(env.Type)
		return
	}

	switch m := msg.(type) {
	case FileChanged:
		d.host.MarkDirty()
		d.background(func(ctx context.Context) {
			if err := d.host.Persist(ctx); err != nil {
				d.logger.Error("Failed to persist after change",
					zap.String("editor", d.Name()),
					zap.Error(err))
			}
		})
	case FileSaved:
		d.handleSaved(m)
	case Syscall:
		d.background(func(ctx context.Context) {
			d.handleSyscall(ctx, frame, m)
		})
	}
}

func (d *DocumentEditor) background(fn func(ctx context.Context)) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		fn(d.ctx)
	}()
}

func (d *DocumentEditor) handleSaved(m FileSaved) {
	d.mu.Lock()
	tx := d.pending
	path := d.path
	d.mu.Unlock()

	if tx != nil {
		d.settle(tx, SaveAcknowledged)
	} else {
		d.logger.Debug("Received file-saved without an outstanding save",
			zap.String("editor", d.Name()),
			zap.String("path", path))
	}

	if path == "" || d.onSave == nil {
		return
	}
	d.onSave(path, m.Data)
}

func (d *DocumentEditor) handleSyscall(ctx context.Context, frame Frame, call Syscall) {
	resp := SyscallResponse{ID: call.ID}

	var result any
	var err error
	if d.dispatcher == nil {
		err = fmt.Errorf("syscall %s: no dispatcher", call.Name)
	} else {
		result, err = d.dispatcher.Invoke(ctx, call.Name, call.Args)
	}
	d.metrics.SyscallHandled(call.Name, err)

	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Result = result
	}

	d.sendMu.Lock()
	err = d.post(frame, resp)
	d.sendMu.Unlock()
	if err != nil {
		d.logger.Warn("Failed to deliver syscall response",
			zap.String("editor", d.Name()),
			zap.String("syscall", call.Name),
			zap.Error(err))
	}
}
