package sandbox

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/notebook/internal/editor"
)

// document shim used by the frame skeleton
const prelude = `var document = { body: { innerHTML: "" }, documentElement: { dataset: {} } };
var window = globalThis;
`

type task func(vm *goja.Runtime) error

// Frame is an editor frame backed by a goja VM
type Frame struct {
	config Config
	logger *zap.Logger

	vm        *goja.Runtime
	listeners []goja.Callable

	tasks   chan task
	inbound chan editor.Envelope
	closed  chan struct{}
	stopped chan struct{}
	loaded  chan error
	once    sync.Once

	consoleMu sync.Mutex
	console   []LogEntry
}

// New creates a frame and starts its event loop
func New(config Config, logger *zap.Logger) *Frame {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 64
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	f := &Frame{
		config:  config,
		logger:  logger,
		vm:      goja.New(),
		tasks:   make(chan task, config.QueueSize),
		inbound: make(chan editor.Envelope, config.QueueSize),
		closed:  make(chan struct{}),
		stopped: make(chan struct{}),
		loaded:  make(chan error, 1),
	}
	go f.loop()
	return f
}

// Factory returns an editor.FrameFactory producing sandbox frames
func Factory(config Config, logger *zap.Logger) editor.FrameFactory {
	return func(ctx context.Context) (editor.Frame, error) {
		return New(config, logger), nil
	}
}

func (f *Frame) loop() {
	defer close(f.stopped)
	defer close(f.inbound)

	f.loaded <- f.run(f.boot)

	for {
		select {
		case <-f.closed:
			return
		case t := <-f.tasks:
			if err := f.run(t); err != nil {
				if isInterrupted(err) {
					f.logger.Warn("Frame task interrupted", zap.Duration("timeout", f.config.Timeout))
					continue
				}
				f.logger.Warn("Frame task failed", zap.Error(err))
			}
		}
	}
}

// run executes t on the VM, interrupting it when it exceeds the timeout
func (f *Frame) run(t task) error {
	timer := time.AfterFunc(f.config.Timeout, func() {
		f.vm.Interrupt("execution timeout exceeded")
	})
	defer func() {
		timer.Stop()
		f.vm.ClearInterrupt()
	}()
	return t(f.vm)
}

func (f *Frame) boot(vm *goja.Runtime) error {
	if f.config.MaxCallStack > 0 {
		vm.SetMaxCallStackSize(f.config.MaxCallStack)
	}
	if err := f.setupGlobals(vm); err != nil {
		return err
	}
	if _, err := vm.RunString(prelude); err != nil {
		return fmt.Errorf("failed to run frame prelude: %w", err)
	}
	if _, err := vm.RunString(editor.Skeleton); err != nil {
		return fmt.Errorf("failed to run frame skeleton: %w", err)
	}
	return nil
}

func (f *Frame) setupGlobals(vm *goja.Runtime) error {
	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	parent := vm.NewObject()
	if err := parent.Set("postMessage", f.postMessage); err != nil {
		return err
	}

	globals := map[string]any{
		"parent":           parent,
		"addEventListener": f.addEventListener,
		"atob":             f.atob,
		"btoa":             f.btoa,
		"setTimeout":       f.setTimeout,
	}
	if f.config.EnableConsole {
		console := vm.NewObject()
		for _, level := range []string{"log", "info", "warn", "error"} {
			if err := console.Set(level, f.makeConsoleFunc(level)); err != nil {
				return err
			}
		}
		globals["console"] = console
	}
	for name, value := range globals {
		if err := vm.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

// postMessage hands a message from editor code to the host
func (f *Frame) postMessage(call goja.FunctionCall) goja.Value {
	raw, err := sonic.Marshal(call.Argument(0).Export())
	if err != nil {
		panic(f.vm.NewTypeError("postMessage: %v", err))
	}
	env, err := editor.UnmarshalEnvelope(raw)
	if err != nil {
		f.logger.Warn("Frame posted an invalid message", zap.Error(err))
		return goja.Undefined()
	}

	select {
	case f.inbound <- env:
	case <-f.closed:
	}
	return goja.Undefined()
}

func (f *Frame) addEventListener(call goja.FunctionCall) goja.Value {
	if call.Argument(0).String() != "message" {
		return goja.Undefined()
	}
	fn, ok := goja.AssertFunction(call.Argument(1))
	if !ok {
		panic(f.vm.NewTypeError("addEventListener: listener is not a function"))
	}
	f.listeners = append(f.listeners, fn)
	return goja.Undefined()
}

func (f *Frame) atob(s string) string {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		panic(f.vm.NewTypeError("atob: %v", err))
	}
	return string(data)
}

func (f *Frame) btoa(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

// setTimeout schedules fn as a new task on the event loop
func (f *Frame) setTimeout(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		return goja.Undefined()
	}
	delay := time.Duration(call.Argument(1).ToInteger()) * time.Millisecond
	time.AfterFunc(delay, func() {
		_ = f.enqueue(func(vm *goja.Runtime) error {
			_, err := fn(goja.Undefined())
			return err
		})
	})
	return goja.Undefined()
}

func (f *Frame) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}
		msg := strings.Join(parts, " ")

		f.consoleMu.Lock()
		f.console = append(f.console, LogEntry{Level: level, Message: msg, Time: time.Now()})
		f.consoleMu.Unlock()

		switch level {
		case "warn":
			f.logger.Warn(msg, zap.String("source", "frame"))
		case "error":
			f.logger.Error(msg, zap.String("source", "frame"))
		default:
			f.logger.Debug(msg, zap.String("source", "frame"))
		}
		return goja.Undefined()
	}
}

// Console returns the console output captured so far
func (f *Frame) Console() []LogEntry {
	f.consoleMu.Lock()
	defer f.consoleMu.Unlock()
	return append([]LogEntry(nil), f.console...)
}

func (f *Frame) enqueue(t task) error {
	select {
	case <-f.closed:
		return editor.ErrFrameClosed
	default:
	}
	select {
	case f.tasks <- t:
		return nil
	case <-f.closed:
		return editor.ErrFrameClosed
	}
}

// Load implements editor.Frame.
func (f *Frame) Load(ctx context.Context) error {
	select {
	case err := <-f.loaded:
		// keep the result for later callers
		f.loaded <- err
		return err
	case <-f.closed:
		return editor.ErrFrameClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post implements editor.Frame. The message is delivered to every message
// listener as event.data.
func (f *Frame) Post(env editor.Envelope) error {
	raw, err := env.Marshal()
	if err != nil {
		return err
	}
	return f.enqueue(func(vm *goja.Runtime) error {
		var data any
		if err := sonic.Unmarshal(raw, &data); err != nil {
			return err
		}
		event := vm.NewObject()
		if err := event.Set("data", data); err != nil {
			return err
		}
		for _, listener := range f.listeners {
			if _, err := listener(goja.Undefined(), event); err != nil {
				return fmt.Errorf("message listener failed on %s: %w", env.Type, err)
			}
		}
		return nil
	})
}

// Eval runs script on the event loop and returns its exported value
func (f *Frame) Eval(ctx context.Context, script string) (any, error) {
	type result struct {
		value any
		err   error
	}
	out := make(chan result, 1)
	err := f.enqueue(func(vm *goja.Runtime) error {
		v, err := vm.RunString(script)
		if err != nil {
			out <- result{err: err}
			return nil
		}
		out <- result{value: exportValue(v)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	select {
	case r := <-out:
		return r.value, r.err
	case <-f.closed:
		return nil, editor.ErrFrameClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Inbound implements editor.Frame.
func (f *Frame) Inbound() <-chan editor.Envelope {
	return f.inbound
}

// Close implements editor.Frame.
func (f *Frame) Close() error {
	f.once.Do(func() {
		close(f.closed)
		f.vm.Interrupt("frame closed")
	})
	<-f.stopped
	return nil
}

func exportValue(val goja.Value) any {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}

var _ editor.Frame = (*Frame)(nil)

func isInterrupted(err error) bool {
	var interrupted *goja.InterruptedError
	return errors.As(err, &interrupted)
}
