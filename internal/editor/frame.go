package editor

import (
	"context"
	"errors"
)

// ErrFrameClosed is returned when posting to a closed frame
var ErrFrameClosed = errors.New("frame closed")

// Frame is an isolated execution context hosting an editor. Post must be
// safe for concurrent use. The inbound channel is closed when the frame goes
// away.
type Frame interface {
	// Load blocks until the frame skeleton is running
	Load(ctx context.Context) error
	Post(env Envelope) error
	Inbound() <-chan Envelope
	Close() error
}

// FrameFactory creates the frame for a bridge
type FrameFactory func(ctx context.Context) (Frame, error)

// Skeleton is the script every frame runs before an editor is injected. It
// handles the internal messages and exposes syscall(name, ...args) to editor
// code. The frame must provide parent.postMessage, addEventListener and
// document.
const Skeleton = `(function () {
  var pending = {};
  var nextId = 0;

  globalThis.syscall = function (name) {
    var args = Array.prototype.slice.call(arguments, 1);
    var id = "s" + (++nextId);
    return new Promise(function (resolve, reject) {
      pending[id] = { resolve: resolve, reject: reject };
      parent.postMessage({ type: "syscall", data: { id: id, name: name, args: args } }, "*");
    });
  };

  addEventListener("message", function (event) {
    var msg = event.data;
    if (!msg || !msg.internal) {
      return;
    }
    switch (msg.type) {
      case "init":
        document.body.innerHTML = msg.data.html;
        (new Function(msg.data.script))();
        break;
      case "set-theme":
        document.documentElement.dataset.theme = msg.data.theme;
        break;
      case "syscall-response":
        var call = pending[msg.data.id];
        if (!call) {
          return;
        }
        delete pending[msg.data.id];
        if (msg.data.error) {
          call.reject(new Error(msg.data.error));
        } else {
          call.resolve(msg.data.result);
        }
        break;
    }
  });
})();
`
