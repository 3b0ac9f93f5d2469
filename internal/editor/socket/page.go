package socket

import (
	"html/template"
	"io"

	"github.com/GriffinCanCode/notebook/internal/editor"
)

var pageTemplate = template.Must(template.New("frame").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Editor</title>
</head>
<body>
<script>
(function () {
  var scheme = location.protocol === "https:" ? "wss://" : "ws://";
  var socket = new WebSocket(scheme + location.host + {{.SocketPath}});
  window.postMessage = function (msg) {
    socket.send(JSON.stringify(msg));
  };
  socket.onmessage = function (event) {
    window.dispatchEvent(new MessageEvent("message", { data: JSON.parse(event.data) }));
  };
})();
{{.Skeleton}}
</script>
</body>
</html>
`))

// WritePage renders the frame page whose skeleton connects to socketPath
func WritePage(w io.Writer, socketPath string) error {
	return pageTemplate.Execute(w, struct {
		SocketPath string
		Skeleton   template.JS
	}{
		SocketPath: socketPath,
		Skeleton:   template.JS(editor.Skeleton),
	})
}
