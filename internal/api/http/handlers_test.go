package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/notebook/internal/content"
	"github.com/GriffinCanCode/notebook/internal/content/widget"
	"github.com/GriffinCanCode/notebook/internal/domain/session"
	"github.com/GriffinCanCode/notebook/internal/editor"
	"github.com/GriffinCanCode/notebook/internal/editor/socket"
	"github.com/GriffinCanCode/notebook/internal/infrastructure/monitoring"
	spaceProvider "github.com/GriffinCanCode/notebook/internal/providers/space"
	"github.com/GriffinCanCode/notebook/internal/providers/system"
	"github.com/GriffinCanCode/notebook/internal/providers/theme"
	"github.com/GriffinCanCode/notebook/internal/service"
	"github.com/GriffinCanCode/notebook/internal/space"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type testEnv struct {
	router   *gin.Engine
	store    *space.Store
	sessions *session.Manager
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	logger := zap.NewNop()

	store, err := space.New(ctx, t.TempDir(), logger)
	require.NoError(t, err)
	_, err = store.Write(ctx, "index.md", []byte("# Index\n"))
	require.NoError(t, err)
	_, err = store.Write(ctx, "other.md", []byte("# Other\n"))
	require.NoError(t, err)

	scanner := content.NewScanner(store, widget.NewRenderer(widget.NewHeightCache(), widget.WithAssetBase("/fs/")))
	themes := theme.NewProvider(ctx, store, logger)

	services := service.NewRegistry(logger)
	require.NoError(t, services.Register(system.NewProvider(logger)))
	require.NoError(t, services.Register(spaceProvider.NewProvider(store)))
	require.NoError(t, services.Register(themes))

	editors := editor.NewRegistry()
	require.NoError(t, editors.Register(editor.Definition{
		Name:       "draw",
		Extensions: []string{"draw"},
		Content: func(ctx context.Context) (editor.Bootstrap, error) {
			return editor.Bootstrap{HTML: "<canvas></canvas>", Script: "boot()"}, nil
		},
	}))

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	hub := socket.NewHub(logger).WithObserver(metrics)
	sessions := session.NewManager(session.Options{
		Store:       store,
		Registry:    editors,
		Frames:      hub.Factory,
		Dispatcher:  services,
		Theme:       func() string { return themes.Current().ID },
		SaveTimeout: time.Second,
		Metrics:     metrics,
		Observer:    metrics,
		Logger:      logger,
	})
	t.Cleanup(func() { _ = sessions.CloseAll(context.Background()) })

	h := NewHandlers(Deps{
		Scanner:  scanner,
		Store:    store,
		Sessions: sessions,
		Editors:  editors,
		Hub:      hub,
		Services: services,
		Themes:   themes,
		Metrics:  metrics,
		Logger:   logger,
	})
	router := gin.New()
	h.Register(router)
	return &testEnv{router: router, store: store, sessions: sessions}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := sonic.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if _, ok := body.(string); !ok && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type decorationsResponse struct {
	Decorations []DecorationView `json:"decorations"`
}

func TestDecorationsMedia(t *testing.T) {
	env := setup(t)
	w := env.do(t, http.MethodPost, "/api/decorations", gin.H{
		"page": "notes/a",
		"doc":  "Hello ![100x50](./pic.png) world",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[decorationsResponse](t, w)
	require.Len(t, resp.Decorations, 2)

	widgetDeco := resp.Decorations[0]
	assert.Equal(t, "widget", widgetDeco.Kind)
	assert.Equal(t, 27, widgetDeco.From)
	assert.True(t, widgetDeco.Block)
	require.NotNil(t, widgetDeco.Widget)
	assert.Equal(t, "media", widgetDeco.Widget.Type)
	assert.Equal(t, "notes/pic.png", widgetDeco.Widget.URL)
	assert.Equal(t, "image/png", widgetDeco.Widget.MIMEType)
	assert.Equal(t, "content:notes/pic.png", widgetDeco.Widget.HeightKey)
	assert.Contains(t, widgetDeco.Widget.HTML, `src="/fs/notes/pic.png"`)

	hidden := resp.Decorations[1]
	assert.Equal(t, "invisible", hidden.Kind)
	assert.Equal(t, 6, hidden.From)
	assert.Equal(t, 26, hidden.To)
}

func TestDecorationsCursorInsideKeepsMarkup(t *testing.T) {
	env := setup(t)
	w := env.do(t, http.MethodPost, "/api/decorations", gin.H{
		"page":      "index",
		"doc":       "![](a.png)",
		"selection": []gin.H{{"from": 3, "to": 3}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[decorationsResponse](t, w)
	require.Len(t, resp.Decorations, 1)
	assert.Equal(t, "widget", resp.Decorations[0].Kind)
}

func TestDecorationsUTF16Positions(t *testing.T) {
	env := setup(t)
	// 😀 is two code units, é one; the cursor sits at the end of the document
	w := env.do(t, http.MethodPost, "/api/decorations", gin.H{
		"page":      "index",
		"doc":       "😀 ![](a.png) é",
		"selection": []gin.H{{"from": 15, "to": 15}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[decorationsResponse](t, w)
	require.Len(t, resp.Decorations, 2)
	assert.Equal(t, 14, resp.Decorations[0].From)
	assert.Equal(t, 14, resp.Decorations[0].To)
	assert.Equal(t, 3, resp.Decorations[1].From)
	assert.Equal(t, 13, resp.Decorations[1].To)
}

func TestDecorationsPageEmbed(t *testing.T) {
	env := setup(t)
	w := env.do(t, http.MethodPost, "/api/decorations", gin.H{
		"page": "index",
		"doc":  "See ![[other]]",
	})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[decorationsResponse](t, w)
	require.Len(t, resp.Decorations, 2)
	view := resp.Decorations[0].Widget
	require.NotNil(t, view)
	assert.Equal(t, "page", view.Type)
	assert.Equal(t, "other", view.Page)
	assert.Equal(t, "widget:index:other", view.HeightKey)
	assert.Contains(t, view.HTML, `data-page="other"`)
	assert.Contains(t, view.HTML, "<h1>Other</h1>")
}

func TestDecorationsDisabled(t *testing.T) {
	env := setup(t)
	w := env.do(t, http.MethodPost, "/api/decorations", gin.H{
		"page":          "index",
		"doc":           "![](a.png)",
		"renderWidgets": false,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"decorations":[]`)
}

func TestHeightReports(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/api/widgets/height", gin.H{"key": "content:a.png", "previous": 0, "height": 120})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"changed":true}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/widgets/height", gin.H{"key": "content:a.png", "previous": 120, "height": 120})
	assert.JSONEq(t, `{"changed":false}`, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/widgets/height?key=content:a.png", nil)
	assert.JSONEq(t, `{"key":"content:a.png","height":120}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/widgets/height", gin.H{"key": "other:x", "height": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// the cached height pre-sizes the next render
	w = env.do(t, http.MethodPost, "/api/decorations", gin.H{"page": "index", "doc": "![](a.png)"})
	resp := decode[decorationsResponse](t, w)
	assert.Equal(t, 120, resp.Decorations[0].Widget.Height)
	assert.Contains(t, resp.Decorations[0].Widget.HTML, "height: 120px")
}

func TestPagesCRUD(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPut, "/api/pages/notes/b", "# B\n")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/pages/notes/b", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "# B\n", w.Body.String())

	w = env.do(t, http.MethodGet, "/api/pages", nil)
	assert.Contains(t, w.Body.String(), `"notes/b"`)

	w = env.do(t, http.MethodGet, "/api/render/notes/b", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>B</h1>")

	w = env.do(t, http.MethodDelete, "/api/pages/notes/b", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/pages/notes/b", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
}

func TestServeFile(t *testing.T) {
	env := setup(t)
	_, err := env.store.Write(context.Background(), "img/pic.png", pngHeader)
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/fs/img/pic.png", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, pngHeader, w.Body.Bytes())

	w = env.do(t, http.MethodGet, "/fs/missing.png", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/fs/..%2fsecret", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/files?pattern=img/*", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"img/pic.png"`)
}

func TestSyscallEndpoint(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/api/syscall", gin.H{"name": "space.readPage", "args": []any{"other"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"result":"# Other\n"}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/syscall", gin.H{"name": "nope.call"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/syscall", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/services", nil)
	assert.Contains(t, w.Body.String(), `"space"`)
}

func TestThemes(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPut, "/api/theme", gin.H{"id": "dark"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/themes", nil)
	assert.Contains(t, w.Body.String(), `"current":{"id":"dark"`)

	w = env.do(t, http.MethodPut, "/api/theme", gin.H{"id": "sepia"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionLifecycle(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/editor/sessions", gin.H{"path": "notes.txt"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, http.MethodPost, "/editor/sessions", gin.H{"path": "plan.draw"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[struct {
		Session session.Info `json:"session"`
		Frame   string       `json:"frame"`
	}](t, w)
	sid := created.Session.ID.String()
	assert.Equal(t, "/editor/frame/"+sid, created.Frame)

	w = env.do(t, http.MethodGet, created.Frame, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sandbox allow-scripts", w.Header().Get("Content-Security-Policy"))
	assert.Contains(t, w.Body.String(), "<script>")

	w = env.do(t, http.MethodGet, "/editor/frame/edit_unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/editor/sessions", nil)
	assert.Contains(t, w.Body.String(), sid)

	// not attached yet, so the editor is not ready
	w = env.do(t, http.MethodPost, "/editor/sessions/"+sid+"/focus", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodDelete, "/editor/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodDelete, "/editor/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamLogs(t *testing.T) {
	env := setup(t)

	w := env.do(t, http.MethodPost, "/api/logs", gin.H{
		"source":  "editor",
		"session": "edit_1",
		"entries": []gin.H{{"id": "1", "level": "warn", "message": "slow render", "context": gin.H{"ms": 120}}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"entries_received":1`)

	w = env.do(t, http.MethodPost, "/api/logs", gin.H{"source": "kernel", "entries": []gin.H{{"message": "x"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/logs", gin.H{"source": "ui"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	env := setup(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"pages":2`)
}

// TestEditorOverWebsocket drives a session the way the frame page does
func TestEditorOverWebsocket(t *testing.T) {
	env := setup(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	_, err := env.store.Write(context.Background(), "plan.draw", []byte("v1"))
	require.NoError(t, err)

	w := env.do(t, http.MethodPost, "/editor/sessions", gin.H{"path": "plan.draw"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[struct {
		Session session.Info `json:"session"`
		Frame   string       `json:"frame"`
	}](t, w)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+created.Frame+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	read := func() editor.Envelope {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		msg, err := editor.UnmarshalEnvelope(data)
		require.NoError(t, err)
		return msg
	}
	write := func(msgType string, data any) {
		t.Helper()
		raw, err := sonic.Marshal(data)
		require.NoError(t, err)
		out, err := editor.Envelope{Type: msgType, Data: raw}.Marshal()
		require.NoError(t, err)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, out))
	}

	initMsg := read()
	assert.Equal(t, "init", initMsg.Type)
	assert.True(t, initMsg.Internal)
	assert.Equal(t, "set-theme", read().Type)
	open := read()
	require.Equal(t, "file-open", open.Type)
	assert.Contains(t, string(open.Data), base64.StdEncoding.EncodeToString([]byte("v1")))

	write("syscall", gin.H{"id": "1", "name": "space.readPage", "args": []any{"other"}})
	resp := read()
	require.Equal(t, "syscall-response", resp.Type)
	assert.True(t, resp.Internal)
	assert.JSONEq(t, `{"id":"1","result":"# Other\n"}`, string(resp.Data))

	saved := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		saved <- env.do(t, http.MethodPost, "/editor/sessions/"+created.Session.ID.String()+"/save", nil)
	}()
	require.Equal(t, "request-save", read().Type)
	write("file-saved", gin.H{"data": base64.StdEncoding.EncodeToString([]byte("v2"))})

	select {
	case w := <-saved:
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"outcome":"acknowledged"}`, w.Body.String())
	case <-time.After(3 * time.Second):
		t.Fatal("save did not complete")
	}

	require.Eventually(t, func() bool {
		data, _, err := env.store.Read(context.Background(), "plan.draw")
		return err == nil && string(data) == "v2"
	}, 2*time.Second, 20*time.Millisecond)
}
