package http

import (
	"github.com/gin-gonic/gin"
)

// Register mounts every endpoint on router
func (h *Handlers) Register(router gin.IRouter) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	// Raw space files, the source of local inline media
	router.GET("/fs/*path", h.ServeFile)

	api := router.Group("/api")
	{
		api.POST("/decorations", h.Decorations)
		api.GET("/widgets/height", h.GetHeight)
		api.POST("/widgets/height", h.ReportHeight)
		api.GET("/render/*name", h.RenderPage)

		api.GET("/pages", h.ListPages)
		api.GET("/pages/*name", h.GetPage)
		api.PUT("/pages/*name", h.PutPage)
		api.DELETE("/pages/*name", h.DeletePage)
		api.GET("/files", h.ListFiles)

		api.GET("/services", h.ListServices)
		api.POST("/syscall", h.Syscall)

		api.GET("/themes", h.ListThemes)
		api.PUT("/theme", h.SetTheme)

		api.POST("/logs", h.StreamLogs)
	}

	editors := router.Group("/editor")
	{
		editors.GET("/editors", h.ListEditors)
		editors.GET("/sessions", h.ListSessions)
		editors.POST("/sessions", h.OpenSession)
		editors.GET("/sessions/:id", h.GetSession)
		editors.POST("/sessions/:id/save", h.SaveSession)
		editors.POST("/sessions/:id/focus", h.FocusSession)
		editors.PUT("/sessions/:id/content", h.ReplaceContent)
		editors.POST("/sessions/:id/messages", h.SendMessage)
		editors.DELETE("/sessions/:id", h.CloseSession)

		editors.GET("/frame/:id", h.FramePage)
		editors.GET("/frame/:id/ws", h.FrameSocket)
	}
}
