package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// sandboxOrigin is the Origin sent by an iframe sandboxed without
// allow-same-origin, which is how editor frames are served.
const sandboxOrigin = "null"

// CORSConfig controls which browser origins may call the notebook API.
type CORSConfig struct {
	// Origins lists the UI origins; "*" admits any
	Origins []string
	// EditorFrames admits requests from sandboxed editor frames, e.g. editor
	// code shipping its console to /api/logs
	EditorFrames bool
	MaxAge       time.Duration
}

// The API only speaks JSON and markdown, and carries no credentials.
var (
	corsMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsHeaders = []string{"Content-Type", "Accept", "Origin", "Cache-Control", RequestIDHeader}
)

// DefaultCORSConfig admits every origin, editor frames included.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		Origins:      []string{"*"},
		EditorFrames: true,
		MaxAge:       12 * time.Hour,
	}
}

// WithOrigins returns a copy of cfg allowing the given origins. An empty
// list keeps the current ones.
func (cfg CORSConfig) WithOrigins(origins []string) CORSConfig {
	if len(origins) > 0 {
		cfg.Origins = origins
	}
	return cfg
}

// CORS creates the CORS middleware for cfg.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  corsMethods,
		AllowHeaders:  corsHeaders,
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        cfg.MaxAge,
	}
	if slices.Contains(cfg.Origins, "*") {
		c.AllowAllOrigins = true
		return cors.New(c)
	}

	c.AllowOrigins = cfg.Origins
	if cfg.EditorFrames {
		// "null" is not a valid entry for AllowOrigins
		c.AllowOriginFunc = func(origin string) bool { return origin == sandboxOrigin }
	}
	return cors.New(c)
}
