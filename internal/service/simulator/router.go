package simulator

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oshokin/rig-panel/internal/config"
	"github.com/oshokin/rig-panel/internal/logger"
)

// okBody is what the firmware answers to every control request.
const okBody = "ok"

// newRouter builds the firmware-compatible HTTP surface.
func newRouter(ctx context.Context, rig *Rig, hub *Hub) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(ctx))

	control := func(apply func()) gin.HandlerFunc {
		return func(c *gin.Context) {
			apply()
			c.Data(http.StatusOK, "text/html", []byte(okBody))
		}
	}

	router.GET(config.PathHold, control(func() { rig.SetWebHeld(true) }))
	router.GET(config.PathRelease, control(func() { rig.SetWebHeld(false) }))
	router.GET(config.PathStart, control(func() { rig.SetRemoteHeld(true) }))
	router.GET(config.PathStop, control(func() { rig.SetRemoteHeld(false) }))

	router.GET("/ws", func(c *gin.Context) {
		hub.Serve(ctx, c.Writer, c.Request)
	})

	router.GET("/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, rig.State())
	})

	return router
}

// requestLogger logs every request through the context logger.
func requestLogger(ctx context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.DebugKV(
			ctx,
			"HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
