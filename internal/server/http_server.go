package server

import (
	"fmt"
	"log/slog"

	"github.com/antonkh/kupid/internal/config"

	"github.com/gin-gonic/gin"
)

// NewEngine builds the gin engine with shared middleware and registers all
// provided services under /v1.
func NewEngine(cfg *config.Config, logger *slog.Logger, registrars ...Registrar) *gin.Engine {
	if cfg.App.ENV != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), RequestID(), AccessLog(logger))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/v1")
	for _, r := range registrars {
		r.Register(v1)
	}

	return engine
}

// StartHTTPServer boots the HTTP wrapper around the core library.
func StartHTTPServer(cfg *config.Config, logger *slog.Logger, registrars ...Registrar) error {
	engine := NewEngine(cfg, logger, registrars...)
	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	return engine.Run(addr)
}
