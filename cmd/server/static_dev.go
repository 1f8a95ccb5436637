//go:build !embed
// +build !embed

package main

import (
	"path/filepath"

	"vroom/internal/handler"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// setupWeb configures templates and static assets from the local filesystem (development)
func setupWeb(router *gin.Engine, webDir string, logger zerolog.Logger) {
	logger.Info().Str("web_dir", webDir).Msg("using local filesystem for web assets (development mode)")

	router.SetFuncMap(handler.TemplateFuncs())
	router.LoadHTMLGlob(filepath.Join(webDir, "templates", "*.html"))
	router.Static("/static", filepath.Join(webDir, "static"))
}
