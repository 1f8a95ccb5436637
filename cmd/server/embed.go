//go:build embed
// +build embed

package main

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"vroom/internal/handler"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

//go:embed web/templates web/static
var webFS embed.FS

// setupWeb configures templates and static assets from the embedded filesystem
func setupWeb(router *gin.Engine, _ string, logger zerolog.Logger) {
	logger.Info().Msg("using embedded web assets")

	tmpl, err := template.New("").Funcs(handler.TemplateFuncs()).ParseFS(webFS, "web/templates/*.html")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse embedded templates")
	}
	router.SetHTMLTemplate(tmpl)

	staticFS, err := fs.Sub(webFS, "web/static")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to get static subdirectory")
	}
	router.StaticFS("/static", http.FS(staticFS))
}
