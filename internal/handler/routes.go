package handler

import "github.com/gin-gonic/gin"

// Handlers groups every HTTP handler the app exposes
type Handlers struct {
	Pages *PageHandler
	Chat  *ChatHandler
	API   *APIHandler
}

// Register mounts page, chat panel and API routes on r. Session middleware
// must already be installed on r.
func Register(r gin.IRouter, h Handlers) {
	r.GET("/", h.Pages.Index)
	r.POST("/form/budget", h.Pages.SetBudget)
	r.POST("/form/needs/:key", h.Pages.ToggleNeed)
	r.POST("/form/fuels/:code", h.Pages.ToggleFuel) // "all" flips every fuel
	r.POST("/form/transmission", h.Pages.SetTransmission)
	r.POST("/form/brand", h.Pages.SetBrand)
	r.POST("/form/reset", h.Pages.Reset)
	r.POST("/form/submit", h.Pages.Submit)

	r.GET("/results", h.Pages.Results)
	r.POST("/results/back", h.Pages.Back)

	r.POST("/chat", h.Chat.Send)
	r.POST("/chat/analyze", h.Chat.Analyze)
	r.POST("/chat/hint-seen", h.Chat.HintSeen)

	// API routes
	apiV1 := r.Group("/api/v1")
	{
		apiV1.GET("/meta", h.API.GetMeta)
		apiV1.POST("/recommendations", h.API.Recommend)

		apiV1.GET("/chat", h.API.GetChat)
		apiV1.POST("/chat", h.API.PostChat)
		apiV1.DELETE("/chat", h.API.DeleteChat)
		apiV1.POST("/chat/analyze", h.API.Analyze)
		apiV1.POST("/chat/stream", h.API.ChatStream) // Streaming chat turn
	}
}
