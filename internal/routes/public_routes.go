package routes

import (
	"github.com/gin-gonic/gin"
	"milk2meat/internal/auth"
	"milk2meat/internal/constants"
	"milk2meat/internal/controllers"
)

func RegisterPublicRoutes(r *gin.Engine, controllerRegistry map[int]any) {
	authApi := controllerRegistry[constants.Auth].(auth.Api)
	r.POST("/auth/login", authApi.Login)

	markdownApi := controllerRegistry[constants.Markdown].(controllers.MarkdownApi)
	r.GET("/markdown/highlight.css", markdownApi.GetHighlightStyleSheet)
}
