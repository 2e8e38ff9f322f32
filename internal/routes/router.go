package routes

import (
	"github.com/gin-gonic/gin"
	"milk2meat/internal/config"
	"milk2meat/internal/middlewares"
	"milk2meat/internal/session"
)

// InitRouter installs the middleware and every route. The controller registry is keyed
// by the constants package; store decides whether a bearer token has been revoked.
func InitRouter(engine *gin.Engine, controllerRegistry map[int]any, c *config.Configuration, store session.TokenStore) {
	InitMiddleware(engine, c)

	RegisterProtectedRoutes(engine, controllerRegistry, c.Auth.SigningKey, store)
	RegisterPublicRoutes(engine, controllerRegistry)
	RegisterUtilityRoutes(engine, controllerRegistry)
}

func InitMiddleware(engine *gin.Engine, c *config.Configuration) {
	engine.Use(middlewares.CORSMiddleware(c.Cors.AllowedOrigins))
}
