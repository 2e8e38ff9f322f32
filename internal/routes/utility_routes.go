package routes

import (
	"github.com/gin-gonic/gin"
	"milk2meat/internal/constants"
	"milk2meat/internal/controllers"
)

func RegisterUtilityRoutes(r *gin.Engine, controllerRegistry map[int]any) {
	r.GET("/heartbeat", controllers.GetHeartBeat)

	statusController := controllerRegistry[constants.Status].(*controllers.StatusController)
	r.GET("/status", statusController.GetStatus)
}
