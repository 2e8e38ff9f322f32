package controllers

import (
	"github.com/gin-gonic/gin"
	"milk2meat/internal/api"
	"milk2meat/internal/environment"
	"milk2meat/internal/logging"
	"net/http"
	"time"
)

func GetHeartBeat(c *gin.Context) {
	c.AbortWithStatus(http.StatusOK)
}

// StatusController reports whether the service and its collaborators are usable.
type StatusController struct {
	*environment.Env
	StartedAt      time.Time
	StorageEnabled bool
}

type Status struct {
	Uptime         string `json:"uptime"`
	Database       bool   `json:"database"`
	BookCount      int64  `json:"bookCount"`
	StorageEnabled bool   `json:"storageEnabled"`
}

// GetStatus answers 200 while the database is reachable and 503 otherwise.
//
// @ID getStatus
// @Summary Service status
// @Tags status
// @Router /status [get]
// @Success 200 {object} api.RestJsonResponse{data=controllers.Status}
// @Failure 503 {object} api.RestJsonResponse{data=controllers.Status}
func (sc *StatusController) GetStatus(c *gin.Context) {
	status := Status{
		Uptime:         time.Since(sc.StartedAt).Round(time.Second).String(),
		StorageEnabled: sc.StorageEnabled,
	}

	if err := sc.CountBooks(c.Request.Context(), &status.BookCount); err != nil {
		sc.LogErrorf(logging.GetLogType("status"), "database not reachable: %v", err)
		c.JSON(http.StatusServiceUnavailable, api.NewGenericResponse(api.Error, "database not reachable", status))
		return
	}
	status.Database = true

	c.JSON(http.StatusOK, api.NewGenericResponse(api.Success, "running", status))
}
