package controllers

import (
	"errors"
	"net/http"

	"imdcheck/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	healthStatusOK       = "ok"
	healthStatusDegraded = "degraded"
)

type DatasetStatusProvider interface {
	Status() services.DatasetStatus
}

type HealthResponse struct {
	Status  string                  `json:"status"`
	Dataset *services.DatasetStatus `json:"dataset,omitempty"`
}

func RegisterHealthRoutes(router *gin.Engine, probe DatasetStatusProvider) error {
	if router == nil {
		return errors.New("router is nil")
	}

	router.GET("/health", HealthHandler(probe))
	return nil
}

// HealthHandler reports the last dataset probe. Before the first probe, or
// without a probe, it only reports that the process is serving.
func HealthHandler(probe DatasetStatusProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if probe == nil {
			c.JSON(http.StatusOK, HealthResponse{Status: healthStatusOK})
			return
		}

		status := probe.Status()
		if status.CheckedAt.IsZero() {
			c.JSON(http.StatusOK, HealthResponse{Status: healthStatusOK})
			return
		}
		if !status.Available {
			c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: healthStatusDegraded, Dataset: &status})
			return
		}

		c.JSON(http.StatusOK, HealthResponse{Status: healthStatusOK, Dataset: &status})
	}
}
