package controller

import (
	"context"
	"net/http"
	"time"

	"practice_exam_backend/internal/model"
	"practice_exam_backend/internal/util"
	"practice_exam_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger is the part of the table store health checks need.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	Store   Pinger
	Service string
	Version string
	Now     func() time.Time
}

func NewHealthController(store Pinger, service, version string) *HealthController {
	return &HealthController{
		Store:   store,
		Service: service,
		Version: version,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// @Summary Health check
// @Description Reports whether the API and its table store are reachable
// @Tags system
// @Produce json
// @Success 200 {object} model.HealthStatus
// @Failure 503 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := c.Store.Ping(pingCtx); err != nil {
		logger.Log.Error("Health check failed", zap.Error(err))
		util.Error(ctx, http.StatusServiceUnavailable, "Storage unavailable")
		return
	}

	util.Success(ctx, model.HealthStatus{
		Status:    "healthy",
		Timestamp: c.Now(),
		Message:   "Practice exam API is running",
		Version:   c.Version,
		Service:   c.Service,
	})
}
