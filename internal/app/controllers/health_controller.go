package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/techroom/internal/app/models/dto"
	"github.com/yigit/techroom/internal/app/services"
	"github.com/yigit/techroom/internal/pkg/logger"
)

// HealthController reports service health
type HealthController struct {
	healthService *services.HealthService
}

// NewHealthController creates a new HealthController
func NewHealthController(healthService *services.HealthService) *HealthController {
	return &HealthController{healthService: healthService}
}

// Check reports whether the record store is reachable
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /health [get]
func (c *HealthController) Check(ctx *gin.Context) {
	if err := c.healthService.Check(ctx.Request.Context()); err != nil {
		logger.Warn().Err(err).Msg("Health check failed")
		ctx.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "unavailable"})
		return
	}

	ctx.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
}
