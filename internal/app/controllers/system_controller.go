package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/miu/unidesk/internal/app/models/dto"
	"github.com/rs/zerolog"
)

// Pinger reports whether a backing store is reachable
type Pinger func(ctx context.Context) error

// SystemController serves health checks
type SystemController struct {
	ping   Pinger
	logger zerolog.Logger
}

// NewSystemController creates a new SystemController. ping may be nil.
func NewSystemController(ping Pinger, logger zerolog.Logger) *SystemController {
	return &SystemController{ping: ping, logger: logger}
}

// Health answers 200 when the database is reachable
func (c *SystemController) Health(ctx *gin.Context) {
	if c.ping != nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		if err := c.ping(pingCtx); err != nil {
			c.logger.Warn().Err(err).Msg("Health check failed")
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "Database unavailable")
			ctx.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(errorDetail))
			return
		}
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}, ""))
}
