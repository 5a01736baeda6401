package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"koomia/api/internal/response"
)

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Cache       string `json:"cache"`
	Environment string `json:"environment"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	result := healthResponse{
		Status:      "ok",
		Database:    h.ping(ctx, "database", h.database),
		Cache:       h.ping(ctx, "cache", h.cache),
		Environment: h.env,
	}
	if result.Database == "error" || result.Cache == "error" {
		result.Status = "degraded"
	}
	response.OK(c, result, "")
}

func (h HandlerSet) ping(ctx context.Context, name string, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		h.log.Error().Err(err).Str("dependency", name).Msg("health ping failed")
		return "error"
	}
	return "ok"
}
