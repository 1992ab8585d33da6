package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rajankumarrkr/sukoon/internal/signaling"
)

// StatsSource reports realtime state. *signaling.Service implements it.
type StatsSource interface {
	Stats() signaling.Stats
}

type CallHandler struct {
	stats StatsSource
}

func NewCallHandler(stats StatsSource) *CallHandler {
	return &CallHandler{stats: stats}
}

// Debug handles GET /api/calls/debug
func (h *CallHandler) Debug(c *gin.Context) {
	c.JSON(http.StatusOK, h.stats.Stats())
}
