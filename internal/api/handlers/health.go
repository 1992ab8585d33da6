package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthResponse is the GET /api/health body.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Health handles GET /api/health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "OK", Message: "Sukoon API is running"})
}
