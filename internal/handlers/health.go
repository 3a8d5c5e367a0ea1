package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthResponse reports service liveness
type HealthResponse struct {
	Status string `json:"status"`
}

// HealthCheck godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
