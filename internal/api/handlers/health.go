package handlers

import (
	"net/http"

	"github.com/Conceptual-Machines/melodia-api/internal/config"
	"github.com/gin-gonic/gin"
)

// HealthHandler reports service liveness and oracle availability.
type HealthHandler struct {
	cfg *config.Config
}

func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

// HealthCheck returns the health status of the API
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	oracleStatus := "disabled"
	if h.cfg.HasOracle() {
		oracleStatus = "enabled"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"oracle": gin.H{
			"status": oracleStatus,
			"model":  h.cfg.Model,
		},
	})
}
