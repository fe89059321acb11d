package api

import (
	"net/http"

	"github.com/medorbit/telecare/monitoring"
)

type HealthHandler struct {
	healthService *monitoring.HealthService
}

func CreateHealthHandler(healthService *monitoring.HealthService) *HealthHandler {
	return &HealthHandler{
		healthService: healthService,
	}
}

func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := h.healthService.GetHealth(r.Context())

	status := http.StatusOK
	if health.Status != monitoring.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}
