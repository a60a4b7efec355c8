package handlers

import (
	"log/slog"
	"net/http"

	"flooring_crm/internal/lifecycle"
	"flooring_crm/internal/models"
	"flooring_crm/internal/services"

	"github.com/gin-gonic/gin"
)

type StatusHandler struct {
	statusService services.StatusService
	logger        *slog.Logger
}

func NewStatusHandler(statusService services.StatusService, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{statusService: statusService, logger: logger}
}

type UpdateStatusesRequest struct {
	Statuses []models.StatusDefinition `json:"statuses" binding:"required"`
}

func (h *StatusHandler) GetStatuses(c *gin.Context) {
	defs, err := h.statusService.GetStatusDefinitions(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": defs})
}

func (h *StatusHandler) UpdateStatuses(c *gin.Context) {
	var req UpdateStatusesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	defs, err := h.statusService.SetStatusDefinitions(c.Request.Context(), req.Statuses, operatorName(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statuses": defs})
}

func (h *StatusHandler) GetPipelineSteps(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"steps": lifecycle.Steps()})
}
