package handlers

import (
	"log/slog"
	"net/http"

	"flooring_crm/internal/lifecycle"
	"flooring_crm/internal/services"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	repairService services.RepairService
	logger        *slog.Logger
}

func NewAdminHandler(repairService services.RepairService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{repairService: repairService, logger: logger}
}

type RepairStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type driftedOrder struct {
	ID          uint    `json:"id"`
	OrderNumber *string `json:"order_number"`
	Status      string  `json:"status"`
	CustomerID  uint    `json:"customer_id"`
}

func (h *AdminHandler) ListDrift(c *gin.Context) {
	orders, err := h.repairService.FindDriftedOrders(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	drifted := make([]driftedOrder, len(orders))
	for i, o := range orders {
		drifted[i] = driftedOrder{ID: o.ID, OrderNumber: o.OrderNumber, Status: o.Status, CustomerID: o.CustomerID}
	}
	c.JSON(http.StatusOK, gin.H{
		"orders":         drifted,
		"valid_statuses": lifecycle.SystemStatusIDs(),
	})
}

func (h *AdminHandler) RepairStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req RepairStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format")
		return
	}

	if err := h.repairService.RepairStatus(c.Request.Context(), id, req.Status); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.logger.Info("status repaired by operator", "order_id", id, "operator", operatorName(c))
	c.JSON(http.StatusOK, gin.H{"status": "repaired"})
}
