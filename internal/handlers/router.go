package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	Orders            *OrderHandler
	Statuses          *StatusHandler
	Admin             *AdminHandler
	OperatorTokenHash string
	Logger            *slog.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(cfg.Logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	operator := OperatorAuth(cfg.OperatorTokenHash)

	api := router.Group("/api")
	{
		api.GET("/statuses", cfg.Statuses.GetStatuses)
		api.PUT("/statuses", operator, cfg.Statuses.UpdateStatuses)
		api.GET("/pipeline/steps", cfg.Statuses.GetPipelineSteps)

		api.POST("/customers", cfg.Orders.CreateCustomer)
		api.GET("/customers/:id", cfg.Orders.GetCustomer)

		api.POST("/orders", cfg.Orders.CreateOrder)
		api.GET("/orders", cfg.Orders.ListOrders)
		api.GET("/orders/:id", cfg.Orders.GetOrder)
		api.DELETE("/orders/:id", cfg.Orders.DeleteOrder)
		api.GET("/orders/:id/pipeline", cfg.Orders.GetPipeline)
		api.PUT("/orders/:id/status", cfg.Orders.UpdateStatus)
		api.PUT("/orders/:id/pipeline-stage", cfg.Orders.UpdatePipelineStage)
		api.PUT("/orders/:id/details", cfg.Orders.UpdateDetails)
		api.GET("/orders/:id/checklist", cfg.Orders.GetChecklist)
		api.PUT("/orders/:id/checklist/:template_id", cfg.Orders.UpdateChecklistItem)
		api.POST("/orders/:id/quotes", cfg.Orders.AddQuote)
		api.PUT("/quotes/:id/status", cfg.Orders.UpdateQuoteStatus)

		admin := api.Group("/admin", operator)
		admin.GET("/status-drift", cfg.Admin.ListDrift)
		admin.POST("/status-drift/:id/repair", cfg.Admin.RepairStatus)
	}

	return router
}
