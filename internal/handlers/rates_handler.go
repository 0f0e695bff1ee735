package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shipping-rates-service/internal/models"
	"shipping-rates-service/internal/repository"
	"shipping-rates-service/internal/services"
)

// RatesHandler handles HTTP requests for shipping rate quotes
type RatesHandler struct {
	orchestrator *services.RateOrchestrator
	catalogRepo  repository.CatalogRepository
}

// NewRatesHandler creates a new rates handler
func NewRatesHandler(orchestrator *services.RateOrchestrator, catalogRepo repository.CatalogRepository) *RatesHandler {
	return &RatesHandler{
		orchestrator: orchestrator,
		catalogRepo:  catalogRepo,
	}
}

// GetQuote handles POST /api/rates/quote
func (h *RatesHandler) GetQuote(c *gin.Context) {
	tenantID := getTenantID(c)

	var request models.QuoteRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   "Invalid request body",
			Message: err.Error(),
		})
		return
	}

	response, err := h.orchestrator.Quote(c.Request.Context(), tenantID, request)
	if err != nil {
		// The orchestrator only errors on structurally invalid input; every
		// collaborator failure degrades into warnings on a success response.
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   "Invalid quote request",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListWarehouses handles GET /api/warehouses
func (h *RatesHandler) ListWarehouses(c *gin.Context) {
	warehouses, err := h.catalogRepo.GetActiveWarehouses(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error:   "Failed to list warehouses",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Data:    warehouses,
	})
}

// HealthCheck handles GET /health
func (h *RatesHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shipping-rates-service",
	})
}

// getTenantID extracts the tenant ID set by TenantMiddleware
func getTenantID(c *gin.Context) string {
	return c.GetString("tenant_id")
}
