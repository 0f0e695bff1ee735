package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"shipping-rates-service/internal/models"
)

func setupTestRouter(handler *RatesHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/rates/quote", handler.GetQuote)
	router.GET("/health", handler.HealthCheck)
	return router
}

func TestGetQuoteRejectsMalformedBody(t *testing.T) {
	router := setupTestRouter(NewRatesHandler(nil, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/rates/quote", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request body")
}

func TestGetQuoteRejectsEmptyItems(t *testing.T) {
	router := setupTestRouter(NewRatesHandler(nil, nil))

	// Binding enforces min=1 on items before the orchestrator ever runs.
	body := `{"items": [], "destination_zip": "02144"}`
	req := httptest.NewRequest(http.MethodPost, "/api/rates/quote", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
}

func TestGetQuoteRejectsMissingZip(t *testing.T) {
	router := setupTestRouter(NewRatesHandler(nil, nil))

	body := `{"items": [{"product_id": "6a6f98e6-96a1-4e0b-94f1-9e9ad9d9f0c1", "quantity": 1}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/rates/quote", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthCheck(t *testing.T) {
	router := setupTestRouter(NewRatesHandler(nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
