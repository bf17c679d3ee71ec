package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"search-prediction-api/services"

	"github.com/gin-gonic/gin"
)

func TestLivePredictionsWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/ws/predictions", LivePredictions(services.NewCacheService("")))

	req := httptest.NewRequest(http.MethodGet, "/ws/predictions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503 when redis is not configured", w.Code)
	}
}
