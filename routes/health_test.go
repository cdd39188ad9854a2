package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHealthServedAtRootAndHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	SetupHealthRoutes(router)

	for _, path := range []string{"/", "/health"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("GET %s status %d, want 200", path, w.Code)
		}
		var body map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("GET %s body not JSON: %v", path, err)
		}
		if body["status"] != "healthy" {
			t.Fatalf("GET %s status field %v", path, body["status"])
		}
	}
}
