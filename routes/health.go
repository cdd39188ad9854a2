package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SetupHealthRoutes serves liveness at the root path and at /health for
// load balancers that expect the conventional location.
func SetupHealthRoutes(router *gin.Engine) {
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	}
	router.GET("/", handler)
	router.GET("/health", handler)
}
