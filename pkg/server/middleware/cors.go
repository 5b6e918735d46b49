package middleware

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows any origin to read resolution results.
func CORS() gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}
	config.AllowHeaders = []string{"Origin", "Accept", "Content-Type", RequestIDHeader}
	config.ExposeHeaders = []string{RequestIDHeader}
	return cors.New(config)
}
