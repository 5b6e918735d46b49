package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dsnp/frequency-resolver/pkg/server/framework"
)

// Panics recovers from panics, logs the stack and responds with a generic 500.
func Panics() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logrus.WithField("request_id", c.GetString(framework.RequestIDKey.String())).
			Errorf("PANIC : %v\n%s", recovered, debug.Stack())
		framework.Respond(c, framework.ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)}, http.StatusInternalServerError)
		c.Abort()
	})
}
