package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dsnp/frequency-resolver/internal/util"
	"github.com/dsnp/frequency-resolver/pkg/server/framework"
)

// RequestIDHeader carries the request id back to the caller.
const RequestIDHeader = "X-Request-ID"

// Logger logs request info before and after a handler runs, tagging both lines with a request id:
//
//	started : GET /1.0/identifiers/did:dsnp:1 -> 192.168.1.0
//	completed : GET /1.0/identifiers/did:dsnp:1 -> 192.168.1.0 (200) (4ms)
func Logger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(framework.RequestIDKey.String(), requestID)
		c.Header(RequestIDHeader, requestID)

		path := util.SanitizeLog(c.Request.URL.Path)
		entry := logger.WithField("request_id", util.SanitizeLog(requestID))
		entry.Debugf("started : %s %s -> %s", c.Request.Method, path, c.ClientIP())

		start := time.Now()
		c.Next()

		entry.Infof("completed : %s %s -> %s (%d) (%s)",
			c.Request.Method, path, c.ClientIP(),
			c.Writer.Status(), time.Since(start),
		)
	}
}
