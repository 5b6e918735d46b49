package middleware

import (
	"os"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/dsnp/frequency-resolver/config"
	"github.com/dsnp/frequency-resolver/pkg/server/framework"
)

// Errors handles errors coming out of the call stack. Handlers respond on their own, so the
// errors recorded on the context are only logged here, and a shutdown-worthy error signals
// the server to stop.
func Errors(shutdown chan os.Signal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		tracer := trace.SpanFromContext(c.Request.Context()).TracerProvider().Tracer(config.ServiceName)
		_, span := tracer.Start(c.Request.Context(), "service.middleware.errors")
		defer span.End()

		errors := c.Errors.ByType(gin.ErrorTypeAny)
		if len(errors) == 0 {
			return
		}

		// check if there's a shutdown-worthy error
		for _, e := range errors {
			if framework.IsShutdown(e.Err) {
				c.Set(framework.ShutdownErrorKey.String(), e.Err)
				if shutdown != nil {
					select {
					case shutdown <- syscall.SIGTERM:
					default:
					}
				}
				return
			}
		}

		// otherwise just log the errors
		logrus.WithFields(logrus.Fields{
			"trace_id":   span.SpanContext().TraceID().String(),
			"request_id": c.GetString(framework.RequestIDKey.String()),
		}).Errorf("request errors: %v", errors.Errors())
	}
}
