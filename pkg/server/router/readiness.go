package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dsnp/frequency-resolver/pkg/server/framework"
	svcframework "github.com/dsnp/frequency-resolver/pkg/service/framework"
)

type GetReadinessResponse struct {
	Status          svcframework.Status                       `json:"status"`
	ServiceStatuses map[svcframework.Type]svcframework.Status `json:"serviceStatuses"`
}

// Readiness godoc
//
// @Summary     Readiness
// @Description Readiness runs a number of application specific checks to see if all the relied upon services are
// @Description healthy. A service that is not ready is reported with a 503.
// @Tags        Readiness
// @Produce     json
// @Success     200 {object} GetReadinessResponse
// @Failure     503 {object} GetReadinessResponse
// @Router      /readiness [get]
func Readiness(services []svcframework.Service, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		numServices := len(services)
		readyServices := 0
		statuses := make(map[svcframework.Type]svcframework.Status, numServices)
		for _, s := range services {
			status := s.Status(ctx)
			statuses[s.Type()] = status
			if status.Status == svcframework.StatusReady {
				readyServices++
			}
		}

		var status svcframework.Status
		statusCode := http.StatusOK
		if readyServices < numServices {
			status = svcframework.Status{
				Status:  svcframework.StatusNotReady,
				Message: fmt.Sprintf("out of [%d] services, [%d] are ready", numServices, readyServices),
			}
			statusCode = http.StatusServiceUnavailable
		} else {
			status = svcframework.Status{
				Status:  svcframework.StatusReady,
				Message: "all services ready",
			}
		}
		response := GetReadinessResponse{
			Status:          status,
			ServiceStatuses: statuses,
		}
		framework.Respond(c, response, statusCode)
	}
}
