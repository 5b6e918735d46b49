package middleware

import (
	"expvar"
	"runtime"

	"github.com/gin-gonic/gin"
)

// m contains global program counters, published under /debug/vars by the debug server
var m = struct {
	gr  *expvar.Int
	req *expvar.Int
	err *expvar.Int
}{
	gr:  expvar.NewInt("goroutines"),
	req: expvar.NewInt("requests"),
	err: expvar.NewInt("errors"),
}

// Metrics updates the program counters after each request.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		m.req.Add(1)

		// sample the goroutine count every 100 requests
		if m.req.Value()%100 == 0 {
			m.gr.Set(int64(runtime.NumGoroutine()))
		}

		if len(c.Errors) > 0 {
			m.err.Add(1)
		}
	}
}
