package framework

import (
	"net/http"

	sdkutil "github.com/TBD54566975/ssi-sdk/util"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

// Respond convert a Go value to JSON and sends it to the client.
func Respond(c *gin.Context, data any, statusCode int) {
	// if there's no payload to marshal, set the status code of the response and return
	if statusCode == http.StatusNoContent {
		c.Status(statusCode)
		return
	}

	// respond with pretty JSON
	c.IndentedJSON(statusCode, data)
}

// RespondError sends an error response back to the client. If the error is a `SafeError`,
// the error message and fields are sent back to the client. If the error is not a
// `SafeError`, a generic error message is sent back to the client.
func RespondError(c *gin.Context, err error) {
	// if the cause of the error provided is a `SafeError`, construct an ErrorResponse
	// using the contents of SafeError and send it back to the client
	var webErr *SafeError
	if ok := errors.As(err, &webErr); ok {
		er := ErrorResponse{
			Error:  webErr.Err.Error(),
			Code:   webErr.Code,
			Fields: webErr.Fields,
		}
		Respond(c, er, webErr.StatusCode)
		return
	}

	// if the error isn't a `SafeError`, it's not safe to send back the error
	// message as is because it may contain sensitive data. Send back a generic
	// 500.
	er := ErrorResponse{
		Error: http.StatusText(http.StatusInternalServerError),
	}

	Respond(c, er, http.StatusInternalServerError)
}

// LoggingRespondErrMsg logs errMsg and responds with it under the given status.
func LoggingRespondErrMsg(c *gin.Context, errMsg string, statusCode int) {
	LoggingRespondError(c, sdkutil.LoggingNewError(errMsg), statusCode)
}

// LoggingRespondErrWithMsg logs err wrapped by errMsg and responds with errMsg under the given status.
func LoggingRespondErrWithMsg(c *gin.Context, err error, errMsg string, statusCode int) {
	LoggingRespondError(c, sdkutil.LoggingErrorMsg(err, errMsg), statusCode)
}

// LoggingRespondError records err on the gin context for the errors middleware and responds with it.
func LoggingRespondError(c *gin.Context, err error, statusCode int) {
	_ = c.Error(err)
	RespondError(c, NewRequestError(err, statusCode))
}

// LoggingRespondCodedErr logs err wrapped by errMsg and responds with errMsg alone, tagged with a
// machine readable code.
func LoggingRespondCodedErr(c *gin.Context, err error, errMsg string, statusCode int, code string) {
	_ = c.Error(sdkutil.LoggingErrorMsg(err, errMsg))
	RespondError(c, NewCodedRequestError(errors.New(errMsg), statusCode, code))
}
