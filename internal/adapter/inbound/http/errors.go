package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/0xsj/overwatch-pkg/errors"
	"github.com/0xsj/overwatch-pkg/httputil"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError renders err and aborts the chain. Domain errors keep their
// code and message; anything else is a 500 whose message is not exposed.
func writeError(c *gin.Context, err error) {
	status := httputil.StatusFromError(err)
	code := errors.GetCode(err)

	message := http.StatusText(status)
	if e := errors.AsError(err); e != nil && status < http.StatusInternalServerError {
		message = e.Message
	}
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}

	c.AbortWithStatusJSON(status, errorBody{
		Error: errorDetail{
			Code:    code.String(),
			Message: message,
		},
	})
}
