package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

// bizError carries the business code proxyutil reads through the Code()
// accessor when writing the failure envelope.
type bizError struct {
	code uint32
	msg  string
}

func (e *bizError) Error() string {
	return e.msg
}

func (e *bizError) Code() uint32 {
	return e.code
}

// Success writes {"code":0, "data":...}.
func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error writes the failure envelope with HTTP 200; the business code in
// the body is what clients dispatch on.
func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, http.StatusOK, &bizError{code: uint32(code), msg: message})
}
