package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeSuccess      = 0
	CodeParamError   = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeServerError  = 500
)

// Business codes. Returned with HTTP 200 when the condition is a normal
// product outcome rather than a failure (e.g. insufficient balance must let
// the client prompt a purchase, not show an error page).
const (
	CodeOrderNotFound      = 1001
	CodeOrderStatusInvalid = 1002
	CodeBalanceNotEnough   = 1003
	CodeInvalidProduct     = 1004
	CodeAccountNotFound    = 1005
)

type Response struct {
	Code    int         `json:"code"`
	Error   string      `json:"error,omitempty"`
	Details string      `json:"details,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: CodeSuccess,
		Data: data,
	})
}

// Error writes an error envelope with the HTTP status matching the error
// class. Internal detail never leaks past the Details string the caller
// chooses to expose.
func Error(c *gin.Context, status, code int, message string) {
	c.JSON(status, Response{
		Code:  code,
		Error: message,
	})
}

func ParamError(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, CodeParamError, message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, CodeUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, CodeForbidden, message)
}

func ServerError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, CodeServerError, message)
}

// BusinessError reports an expected product outcome; HTTP 200 so clients
// branch on the code field.
func BusinessError(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:  code,
		Error: message,
	})
}
