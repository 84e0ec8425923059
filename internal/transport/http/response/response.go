package response

import "github.com/gin-gonic/gin"

const (
	CodeOK                = 0
	CodeBadRequest        = 40000
	CodeUnauthorized      = 40100
	CodeForbidden         = 40300
	CodeNotFound          = 40400
	CodeMissingAPIKey     = 40010
	CodeInvalidAPIKey     = 40011
	CodeEmptyContent      = 42200
	CodeTooManyFragments  = 41300
	CodeProviderExhausted = 42900
	CodeProviderError     = 50200
	CodeInternalServer    = 50000
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(200, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, APIResponse{
		Code:    code,
		Message: message,
	})
}
