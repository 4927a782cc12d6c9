package response

import "github.com/gin-gonic/gin"

// Response represents a standard API response
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success sends a successful response
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error sends an error response. err is optional and attached to the context for logging.
func Error(c *gin.Context, code int, message string, err ...error) {
	resp := Response{Code: code, Message: message}
	if len(err) > 0 && err[0] != nil {
		resp.Error = err[0].Error()
		c.Error(err[0])
	}
	c.AbortWithStatusJSON(code, resp)
}

// BadRequest sends a 400 bad request response
func BadRequest(c *gin.Context, message string, err ...error) {
	Error(c, 400, message, err...)
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string, err ...error) {
	Error(c, 401, message, err...)
}

// NotFound sends a 404 not found response
func NotFound(c *gin.Context, message string, err ...error) {
	Error(c, 404, message, err...)
}

// InternalError sends a 500 internal server error response
func InternalError(c *gin.Context, message string, err ...error) {
	Error(c, 500, message, err...)
}
