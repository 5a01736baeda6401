package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"koomia/api/internal/apperr"
)

const exposeKey = "response.expose_internal"

const internalMessage = "Internal server error."

type Success struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

type Failure struct {
	Success bool   `json:"success"`
	Error   any    `json:"error"`
	Message string `json:"message"`
}

// Expose decides, per request, whether internal error text reaches the client.
func Expose(internal bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(exposeKey, internal)
		c.Next()
	}
}

func OK(c *gin.Context, data any, message string) {
	Send(c, http.StatusOK, data, message)
}

func Created(c *gin.Context, data any, message string) {
	Send(c, http.StatusCreated, data, message)
}

func NoContent(c *gin.Context, message string) {
	Send(c, http.StatusNoContent, nil, message)
}

func Send(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Success{Success: true, Data: data, Message: message})
}

// Error renders err and aborts the chain. Domain errors keep their code and
// message; anything else is a 500 whose text is masked unless Expose(true) ran.
func Error(c *gin.Context, err error) {
	status, body := failure(c, err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, body)
}

func failure(c *gin.Context, err error) (int, Failure) {
	if e, ok := apperr.As(err); ok {
		return e.Status(), Failure{Error: e.Details, Message: e.Message}
	}
	if c.GetBool(exposeKey) {
		return http.StatusInternalServerError, Failure{Error: err.Error(), Message: err.Error()}
	}
	return http.StatusInternalServerError, Failure{Message: internalMessage}
}
