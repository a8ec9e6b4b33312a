package middleware

import (
	ierr "github.com/flexprice/flexprice/internal/errors"
	"github.com/gin-gonic/gin"
)

// ErrorHandler turns whatever the last handler attached via c.Error
// into the standard ErrorResponse shape, the way the teacher's
// ErrorHandler middleware centralizes error-to-JSON translation
// instead of every handler doing it inline.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		kind := ierr.KindOf(err)
		resp := ierr.NewErrorResponse(err)
		c.JSON(ierr.HTTPStatus(kind), resp)
	}
}
