package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/constants"
	apierrors "github.com/yukikurage/taskflow-api/internal/errors"
)

// RequireIDParam parses the :id path parameter as a positive integer and
// stores it in the context; anything else is rejected with 422.
func RequireIDParam() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || id == 0 {
			apierrors.Unprocessable(c, apierrors.NewValidationError("id", "value is not a valid integer"))
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyResourceID, id)
		c.Next()
	}
}

// GetResourceID returns the id parsed by RequireIDParam.
func GetResourceID(c *gin.Context) uint64 {
	return c.GetUint64(constants.ContextKeyResourceID)
}
