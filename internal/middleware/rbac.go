package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/exam-registration-api/pkg/errors"
	"github.com/noah-isme/exam-registration-api/pkg/response"
)

// RequireStaff only lets staff principals through. It must run after JWT.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthenticated)
			c.Abort()
			return
		}
		if !claims.IsStaff {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "staff access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
