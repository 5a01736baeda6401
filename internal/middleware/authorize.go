package middleware

import (
	"github.com/gin-gonic/gin"

	"koomia/api/internal/apperr"
	"koomia/api/internal/response"
)

var (
	ErrAdminOnly   = apperr.New(apperr.Forbidden, "Administrator access required.")
	ErrNotVerified = apperr.New(apperr.Unauthorized, "Please verify your email address first.")
)

func RequireAdmin() gin.HandlerFunc {
	return WithPrincipal(func(c *gin.Context, p Principal) {
		if !p.Account.IsAdmin() {
			response.Error(c, ErrAdminOnly)
			return
		}
		c.Next()
	})
}

// RequireVerified lets administrators through regardless of verification.
func RequireVerified() gin.HandlerFunc {
	return WithPrincipal(func(c *gin.Context, p Principal) {
		if !p.Account.IsVerified && !p.Account.IsAdmin() {
			response.Error(c, ErrNotVerified)
			return
		}
		c.Next()
	})
}
