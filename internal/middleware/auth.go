package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"koomia/api/internal/apperr"
	"koomia/api/internal/models"
	"koomia/api/internal/repository"
	"koomia/api/internal/response"
	"koomia/api/internal/security"
	"koomia/api/internal/service"
)

const principalKey = "current_principal"

var (
	ErrMissingToken = apperr.New(apperr.Unauthorized, "Authorization token is required.")
	ErrEmptyToken   = apperr.New(apperr.BadRequest, "Authorization token is empty.")
	ErrNoPrincipal  = apperr.New(apperr.Unauthorized, "Authentication required.")
)

// Principal is the authenticated caller attached by Authenticate.
type Principal struct {
	Account models.Account
	Claims  security.Claims
}

// Authenticate resolves the bearer access token into a Principal. Accounts
// that logged out (no stored refresh token) or changed e-mail since the token
// was issued are rejected.
func Authenticate(tokens *security.TokenService, accounts service.AccountStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, err)
			return
		}

		claims, err := tokens.Verify(security.PurposeAccess, tokenStr)
		if err != nil {
			response.Error(c, err)
			return
		}

		account, err := accounts.GetByID(c.Request.Context(), claims.Subject)
		if errors.Is(err, repository.ErrNotFound) {
			response.Error(c, service.ErrAccountNotFound)
			return
		}
		if err != nil {
			response.Error(c, err)
			return
		}
		if account.Email != claims.Email || account.RefreshToken == "" {
			response.Error(c, service.ErrAccountNotFound)
			return
		}
		if account.IsBlocked {
			response.Error(c, service.ErrAccountBlocked)
			return
		}

		c.Set(principalKey, Principal{Account: account, Claims: claims})
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	const prefix = "Bearer"
	if header == "" || !strings.HasPrefix(header, prefix) {
		return "", ErrMissingToken
	}
	rest := header[len(prefix):]
	if rest != "" && rest[0] != ' ' {
		return "", ErrMissingToken
	}
	token := strings.TrimSpace(rest)
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// WithPrincipal adapts a handler that needs the caller. Routes mounted without
// Authenticate answer 401.
func WithPrincipal(handler func(c *gin.Context, p Principal)) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			response.Error(c, ErrNoPrincipal)
			return
		}
		handler(c, p)
	}
}
