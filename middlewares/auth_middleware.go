package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order-app/utils"
)

// Context keys set by AdminAuth.
const (
	CtxSubject      = "subject"
	CtxRole         = "role"
	CtxToken        = "token"
	CtxTokenExpires = "token_expires"
)

// AdminAuth accepts "Authorization: Bearer <jwt>" signed with secret and not
// revoked by logout.
func AdminAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("authorization header missing"))
			c.Abort()
			return
		}

		// Validasi format token
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid token format"))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if !authorize(c, secret, tokenString) {
			return
		}
		c.Next()
	}
}

// authorize validates tokenString and stores its claims on the context. It
// aborts with 401 and returns false when the token is unusable.
func authorize(c *gin.Context, secret []byte, tokenString string) bool {
	claims, err := utils.ParseToken(secret, tokenString)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		c.Abort()
		return false
	}

	// Cek apakah token ada di daftar blacklist
	if utils.IsTokenBlacklisted(tokenString) {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("token has been revoked"))
		c.Abort()
		return false
	}

	c.Set(CtxSubject, claims.Subject)
	c.Set(CtxRole, claims.Role)
	c.Set(CtxToken, tokenString)
	if claims.ExpiresAt != nil {
		c.Set(CtxTokenExpires, claims.ExpiresAt.Time)
	}
	return true
}
