package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order-app/utils"
)

// WebSocketAuth guards the kitchen stream. Browsers cannot set headers on a
// websocket handshake, so the token comes from ?token= and the Authorization
// header is only a fallback for non-browser clients.
func WebSocketAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if token == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("token missing"))
			c.Abort()
			return
		}

		if !authorize(c, secret, token) {
			return
		}
		c.Next()
	}
}
