package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/danmuck/rigctl/internal/envelope"
)

// IdentityKey is the gin context key carrying the authenticated caller.
const IdentityKey = "identity"

const bearerPrefix = "Bearer "

// RequireToken gates a route group behind bearer auth. A missing or
// malformed header is reported distinctly from a well-formed wrong token.
func RequireToken(v Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if strings.TrimSpace(header) == "" {
			envelope.Abort(c, http.StatusUnauthorized, envelope.CodeAuthenticationFailed, "missing authorization header", nil)
			return
		}
		if !strings.HasPrefix(header, bearerPrefix) {
			envelope.Abort(c, http.StatusUnauthorized, envelope.CodeAuthenticationFailed, "authorization header must use the Bearer scheme", nil)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		if token == "" {
			envelope.Abort(c, http.StatusUnauthorized, envelope.CodeAuthenticationFailed, "empty bearer token", nil)
			return
		}
		if err := v.Validate(token); err != nil {
			envelope.Abort(c, http.StatusUnauthorized, envelope.CodeInvalidToken, "token rejected", nil)
			return
		}
		c.Set(IdentityKey, "operator")
		c.Next()
	}
}
