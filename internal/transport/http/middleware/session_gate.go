package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/alexkola94/Paire-sub020/internal/core/domain"
	"github.com/alexkola94/Paire-sub020/internal/usecase"
)

// SessionGate runs the revocation check on top of the primary authentication
// stage. Requests without verified claims, public routes, and preflight
// requests pass through untouched; a revoked session is answered with 401
// and the pipeline is short-circuited.
func SessionGate(gate *usecase.GateService) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := domain.GateRequest{
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
			Authorization: c.GetHeader("Authorization"),
			Authenticated: isAuthenticated(c),
		}

		decision := gate.Authorize(c.Request.Context(), req)
		if !decision.Allowed() {
			c.AbortWithStatusJSON(decision.Status, newErrorResponse(c, decision.Message))
			return
		}

		c.Next()
	}
}

// isAuthenticated reports whether the upstream stage verified the credential.
func isAuthenticated(c *gin.Context) bool {
	_, exists := c.Get(ClaimsKey)
	return exists
}
