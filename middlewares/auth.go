package middlewares

import (
	"net/http"
	"strings"

	"github.com/luiz3283/HELP-PRO/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware checks the bearer token and, when roles are given, requires one of them.
func AuthMiddleware(secret string, requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing or invalid token"})
			return
		}
		authorize(c, strings.TrimPrefix(h, "Bearer "), secret, requiredRoles)
	}
}

func authorize(c *gin.Context, tokenStr, secret string, requiredRoles []string) {
	claims, err := utils.ParseToken(tokenStr, secret)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
		return
	}

	c.Set("riderId", claims.RiderID)
	c.Set("role", claims.Role)

	if len(requiredRoles) > 0 {
		allowed := false
		for _, r := range requiredRoles {
			if claims.Role == r {
				allowed = true
				break
			}
		}
		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "forbidden"})
			return
		}
	}

	c.Next()
}
