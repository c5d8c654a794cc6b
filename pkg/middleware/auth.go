package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skyfield/listenerd/internal/auth"
	"github.com/skyfield/listenerd/internal/sessions"
	"github.com/skyfield/listenerd/internal/validation"
)

// RolesFunc resolves extra roles for a subject, on top of what the token carries.
// May be nil.
type RolesFunc func(ctx context.Context, sub string) []string

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the
// provided verifier. On success it stores the raw claims under "claims" and a
// validation.UserContext under "user" for downstream handlers.
func AuthMiddleware(ver auth.Verifier, extraRoles RolesFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		// Expect 'Bearer <token>'
		var token string
		if n, _ := fmt.Sscanf(authHeader, "Bearer %s", &token); n != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		if blocked, err := sessions.IsAccessTokenBlacklisted(c.Request.Context(), token); err == nil && blocked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			return
		}

		idToken, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": err.Error()})
			return
		}

		var claims map[string]interface{}
		if err := idToken.Claims(&claims); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
			return
		}

		c.Set("claims", claims)
		c.Set("user", userContextFromClaims(c.Request.Context(), claims, extraRoles))
		c.Next()
	}
}

func userContextFromClaims(ctx context.Context, claims map[string]interface{}, extraRoles RolesFunc) validation.UserContext {
	user := validation.UserContext{Roles: auth.RolesFromClaims(claims)}
	sub, _ := claims["sub"].(string)
	if name, ok := claims["name"].(string); ok && name != "" {
		user.Name = name
	} else {
		user.Name = sub
	}
	if extraRoles != nil && sub != "" {
		for _, role := range extraRoles(ctx, sub) {
			if !user.UserIs(role) {
				user.Roles = append(user.Roles, role)
			}
		}
	}
	return user
}

// UserFromContext returns the UserContext set by AuthMiddleware, if any.
func UserFromContext(c *gin.Context) (validation.UserContext, bool) {
	v, ok := c.Get("user")
	if !ok {
		return validation.UserContext{}, false
	}
	user, ok := v.(validation.UserContext)
	return user, ok
}
