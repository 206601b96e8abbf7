package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// principalContextKey is the gin context key the resolved principal id is
// stored under. The spec names the authenticated-principal accessor as an
// out-of-scope collaborator (§1); this middleware is the minimal stand-in
// for whatever OAuth/session layer a deployment wires in front of it.
const principalContextKey = "principal_user_id"

// AuthOptional extracts a bearer token as the caller's user id when
// present, without rejecting unauthenticated requests: several endpoints
// (type and group reads, for example) are valid without a principal, so
// authorization is enforced downstream by the ACL engine, not here.
func AuthOptional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := extractBearer(c.GetHeader("Authorization")); ok {
			c.Set(principalContextKey, userID)
		}
		c.Next()
	}
}

func extractBearer(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// PrincipalFromContext returns the caller's user id, or "" for an
// unauthenticated request.
func PrincipalFromContext(c *gin.Context) string {
	v, ok := c.Get(principalContextKey)
	if !ok {
		return ""
	}
	userID, _ := v.(string)
	return userID
}
