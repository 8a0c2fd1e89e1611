package middleware

import (
	"github.com/gin-gonic/gin"
)

// IdentityKey is the gin context key holding the authenticated identity.
const IdentityKey = "identity"

// IdentityVerifier turns an Authorization header into an identity.
type IdentityVerifier interface {
	Identity(header string) (string, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller's identity on the context.
func Authenticate(verifier IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := verifier.Identity(c.GetHeader("Authorization"))
		if err != nil {
			HandleError(c, err)
			return
		}
		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// GetIdentity returns the identity set by Authenticate, or "".
func GetIdentity(c *gin.Context) string {
	return c.GetString(IdentityKey)
}
