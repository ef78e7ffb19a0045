package auth

import (
	"net/http"

	"chatrelay/infrastructure"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Middleware rejects requests without a valid bearer token and stores the
// caller's identity on the context.
func Middleware(tokens *infrastructure.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := tokens.Verify(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized - " + infrastructure.PublicMessage(err)})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

func IdentityFrom(c *gin.Context) (*infrastructure.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*infrastructure.Identity)
	return identity, ok
}

// MustIdentity panics on routes not behind Middleware.
func MustIdentity(c *gin.Context) *infrastructure.Identity {
	identity, ok := IdentityFrom(c)
	if !ok {
		panic("auth: no identity on request context")
	}
	return identity
}
