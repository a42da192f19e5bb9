package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AdminAuth struct {
	user     string
	password string
}

func NewAdminAuth(user, password string) *AdminAuth {
	return &AdminAuth{
		user:     user,
		password: password,
	}
}

// BasicAuth guards the admin surface with HTTP basic auth credentials from
// the config. Comparison is constant-time.
func (a *AdminAuth) BasicAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="Admin"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
			return
		}

		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.user)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
		if !userOK || !passOK {
			c.Header("WWW-Authenticate", `Basic realm="Admin"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		c.Next()
	}
}
