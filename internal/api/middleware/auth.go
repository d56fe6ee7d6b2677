package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jmcallister/golfpool/pkg/utils"
)

// TokenTTL is how long a pool session token stays valid.
const TokenTTL = 24 * time.Hour

// IssueToken creates a session token after a successful password check.
// The whole pool shares one password, so the token carries no identity
// beyond "knows the password".
func IssueToken(secret string) (string, error) {
	claims := jwt.MapClaims{
		"pool": true,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(TokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// AuthRequired guards the mutating endpoints (manual refresh, entry
// import) behind the pool session token.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			utils.SendUnauthorized(c, "missing bearer token")
			c.Abort()
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			utils.SendUnauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}

		c.Next()
	}
}
