package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	contextUserID   = "auth_user_id"
	contextUserName = "auth_user_name"
)

// AuthConfig holds token verification settings
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// userClaims are the token claims we issue and verify
type userClaims struct {
	UserName string `json:"user_name"`
	jwt.RegisteredClaims
}

// IssueToken mints a signed bearer token for a user. Exposed for tooling and
// tests; there is no login endpoint here.
func IssueToken(cfg AuthConfig, userID, userName string) (string, error) {
	now := time.Now()
	claims := userClaims{
		UserName: userName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// authMiddleware verifies the Authorization bearer token and puts the acting
// user on the gin context
func authMiddleware(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing bearer token",
			})
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")

		var claims userClaims
		token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "invalid token",
			})
			return
		}

		if claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "token has no subject",
			})
			return
		}

		c.Set(contextUserID, claims.Subject)
		c.Set(contextUserName, claims.UserName)
		c.Next()
	}
}

// actingUser returns the authenticated user's ID and display name
func actingUser(c *gin.Context) (string, string) {
	return c.GetString(contextUserID), c.GetString(contextUserName)
}
