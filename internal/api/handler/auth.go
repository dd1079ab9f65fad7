package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	jwt "github.com/golang-jwt/jwt/v5"
)

const (
	adminRole       = "admin"
	adminIssuer     = "ouvidoria-gate"
	adminSubjectKey = "admin_subject"
)

// AdminClaims is the token payload the access gate issues to operators.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateAdminToken signs an HS256 admin token for subject, valid for ttl.
func GenerateAdminToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("admin token secret is empty")
	}
	now := time.Now()
	claims := AdminClaims{
		Role: adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    adminIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseAdminToken verifies signature, expiry and role of tokenString.
func ParseAdminToken(secret []byte, tokenString string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.Role != adminRole {
		return nil, fmt.Errorf("role %q is not allowed", claims.Role)
	}
	return claims, nil
}

// bearerToken reads the token from the Authorization header, falling back to
// the access_token query parameter since browsers cannot set headers on a
// websocket handshake.
func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return c.Query("access_token")
}

// AdminAuth rejects requests without a valid admin token. With no secret
// configured every admin request is rejected.
func (h *Handler) AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" || len(h.AdminSecret) == 0 {
			h.abortWithCode(c, http.StatusUnauthorized, codeUnauthorized)
			return
		}

		claims, err := ParseAdminToken(h.AdminSecret, tokenString)
		if err != nil {
			h.Logger.Warn("admin token rejected", "error", err)
			h.abortWithCode(c, http.StatusUnauthorized, codeUnauthorized)
			return
		}

		c.Set(adminSubjectKey, claims.Subject)
		c.Next()
	}
}
