package middlewares

import (
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/samborkent/uuidv7"
	"milk2meat/internal/config"
	"milk2meat/internal/constants"
	"milk2meat/internal/session"
	"net/http"
	"strings"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const bearerPrefix = "Bearer "

// AuthHandler rejects requests without a valid, unrevoked bearer token. On success the
// user id and the claims are stored in the gin context. If authRoles are given the
// token must carry at least one of them.
func AuthHandler(key string, store session.TokenStore, authRoles ...string) gin.HandlerFunc {
	if store == nil {
		store = session.NullTokenStore{}
	}

	return func(c *gin.Context) {
		tokenString, ok := BearerToken(c)
		if !ok {
			if len(c.Request.Header.Get("Authorization")) == 0 {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Your request is not authorized."})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Your request is not authorized. Are you missing the prefix 'Bearer'?"})
			}
			return
		}

		claims, err := ValidateClaims(tokenString, key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid authorization token"})
			return
		}

		revoked, err := store.IsRevoked(c.Request.Context(), claims.Id)
		if err != nil {
			// fail closed: a token that cannot be checked is not accepted
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": "Token revocation status unavailable"})
			return
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization token has been revoked"})
			return
		}

		if len(authRoles) > 0 && !containsAny(claims.Roles, authRoles) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Your request is not authorized."})
			return
		}

		c.Set(constants.ContextUserId, claims.UserId)
		c.Set(constants.ContextTokenClaims, claims)

		c.Next()
	}
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(c *gin.Context) (string, bool) {
	header := c.Request.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	return token, len(token) > 0
}

// CurrentUserId returns the id stored by AuthHandler.
func CurrentUserId(c *gin.Context) (uint, bool) {
	v, ok := c.Get(constants.ContextUserId)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok && id > 0
}

func CurrentClaims(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(constants.ContextTokenClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

func containsAny(slice []string, items []string) bool {
	set := make(map[string]struct{}, len(slice))
	for _, s := range slice {
		set[s] = struct{}{}
	}

	for _, item := range items {
		if _, ok := set[item]; ok {
			return true
		}
	}
	return false
}

// Claims carries the user and a unique token id (jti) used for revocation.
type Claims struct {
	UserId uint     `json:"user_id"`
	Email  string   `json:"email"`
	Roles  []string `json:"roles"`
	jwt.StandardClaims
}

// TokenIssuer signs HS256 tokens.
type TokenIssuer struct {
	Key    []byte
	Issuer string
	TTL    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(c *config.Configuration) *TokenIssuer {
	return &TokenIssuer{
		Key:    []byte(c.Auth.SigningKey),
		Issuer: c.Auth.Issuer,
		TTL:    c.Auth.TokenTTL.Duration,
	}
}

func (t *TokenIssuer) currentTime() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

// GenerateToken issues a token for the user with a fresh token id.
func (t *TokenIssuer) GenerateToken(userId uint, email string, roles []string) (string, time.Time, error) {
	now := t.currentTime()
	expiresAt := now.Add(t.TTL)

	claims := Claims{
		userId,
		email,
		roles,
		jwt.StandardClaims{
			Id:        uuidv7.New().String(),
			Subject:   fmt.Sprint(userId),
			ExpiresAt: expiresAt.Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    t.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(t.Key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return tokenString, expiresAt, nil
}

func ValidateToken(tokenString string, key string) (*jwt.Token, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(key), nil
	})

	return token, err
}

// ValidateClaims validates tokenString and returns its claims.
func ValidateClaims(tokenString string, key string) (*Claims, error) {
	token, err := ValidateToken(tokenString, key)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// RolesFor maps a user to the roles put into the token.
func RolesFor(isSuperuser bool) []string {
	if isSuperuser {
		return []string{RoleAdmin, RoleUser}
	}
	return []string{RoleUser}
}
