package server

import (
	"fmt"
	"strings"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/bistro/internal/config"
	obscontext "github.com/smallbiznis/bistro/internal/observability/context"
)

const contextUserIDKey = "user_id"

// identityResolver reads the caller identity supplied by the fronting
// identity provider: a signed bearer token or a trusted proxy header.
type identityResolver struct {
	secret    []byte
	header    string
	devUser   string
	allowDev  bool
	allowBody bool
}

func newIdentityResolver(cfg config.Config) *identityResolver {
	return &identityResolver{
		secret:    []byte(cfg.Auth.JWTSecret),
		header:    cfg.Auth.UserHeader,
		devUser:   cfg.Auth.DevUser,
		allowDev:  !cfg.Auth.Required && cfg.IsDevelopment() && cfg.Auth.DevUser != "",
		allowBody: !cfg.Auth.Required,
	}
}

// resolve returns the authenticated user id, or "" when the request carries
// no identity. A token that is present but invalid is an error.
func (r *identityResolver) resolve(c *gin.Context) (string, error) {
	if raw := strings.TrimSpace(c.GetHeader("Authorization")); raw != "" {
		token, ok := bearerToken(raw)
		if !ok {
			return "", ErrUnauthorized
		}
		return r.subjectFromToken(token)
	}
	if r.header != "" {
		if user := strings.TrimSpace(c.GetHeader(r.header)); user != "" {
			return user, nil
		}
	}
	return "", nil
}

func (r *identityResolver) subjectFromToken(raw string) (string, error) {
	if len(r.secret) == 0 {
		return "", ErrUnauthorized
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil {
		return "", ErrUnauthorized
	}

	for _, key := range []string{"sub", "name", "email"} {
		if value, ok := claims[key].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), nil
		}
	}
	return "", ErrUnauthorized
}

// fallback picks the identity for a request without an authenticated user:
// the body-supplied id when allowed, then the development user.
func (r *identityResolver) fallback(bodyUserID string) string {
	if r.allowBody {
		if user := strings.TrimSpace(bodyUserID); user != "" {
			return user
		}
	}
	if r.allowDev {
		return r.devUser
	}
	return ""
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// Identity stores the authenticated user id on the gin and request contexts.
func (s *Server) Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := s.identity.resolve(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if userID != "" {
			c.Set(contextUserIDKey, userID)
			c.Request = c.Request.WithContext(obscontext.WithUserID(c.Request.Context(), userID))
		}
		c.Next()
	}
}

// callerID is the authenticated user, else the fallback for bodyUserID.
func (s *Server) callerID(c *gin.Context, bodyUserID string) string {
	if userID := strings.TrimSpace(c.GetString(contextUserIDKey)); userID != "" {
		return userID
	}
	return s.identity.fallback(bodyUserID)
}
