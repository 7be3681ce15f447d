// Package identity resolves the caller of a request from a signed bearer token.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"quizwise-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned when a token is present but cannot be trusted.
var ErrInvalidToken = errors.New("invalid or expired token")

// Resolver reports who is calling. Requests without credentials are anonymous.
type Resolver interface {
	Resolve(r *http.Request) (domain.Identity, error)
}

// Claims are the fields issued by the identity provider.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTResolver validates HS256 tokens; the subject is the stable user id.
type JWTResolver struct {
	secret []byte
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{secret: []byte(secret)}
}

// Resolve reads the Authorization header, or the token query parameter used
// by WebSocket clients that cannot set headers.
func (j *JWTResolver) Resolve(r *http.Request) (domain.Identity, error) {
	token := bearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return domain.Identity{}, nil
	}
	if len(j.secret) == 0 {
		return domain.Identity{}, fmt.Errorf("%w: no signing secret configured", ErrInvalidToken)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return domain.Identity{
		UserID:      claims.Subject,
		DisplayName: claims.Name,
		Email:       claims.Email,
	}, nil
}

// Issue signs a token for id. The token subcommand uses it for local clients.
func (j *JWTResolver) Issue(id domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name:  id.DisplayName,
		Email: id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
}

// Anonymous resolves every request as anonymous.
type Anonymous struct{}

func (Anonymous) Resolve(*http.Request) (domain.Identity, error) {
	return domain.Identity{}, nil
}

type contextKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored by WithIdentity, or anonymous.
func FromContext(ctx context.Context) domain.Identity {
	if id, ok := ctx.Value(contextKey{}).(domain.Identity); ok {
		return id
	}
	return domain.Identity{}
}

// Middleware resolves the caller once per request. Invalid tokens are rejected.
func Middleware(resolver Resolver, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := resolver.Resolve(r)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
