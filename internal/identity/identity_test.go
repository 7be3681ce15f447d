package identity

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quizwise-service/internal/domain"
)

func TestResolveAnonymousWithoutToken(t *testing.T) {
	resolver := NewJWTResolver("secret")
	id, err := resolver.Resolve(httptest.NewRequest(http.MethodGet, "/api/progress", nil))
	if err != nil || !id.Anonymous() {
		t.Fatalf("expected anonymous identity, got %+v err=%v", id, err)
	}
}

func TestResolveIssuedToken(t *testing.T) {
	resolver := NewJWTResolver("secret")
	token, err := resolver.Issue(domain.Identity{UserID: "u1", DisplayName: "Ana", Email: "ana@example.com"}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/progress", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	id, err := resolver.Resolve(req)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id.UserID != "u1" || id.DisplayName != "Ana" || id.Email != "ana@example.com" {
		t.Fatalf("unexpected identity %+v", id)
	}

	ws := httptest.NewRequest(http.MethodGet, "/ws?quizId=q1&token="+token, nil)
	if id, _ := resolver.Resolve(ws); id.UserID != "u1" {
		t.Fatalf("expected query token to resolve, got %+v", id)
	}
}

func TestResolveRejectsBadTokens(t *testing.T) {
	issuer := NewJWTResolver("other-secret")
	foreign, _ := issuer.Issue(domain.Identity{UserID: "u1"}, time.Hour)
	expired, _ := NewJWTResolver("secret").Issue(domain.Identity{UserID: "u1"}, -time.Hour)

	resolver := NewJWTResolver("secret")
	for _, token := range []string{foreign, expired, "garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		if _, err := resolver.Resolve(req); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("expected invalid token error, got %v", err)
		}
	}
}

func TestMiddlewareStoresIdentity(t *testing.T) {
	resolver := NewJWTResolver("secret")
	token, _ := resolver.Issue(domain.Identity{UserID: "u1"}, time.Hour)

	var seen domain.Identity
	handler := Middleware(resolver, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen.UserID != "u1" {
		t.Fatalf("expected identity in context, got %+v", seen)
	}

	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	bad.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, bad)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
