package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quizwise-service/internal/config"
	"quizwise-service/internal/identity"
)

func TestListenPortFallsBackToConfig(t *testing.T) {
	path := writeConfig(t, "server:\n  port: \"9000\"\n")
	t.Setenv("PORT", "")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := listenPort("", cfg); got != "9000" {
		t.Fatalf("expected config port, got %s", got)
	}
	if got := listenPort("7000", cfg); got != "7000" {
		t.Fatalf("expected flag to win, got %s", got)
	}

	t.Setenv("PORT", "6000")
	cfg, _ = config.Load(path)
	if got := listenPort("", cfg); got != "6000" {
		t.Fatalf("expected PORT to override config, got %s", got)
	}
}

func TestTokenCommandIssuesVerifiableToken(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: local-secret\n")
	t.Setenv("JWT_SECRET", "")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", path, "token", "--user", "u1", "--name", "Ana"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/progress", nil)
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(out.String()))
	id, err := identity.NewJWTResolver("local-secret").Resolve(req)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id.UserID != "u1" || id.DisplayName != "Ana" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestTokenCommandRequiresSecret(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	t.Setenv("JWT_SECRET", "")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path, "token", "--user", "u1"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error without a signing secret")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
