package session_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/KaramelBytes/docbox-cli/internal/session"
)

func TestLoginSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	s, err := session.Open(session.NewFileStorage(path))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Authenticated() {
		t.Fatalf("fresh store should be logged out")
	}
	if err := s.Login("t"); err != nil {
		t.Fatalf("login: %v", err)
	}

	reloaded, err := session.Open(session.NewFileStorage(path))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reloaded.Token() != "t" {
		t.Fatalf("token after reload = %q", reloaded.Token())
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("session file perm = %v", info.Mode().Perm())
	}
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), "token: t") {
		t.Fatalf("expected fixed token key, got %q", b)
	}
}

func TestLogoutSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	s, _ := session.Open(session.NewFileStorage(path))
	_ = s.Login("t")
	if err := s.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if s.Token() != "" {
		t.Fatalf("in-memory token not cleared")
	}
	reloaded, err := session.Open(session.NewFileStorage(path))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reloaded.Authenticated() {
		t.Fatalf("expected no token after logout + reload, got %q", reloaded.Token())
	}
	// logging out twice is fine
	if err := reloaded.Logout(); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestSubscribersSeeMutations(t *testing.T) {
	s, _ := session.Open(&session.MemoryStorage{})
	var seen []string
	s.Subscribe(func(tok string) { seen = append(seen, tok) })
	_ = s.Login("a")
	_ = s.Logout()
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "" {
		t.Fatalf("seen = %q", seen)
	}
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	s, _ := session.Open(&session.MemoryStorage{})
	if err := s.Login(""); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenNilStorage(t *testing.T) {
	if _, err := session.Open(nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestClaims(t *testing.T) {
	s, _ := session.Open(&session.MemoryStorage{})
	if _, err := s.Claims(); err != session.ErrNoToken {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}

	exp := time.Now().Add(-time.Minute).Truncate(time.Second)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("anything"))
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Login(tok)
	c, err := s.Claims()
	if err != nil {
		t.Fatalf("claims: %v", err)
	}
	if c.Subject != "7" || !c.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected claims: %+v", c)
	}
	if !c.Expired(time.Now()) {
		t.Fatalf("expected expired")
	}

	_ = s.Login("opaque")
	if _, err := s.Claims(); err == nil {
		t.Fatalf("expected decode error for non-JWT token")
	}
}
