package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
)

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "uid-1",
		"email": "user@example.com",
		"name":  "Test User",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func TestIdentityFromToken(t *testing.T) {
	id, err := identityFromToken(mintToken(t, validClaims()))
	if err != nil {
		t.Fatalf("identityFromToken: %v", err)
	}
	if id.UID != "uid-1" || id.Email != "user@example.com" || id.Name != "Test User" {
		t.Errorf("identity = %+v", id)
	}
}

func TestIdentityFromTokenRejects(t *testing.T) {
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()
	noSub := validClaims()
	delete(noSub, "sub")
	noEmail := validClaims()
	delete(noEmail, "email")
	noExp := validClaims()
	delete(noExp, "exp")

	tests := []struct {
		name  string
		token string
	}{
		{"expired", mintToken(t, expired)},
		{"missing sub", mintToken(t, noSub)},
		{"missing email", mintToken(t, noEmail)},
		{"missing exp", mintToken(t, noExp)},
		{"garbage", "not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := identityFromToken(tt.token); err == nil {
				t.Error("token accepted")
			}
		})
	}
}

func TestTokenProviderLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte(mintToken(t, validClaims())), 0o600); err != nil {
		t.Fatal(err)
	}

	p := NewTokenProvider("http://backend.invalid", path)
	var got *Identity
	delivered := false
	p.Subscribe(func(id *Identity) {
		got = id
		delivered = true
	})

	p.Load()
	if !delivered {
		t.Fatal("subscriber not notified")
	}
	if got == nil || got.UID != "uid-1" {
		t.Fatalf("identity = %+v", got)
	}
}

func TestTokenProviderLoadExpired(t *testing.T) {
	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Minute).Unix()
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte(mintToken(t, claims)), 0o600); err != nil {
		t.Fatal(err)
	}

	p := NewTokenProvider("http://backend.invalid", path)
	var got *Identity = &Identity{UID: "sentinel"}
	p.Subscribe(func(id *Identity) { got = id })

	p.Load()
	if got != nil {
		t.Fatalf("expired token produced identity %+v", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("rejected token file not removed")
	}
}

func TestTokenProviderLoadMissingFile(t *testing.T) {
	p := NewTokenProvider("http://backend.invalid", filepath.Join(t.TempDir(), "token"))
	notified := false
	var got *Identity
	p.Subscribe(func(id *Identity) {
		notified = true
		got = id
	})
	p.Load()
	if !notified || got != nil {
		t.Fatalf("notified=%v identity=%+v, want signed-out notification", notified, got)
	}
}

func TestTokenProviderSignIn(t *testing.T) {
	token := mintToken(t, validClaims())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req loginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"token": token})
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "state", "token")
	p := NewTokenProvider(srv.URL, path)

	if _, err := p.SignIn(context.Background(), "user@example.com", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("bad password: err = %v, want ErrBadCredentials", err)
	}

	id, err := p.SignIn(context.Background(), "user@example.com", "secret")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if id.Email != "user@example.com" {
		t.Errorf("identity = %+v", id)
	}

	persisted, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("token not persisted: %v", err)
	}
	if string(persisted) != token {
		t.Error("persisted token differs from minted token")
	}

	// A later Subscribe gets the resolved identity immediately.
	var snap *Identity
	p.Subscribe(func(id *Identity) { snap = id })
	if snap == nil || snap.UID != "uid-1" {
		t.Errorf("late subscriber snapshot = %+v", snap)
	}
}

func TestTokenProviderSignOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte(mintToken(t, validClaims())), 0o600); err != nil {
		t.Fatal(err)
	}
	p := NewTokenProvider("http://backend.invalid", path)
	p.Load()

	var got *Identity = &Identity{UID: "sentinel"}
	p.Subscribe(func(id *Identity) { got = id })

	if err := p.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if got != nil {
		t.Fatalf("identity after sign-out = %+v", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("token file survived sign-out")
	}
	// Signing out twice is fine.
	if err := p.SignOut(context.Background()); err != nil {
		t.Fatalf("second SignOut: %v", err)
	}
}
