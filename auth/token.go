package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/rs/zerolog/log"
)

// ErrBadCredentials is returned by SignIn when the backend rejects the
// email/password pair.
var ErrBadCredentials = errors.New("auth: invalid credentials")

// TokenProvider implements Provider against the backend's /login
// endpoint, persisting the minted JWT on disk between runs. A persisted
// token is never trusted as-is: its claims are validated on load and an
// expired or malformed token yields a signed-out state, not a stale
// identity.
type TokenProvider struct {
	base string
	path string
	http *http.Client

	mu      sync.Mutex
	current *Identity
	loaded  bool
	subs    map[int]func(*Identity)
	nextSub int
}

func NewTokenProvider(backendURL, tokenPath string) *TokenProvider {
	return &TokenProvider{
		base: strings.TrimRight(backendURL, "/"),
		path: tokenPath,
		http: &http.Client{Timeout: 15 * time.Second},
		subs: make(map[int]func(*Identity)),
	}
}

// Load checks the persisted token and notifies subscribers with the
// outcome. Call after the gate has subscribed so the Unknown state is
// resolved exactly once.
func (p *TokenProvider) Load() {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		p.setIdentity(nil)
		return
	}
	id, err := identityFromToken(strings.TrimSpace(string(raw)))
	if err != nil {
		log.Warn().Err(err).Msg("persisted session token rejected")
		os.Remove(p.path)
		p.setIdentity(nil)
		return
	}
	p.setIdentity(id)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	Error string `json:"error"`
}

func (p *TokenProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", p.base+"/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var lr loginResponse
	if err := json.Unmarshal(respBody, &lr); err != nil {
		return nil, fmt.Errorf("login response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrBadCredentials
	}
	if resp.StatusCode != http.StatusOK || lr.Token == "" {
		msg := lr.Error
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("login failed: %s", msg)
	}

	id, err := identityFromToken(lr.Token)
	if err != nil {
		return nil, fmt.Errorf("login token: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(p.path, []byte(lr.Token), 0o600); err != nil {
		return nil, err
	}

	p.setIdentity(id)
	return id, nil
}

func (p *TokenProvider) SignOut(_ context.Context) error {
	err := os.Remove(p.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	p.setIdentity(nil)
	return nil
}

// Subscribe registers fn and immediately delivers the current identity
// snapshot so late subscribers do not miss the resolved state.
func (p *TokenProvider) Subscribe(fn func(*Identity)) func() {
	p.mu.Lock()
	idx := p.nextSub
	p.nextSub++
	p.subs[idx] = fn
	current := p.current
	resolved := p.resolvedLocked()
	p.mu.Unlock()

	if resolved {
		fn(current)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, idx)
			p.mu.Unlock()
		})
	}
}

// resolvedLocked reports whether Load or SignIn has run at least once.
func (p *TokenProvider) resolvedLocked() bool {
	return p.loaded
}

func (p *TokenProvider) setIdentity(id *Identity) {
	p.mu.Lock()
	p.current = id
	p.loaded = true
	fns := make([]func(*Identity), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}

// identityFromToken extracts and validates the identity claims. The
// signature belongs to the backend; the client checks the claims it is
// about to act on: subject, email and expiry.
func identityFromToken(raw string) (*Identity, error) {
	parser := jwt.Parser{}
	token, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, errors.New("missing exp claim")
	}
	if time.Now().After(time.Unix(int64(exp), 0)) {
		return nil, errors.New("token expired")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.New("missing sub claim")
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return nil, errors.New("missing email claim")
	}
	name, _ := claims["name"].(string)

	return &Identity{UID: sub, Email: email, Name: name}, nil
}
