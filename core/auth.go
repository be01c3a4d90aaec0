package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Session is the issued token plus its metadata. It has no server-side
// representation: the encoded token held by the client is the only
// session state, and the server keeps just the signing key needed to
// validate it. Logout therefore only removes the client's copy; an
// already-issued token stays valid until its expiry elapses.
type Session struct {
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

var (
	ErrBadCredentials = errors.New("incorrect username or password")
)

const DefaultTokenTTL = 30 * time.Minute

// Auth owns the signing key, the token lifetime and the credential
// store. It is constructed once at startup and is safe for concurrent
// use: all fields are read-only after construction.
type Auth struct {
	users    UserStore
	secret   []byte
	tokenTTL time.Duration
}

type AuthOption func(*Auth)

func WithTokenTTL(ttl time.Duration) AuthOption {
	return func(a *Auth) {
		a.tokenTTL = ttl
	}
}

func NewAuth(users UserStore, secret []byte, opts ...AuthOption) *Auth {
	auth := &Auth{
		users:    users,
		secret:   secret,
		tokenTTL: DefaultTokenTTL,
	}
	for _, opt := range opts {
		opt(auth)
	}
	return auth
}

// Login runs the credential check and, on success, mints a session
// token. An unknown username and a wrong password both return
// ErrBadCredentials so the caller cannot tell them apart.
func (a *Auth) Login(ctx context.Context, username, password string) (*Session, error) {
	identity, err := a.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}
	if identity == nil {
		return nil, ErrBadCredentials
	}

	ok, err := a.users.ComparePassword(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("comparing password: %w", err)
	}
	if !ok {
		return nil, ErrBadCredentials
	}

	token, exp, err := NewToken(identity.Username, a.tokenTTL, a.secret)
	if err != nil {
		return nil, fmt.Errorf("creating token: %w", err)
	}

	return &Session{
		Username:  identity.Username,
		Token:     token,
		ExpiresAt: exp,
	}, nil
}

// Resolve is the trust boundary: it turns a carried token into an
// identity or anonymous (nil), failing closed. A missing, malformed,
// forged or expired token and a subject that no longer exists all
// resolve to anonymous; an error is returned only when the credential
// store itself fails and no auth decision can be made safely.
func (a *Auth) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, nil
	}

	claims, err := VerifyToken(token, a.secret)
	if err != nil {
		// invalid, expired and garbage tokens are indistinguishable
		// from here on out
		return nil, nil
	}

	identity, err := a.users.FindByUsername(ctx, claims.Username())
	if err != nil {
		return nil, fmt.Errorf("finding user: %w", err)
	}

	return identity, nil
}
