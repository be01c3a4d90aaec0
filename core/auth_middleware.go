package core

import (
	"context"
	"net/http"
	"time"

	"github.com/PatrickAmbrosso/kiosk/pkg/router"
)

const (
	key            identityKey = "identity"
	AuthCookieName             = "access_token"
)

type identityKey = string

func contextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, key, identity)
}

func identityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(key).(Identity)
	return identity, ok
}

// IdentityFromRequest extracts the resolved identity from the request
// context. It must be called in handlers guarded by RequireAuth; it
// panics if no identity is present.
func IdentityFromRequest(r *http.Request) Identity {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		panic("identity not found in request context: call this function in handlers guarded by RequireAuth")
	}
	return identity
}

// SessionCookie binds a session token to the transport. The cookie is
// HTTP-only and lives exactly as long as the token.
func SessionCookie(session *Session) *http.Cookie {
	return &http.Cookie{
		Name:     AuthCookieName,
		Value:    session.Token,
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Path:     "/",
	}
}

// ExpiredSessionCookie instructs the client to drop the session cookie
// immediately.
func ExpiredSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Path:     "/",
	}
}

// ResolveIdentity resolves the session cookie to an identity and
// attaches it to the request context. It never rejects a request:
// anonymous requests simply carry no identity, and downstream policy
// middleware decides what that implies. Only a credential store fault
// surfaces as an error.
func ResolveIdentity(a *Auth) router.Middleware {
	return func(next http.Handler) router.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			ctx := r.Context()

			cookie, err := r.Cookie(AuthCookieName)
			if err != nil || cookie.Valid() != nil {
				next.ServeHTTP(w, r)
				return nil
			}

			identity, err := a.Resolve(ctx, cookie.Value)
			if err != nil {
				return err
			}

			if identity == nil {
				next.ServeHTTP(w, r)
				return nil
			}

			next.ServeHTTP(w, r.WithContext(contextWithIdentity(ctx, *identity)))
			return nil
		}
	}
}

// RequireAuth redirects anonymous requests to the login page. It must
// run below ResolveIdentity.
func RequireAuth(loginPath string) router.Middleware {
	return func(next http.Handler) router.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			if _, ok := identityFromContext(r.Context()); !ok {
				return router.SeeOther(loginPath)
			}
			next.ServeHTTP(w, r)
			return nil
		}
	}
}

// RedirectAuthenticated bounces already-authenticated requests to the
// given path. Used on the login page.
func RedirectAuthenticated(to string) router.Middleware {
	return func(next http.Handler) router.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			if _, ok := identityFromContext(r.Context()); ok {
				return router.SeeOther(to)
			}
			next.ServeHTTP(w, r)
			return nil
		}
	}
}
