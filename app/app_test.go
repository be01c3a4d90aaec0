package kiosk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PatrickAmbrosso/kiosk/core"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type appFixture struct {
	app    *App
	server *httptest.Server
	client *http.Client
	users  core.UserStore
}

// newAppFixture builds a fully wired app on a throwaway database, seeds
// an admin user, and serves it from an httptest server. The client does
// not follow redirects so route policies can be asserted directly.
func newAppFixture(t *testing.T, ctx context.Context, confOpts ...func(*Config)) *appFixture {
	t.Helper()

	config := &Config{
		Port:     8080,
		Hostname: "localhost",
		Mode:     DevMode,
	}
	config.Auth.Secret = testSecret
	config.Auth.TTLMinutes = 30
	config.SQLite.File = filepath.Join(t.TempDir(), "kiosk.db")
	config.SQLite.Migrations = "../migrations"
	config.Templates = "../templates"
	for _, opt := range confOpts {
		opt(config)
	}

	app := New(ctx, config)

	server := httptest.NewServer(app.Handler())
	t.Cleanup(server.Close)

	users := core.NewSQLiteUserStore(app.db.DB)
	require.Nil(t, users.CreateUser(ctx, core.User{Username: "admin", Password: "password"}))

	return &appFixture{
		app:    app,
		server: server,
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		users: users,
	}
}

func (f *appFixture) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	res, err := f.client.Post(f.server.URL+path, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	require.Nil(t, err)
	return res
}

func (f *appFixture) get(t *testing.T, path string, cookie *http.Cookie) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, f.server.URL+path, nil)
	require.Nil(t, err)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	res, err := f.client.Do(req)
	require.Nil(t, err)
	return res
}

func sessionCookie(res *http.Response) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == core.AuthCookieName {
			return c
		}
	}
	return nil
}

func readBody(t *testing.T, res *http.Response) string {
	t.Helper()
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.Nil(t, err)
	return string(body)
}

func TestLoginRoute(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newAppFixture(t, ctx)

	t.Run("valid credentials set the session cookie", func(t *testing.T) {
		res := f.postForm(t, "/admin/login", url.Values{
			"username": {"admin"},
			"password": {"password"},
		})
		defer res.Body.Close()

		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, "/admin", res.Header.Get("Location"))

		cookie := sessionCookie(res)
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, "/", cookie.Path)
		assert.WithinDuration(t, time.Now().Add(30*time.Minute), cookie.Expires, 5*time.Second)

		claims, err := core.VerifyToken(cookie.Value, testSecret)
		require.Nil(t, err)
		assert.Equal(t, "admin", claims.Username())
	})

	t.Run("wrong password fails without a cookie", func(t *testing.T) {
		res := f.postForm(t, "/admin/login", url.Values{
			"username": {"admin"},
			"password": {"wrong"},
		})
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
		assert.Nil(t, sessionCookie(res))
		assert.Contains(t, readBody(t, res), "incorrect username or password")
	})

	t.Run("unknown user fails identically to a wrong password", func(t *testing.T) {
		res := f.postForm(t, "/admin/login", url.Values{
			"username": {"nobody"},
			"password": {"password"},
		})
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
		assert.Nil(t, sessionCookie(res))
		assert.Contains(t, readBody(t, res), "incorrect username or password")
	})

	t.Run("missing fields fail with the generic message", func(t *testing.T) {
		res := f.postForm(t, "/admin/login", url.Values{"username": {"admin"}})
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
		assert.Nil(t, sessionCookie(res))
	})
}

func TestAdminRoutePolicy(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newAppFixture(t, ctx)

	validCookie := func(t *testing.T) *http.Cookie {
		t.Helper()
		res := f.postForm(t, "/admin/login", url.Values{
			"username": {"admin"},
			"password": {"password"},
		})
		res.Body.Close()
		cookie := sessionCookie(res)
		require.NotNil(t, cookie)
		return cookie
	}

	t.Run("dashboard with a valid session", func(t *testing.T) {
		res := f.get(t, "/admin", validCookie(t))
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, readBody(t, res), "signed in as admin")
	})

	t.Run("dashboard without a session redirects to login", func(t *testing.T) {
		res := f.get(t, "/admin", nil)
		defer res.Body.Close()
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, "/admin/login", res.Header.Get("Location"))
	})

	t.Run("tampered token is treated as anonymous", func(t *testing.T) {
		cookie := validCookie(t)
		cookie.Value = cookie.Value + "x"
		res := f.get(t, "/admin", cookie)
		defer res.Body.Close()
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, "/admin/login", res.Header.Get("Location"))
	})

	t.Run("expired token is treated as anonymous", func(t *testing.T) {
		token, _, err := core.NewToken("admin", -time.Minute, testSecret)
		require.Nil(t, err)
		res := f.get(t, "/admin", &http.Cookie{Name: core.AuthCookieName, Value: token})
		defer res.Body.Close()
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, "/admin/login", res.Header.Get("Location"))
	})

	t.Run("token for a deleted user is treated as anonymous", func(t *testing.T) {
		token, _, err := core.NewToken("ghost", time.Minute, testSecret)
		require.Nil(t, err)
		res := f.get(t, "/admin", &http.Cookie{Name: core.AuthCookieName, Value: token})
		defer res.Body.Close()
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, "/admin/login", res.Header.Get("Location"))
	})

	t.Run("login page while signed in redirects to the dashboard", func(t *testing.T) {
		res := f.get(t, "/admin/login", validCookie(t))
		defer res.Body.Close()
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, "/admin", res.Header.Get("Location"))
	})

	t.Run("login page while anonymous renders", func(t *testing.T) {
		res := f.get(t, "/admin/login", nil)
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
	})
}

func TestLogoutRoute(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newAppFixture(t, ctx)

	// logout clears the cookie whether or not a session exists
	res := f.postForm(t, "/admin/logout", url.Values{})
	defer res.Body.Close()

	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/admin/login", res.Header.Get("Location"))

	cookie := sessionCookie(res)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestDisplayChannelOriginPolicy(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newAppFixture(t, ctx, func(c *Config) {
		c.AllowedOrigins = []string{"http://kiosk.local"}
	})

	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"

	t.Run("cross-origin handshake is refused", func(t *testing.T) {
		conn, res, err := websocket.DefaultDialer.Dial(wsURL,
			http.Header{"Origin": {"http://evil.example"}})
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.Nil(t, conn)
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
		assert.Equal(t, 0, f.app.hub.Count())
	})

	t.Run("allowed origin connects", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL,
			http.Header{"Origin": {"http://kiosk.local"}})
		require.Nil(t, err)
		defer conn.Close()
	})

	t.Run("no origin header connects", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.Nil(t, err)
		defer conn.Close()
	})
}

func TestOriginChecker(t *testing.T) {
	request := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	tcs := []struct {
		name    string
		allowed []string
		origin  string
		exp     bool
	}{
		{"empty list admits any origin", nil, "http://evil.example", true},
		{"wildcard admits any origin", []string{"*"}, "http://evil.example", true},
		{"listed origin", []string{"http://kiosk.local"}, "http://kiosk.local", true},
		{"listed origin case-insensitive", []string{"http://kiosk.local"}, "http://KIOSK.local", true},
		{"unlisted origin", []string{"http://kiosk.local"}, "http://evil.example", false},
		{"no origin header", []string{"http://kiosk.local"}, "", true},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.exp, originChecker(tc.allowed)(request(tc.origin)))
		})
	}
}

func TestPublicRoutes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f := newAppFixture(t, ctx)

	nodes := core.NewSQLiteNodeStore(f.app.db.DB)
	id, err := nodes.CreateNode(ctx, "lobby", "welcome")
	require.Nil(t, err)

	t.Run("overview", func(t *testing.T) {
		res := f.get(t, "/", nil)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, readBody(t, res), "lobby")
	})

	t.Run("node content", func(t *testing.T) {
		res := f.get(t, fmt.Sprintf("/node/%d", id), nil)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, readBody(t, res), "welcome")
	})

	t.Run("unknown node", func(t *testing.T) {
		res := f.get(t, "/node/999", nil)
		defer res.Body.Close()
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}
