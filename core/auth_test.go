package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type AuthFixture struct {
	*BaseFixture
	userStore UserStore
	auth      *Auth
}

func NewAuthFixture(t *testing.T) *AuthFixture {
	base := NewBaseFixture(t)

	userStore := NewSQLiteUserStore(base.db)
	auth := NewAuth(userStore, secret)

	return &AuthFixture{
		userStore:   userStore,
		auth:        auth,
		BaseFixture: base,
	}
}

var secret = []byte("c2VjcmV0")

var user = User{
	Username: "admin",
	Password: "password",
}

func TestLogin(t *testing.T) {
	t.Run("user does not exist", func(t *testing.T) {
		f := NewAuthFixture(t)
		defer f.tearDown()
		session, err := f.auth.Login(f.ctx, "random", "random")
		require.Nil(t, session)
		require.NotNil(t, err)
		assert.Equal(t, ErrBadCredentials, err)
	})

	t.Run("invalid password", func(t *testing.T) {
		f := NewAuthFixture(t)
		defer f.tearDown()
		seedUsers(f.ctx, f.t, f.userStore, user)

		session, err := f.auth.Login(f.ctx, user.Username, user.Password+"69")
		require.Nil(t, session)
		require.NotNil(t, err)
		assert.Equal(t, ErrBadCredentials, err)
	})

	t.Run("unknown user and wrong password are indistinguishable", func(t *testing.T) {
		f := NewAuthFixture(t)
		defer f.tearDown()
		seedUsers(f.ctx, f.t, f.userStore, user)

		_, unknownErr := f.auth.Login(f.ctx, "random", user.Password)
		_, wrongErr := f.auth.Login(f.ctx, user.Username, "wrong")
		assert.Equal(t, unknownErr, wrongErr)
	})

	t.Run("successful login", func(t *testing.T) {
		f := NewAuthFixture(t)
		defer f.tearDown()
		seedUsers(f.ctx, f.t, f.userStore, user)

		before := time.Now()
		session, err := f.auth.Login(f.ctx, user.Username, user.Password)
		require.Nil(t, err)
		require.NotNil(t, session)
		assert.Equal(t, user.Username, session.Username)
		assert.WithinDuration(t, before.Add(DefaultTokenTTL), session.ExpiresAt, 5*time.Second)
		require.NotEmpty(t, session.Token)

		claims, err := VerifyToken(session.Token, secret)
		require.Nil(t, err)
		assert.Equal(t, user.Username, claims.Username())
	})
}

func TestResolve(t *testing.T) {
	t.Run("absent token", func(t *testing.T) {
		f := NewAuthFixture(t)
		defer f.tearDown()

		identity, err := f.auth.Resolve(f.ctx, "")
		require.Nil(t, err)
		assert.Nil(t, identity)
	})

	t.Run("garbage token", func(t *testing.T) {
		f := NewAuthFixture(t)
		defer f.tearDown()

		identity, err := f.auth.Resolve(f.ctx, "not-a-token")
		require.Nil(t, err)
		assert.Nil(t, identity)
	})

	t.Run("token signed with a different key", func(t *testing.T) {
		f := NewAuthFixture(t)
		defer f.tearDown()
		seedUsers(f.ctx, f.t, f.userStore, user)

		token, _, err := NewToken(user.Username, time.Hour, []byte("other"))
		require.Nil(t, err)

		identity, err := f.auth.Resolve(f.ctx, token)
		require.Nil(t, err)
		assert.Nil(t, identity)
	})

	t.Run("expired token", func(t *testing.T) {
		f := NewAuthFixture(t)
		defer f.tearDown()
		seedUsers(f.ctx, f.t, f.userStore, user)

		token, exp, err := NewToken(user.Username, -time.Hour, secret)
		require.Nil(t, err)
		require.True(t, exp.Before(time.Now()))

		identity, err := f.auth.Resolve(f.ctx, token)
		require.Nil(t, err)
		assert.Nil(t, identity)
	})

	t.Run("valid token", func(t *testing.T) {
		f := NewAuthFixture(t)
		defer f.tearDown()
		seedUsers(f.ctx, f.t, f.userStore, user)

		token, _, err := NewToken(user.Username, time.Hour, secret)
		require.Nil(t, err)

		identity, err := f.auth.Resolve(f.ctx, token)
		require.Nil(t, err)
		require.NotNil(t, identity)
		assert.Equal(t, user.Username, identity.Username)
	})

	t.Run("subject deleted after issuance", func(t *testing.T) {
		f := NewAuthFixture(t)
		defer f.tearDown()
		seedUsers(f.ctx, f.t, f.userStore, user)

		session, err := f.auth.Login(f.ctx, user.Username, user.Password)
		require.Nil(t, err)

		_, err = f.db.ExecContext(f.ctx, "DELETE FROM users WHERE username = ?", user.Username)
		require.Nil(t, err)

		identity, err := f.auth.Resolve(f.ctx, session.Token)
		require.Nil(t, err)
		assert.Nil(t, identity)
	})
}
