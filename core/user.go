package core

import (
	"context"
	"errors"
)

// User is the provisioning-time record. The plaintext password never
// leaves the store boundary: it is hashed on create and compared with
// ComparePassword.
type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Identity is a user record without its secrets. It is what the auth
// guard resolves and what handlers receive.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

var (
	ErrConflictedUser = errors.New("user already exists")
)

type UserStore interface {
	// CreateUser provisions a new user with a hashed password. It is an
	// out-of-band operation, never part of the request flow.
	CreateUser(ctx context.Context, user User) error

	// FindByUsername returns nil, nil when no such user exists.
	FindByUsername(ctx context.Context, username string) (*Identity, error)

	// ComparePassword reports whether password matches the stored hash
	// for username. A mismatch or an unknown username is false, nil;
	// errors are reserved for store faults.
	ComparePassword(ctx context.Context, username, password string) (bool, error)
}
