package ports

import (
	"context"
	"time"

	"ardhi/contexts/identity-access/identity-service/domain/entities"
)

// Identity is the resolved caller handed to every downstream operation.
type Identity struct {
	UserID   string
	Username string
	Role     entities.Role
	County   string
	Registry string
}

type UserFilter struct {
	Registry string
	Role     entities.Role
}

type Repository interface {
	CreateUser(ctx context.Context, user entities.User) error
	GetUser(ctx context.Context, userID string) (entities.User, error)
	GetUserByUsername(ctx context.Context, username string) (entities.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]entities.User, error)
	SetUserActive(ctx context.Context, userID string, active bool) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash string, plain string) error
}

type TokenClaims struct {
	UserID   string
	Username string
}

type TokenIssuer interface {
	Issue(user entities.User) (token string, expiresAt time.Time, err error)
	Verify(token string) (TokenClaims, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
