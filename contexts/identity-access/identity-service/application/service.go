package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ardhi/contexts/identity-access/identity-service/domain/entities"
	domainerrors "ardhi/contexts/identity-access/identity-service/domain/errors"
	"ardhi/contexts/identity-access/identity-service/ports"
)

const minPasswordLength = 8

type RegisterCommand struct {
	Username string
	Password string
	County   string
	Registry string
	Role     string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Identity  ports.Identity
}

type Service struct {
	Repo   ports.Repository
	Hasher ports.PasswordHasher
	Tokens ports.TokenIssuer
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (s Service) Register(ctx context.Context, cmd RegisterCommand) (entities.User, error) {
	logger := ResolveLogger(s.Logger)
	if len(cmd.Password) < minPasswordLength {
		return entities.User{}, domainerrors.ErrWeakPassword
	}
	role := entities.RoleApplicant
	if strings.TrimSpace(cmd.Role) != "" {
		parsed, ok := entities.ParseRole(cmd.Role)
		if !ok {
			return entities.User{}, domainerrors.ErrInvalidUserInput
		}
		role = parsed
	}

	username := strings.TrimSpace(cmd.Username)
	if _, err := s.Repo.GetUserByUsername(ctx, username); err == nil {
		return entities.User{}, domainerrors.ErrUsernameTaken
	}

	hash, err := s.Hasher.Hash(cmd.Password)
	if err != nil {
		return entities.User{}, err
	}
	userID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.User{}, err
	}

	user := entities.User{
		UserID:       userID,
		Username:     username,
		PasswordHash: hash,
		County:       strings.TrimSpace(cmd.County),
		Registry:     strings.TrimSpace(cmd.Registry),
		Role:         role,
		Active:       true,
		CreatedAt:    s.now(),
	}
	if !user.ValidateCreate() {
		return entities.User{}, domainerrors.ErrInvalidUserInput
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return entities.User{}, err
	}

	logger.Info("user registered",
		"event", "identity_user_registered",
		"module", "identity-access/identity-service",
		"layer", "application",
		"user_id", user.UserID,
		"role", string(user.Role),
		"registry", user.Registry,
	)
	return user, nil
}

func (s Service) Login(ctx context.Context, username string, password string) (LoginResult, error) {
	logger := ResolveLogger(s.Logger)
	user, err := s.Repo.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		// Do not distinguish unknown users from wrong passwords.
		return LoginResult{}, domainerrors.ErrInvalidCredentials
	}
	if err := s.Hasher.Compare(user.PasswordHash, password); err != nil {
		return LoginResult{}, domainerrors.ErrInvalidCredentials
	}
	if !user.Active {
		return LoginResult{}, domainerrors.ErrUserInactive
	}

	token, expiresAt, err := s.Tokens.Issue(user)
	if err != nil {
		return LoginResult{}, err
	}

	logger.Info("user logged in",
		"event", "identity_user_logged_in",
		"module", "identity-access/identity-service",
		"layer", "application",
		"user_id", user.UserID,
	)
	return LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Identity:  identityOf(user),
	}, nil
}

// Authenticate resolves a bearer token to a verified identity. The user
// record is re-read so revoked or deactivated accounts fail immediately
// rather than at token expiry.
func (s Service) Authenticate(ctx context.Context, token string) (ports.Identity, error) {
	claims, err := s.Tokens.Verify(strings.TrimSpace(token))
	if err != nil {
		return ports.Identity{}, domainerrors.ErrInvalidToken
	}
	user, err := s.Repo.GetUser(ctx, claims.UserID)
	if err != nil {
		return ports.Identity{}, domainerrors.ErrInvalidToken
	}
	if !user.Active {
		return ports.Identity{}, domainerrors.ErrUserInactive
	}
	return identityOf(user), nil
}

// ListUsers is scoped to registrars-in-charge, who need the registrar roster
// of their own registry to make assignments.
func (s Service) ListUsers(ctx context.Context, actor ports.Identity, roleFilter string) ([]entities.User, error) {
	if actor.Role != entities.RoleRegistrarInCharge {
		return nil, domainerrors.ErrActorNotAuthorized
	}
	filter := ports.UserFilter{Registry: actor.Registry}
	if strings.TrimSpace(roleFilter) != "" {
		role, ok := entities.ParseRole(roleFilter)
		if !ok {
			return []entities.User{}, nil
		}
		filter.Role = role
	}
	return s.Repo.ListUsers(ctx, filter)
}

// DeactivateUser disables an account instead of deleting it. Deletion would
// either orphan or cascade away the user's applications; neither is an
// acceptable registry outcome, so accounts are only ever switched off.
func (s Service) DeactivateUser(ctx context.Context, actor ports.Identity, userID string) error {
	logger := ResolveLogger(s.Logger)
	if actor.Role != entities.RoleRegistrarInCharge {
		return domainerrors.ErrActorNotAuthorized
	}
	user, err := s.Repo.GetUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		return err
	}
	if user.Registry != actor.Registry {
		return domainerrors.ErrUserNotFound
	}
	if err := s.Repo.SetUserActive(ctx, user.UserID, false); err != nil {
		return err
	}

	logger.Info("user deactivated",
		"event", "identity_user_deactivated",
		"module", "identity-access/identity-service",
		"layer", "application",
		"user_id", user.UserID,
		"actor_id", actor.UserID,
	)
	return nil
}

func (s Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func identityOf(user entities.User) ports.Identity {
	return ports.Identity{
		UserID:   user.UserID,
		Username: user.Username,
		Role:     user.Role,
		County:   user.County,
		Registry: user.Registry,
	}
}
