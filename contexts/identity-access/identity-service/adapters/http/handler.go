package http

import (
	"context"
	"log/slog"
	"time"

	"ardhi/contexts/identity-access/identity-service/application"
	"ardhi/contexts/identity-access/identity-service/domain/entities"
	"ardhi/contexts/identity-access/identity-service/ports"
	transporthttp "ardhi/contexts/identity-access/identity-service/transport/http"
)

// Handler adapts the identity service to transport DTOs. It carries no HTTP
// plumbing of its own; routing and status codes live in the server.
type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h *Handler) Register(ctx context.Context, request transporthttp.RegisterRequest) (transporthttp.RegisterResponse, error) {
	user, err := h.Service.Register(ctx, application.RegisterCommand{
		Username: request.Username,
		Password: request.Password,
		County:   request.County,
		Registry: request.Registry,
		Role:     request.Role,
	})
	if err != nil {
		return transporthttp.RegisterResponse{}, err
	}
	return transporthttp.RegisterResponse{User: mapUser(user)}, nil
}

func (h *Handler) Login(ctx context.Context, request transporthttp.LoginRequest) (transporthttp.LoginResponse, error) {
	result, err := h.Service.Login(ctx, request.Username, request.Password)
	if err != nil {
		return transporthttp.LoginResponse{}, err
	}
	return transporthttp.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
		User:      mapIdentity(result.Identity),
	}, nil
}

// Authenticate resolves a bearer token to the caller's identity. The server
// uses it for every protected route.
func (h *Handler) Authenticate(ctx context.Context, token string) (ports.Identity, error) {
	return h.Service.Authenticate(ctx, token)
}

func (h *Handler) ListUsers(ctx context.Context, actor ports.Identity, roleFilter string) (transporthttp.ListUsersResponse, error) {
	users, err := h.Service.ListUsers(ctx, actor, roleFilter)
	if err != nil {
		return transporthttp.ListUsersResponse{}, err
	}
	items := make([]transporthttp.UserDTO, 0, len(users))
	for _, user := range users {
		items = append(items, mapUser(user))
	}
	return transporthttp.ListUsersResponse{Items: items}, nil
}

func (h *Handler) DeactivateUser(ctx context.Context, actor ports.Identity, userID string) error {
	return h.Service.DeactivateUser(ctx, actor, userID)
}

func mapUser(user entities.User) transporthttp.UserDTO {
	return transporthttp.UserDTO{
		UserID:    user.UserID,
		Username:  user.Username,
		Role:      string(user.Role),
		County:    user.County,
		Registry:  user.Registry,
		Active:    user.Active,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func mapIdentity(identity ports.Identity) transporthttp.IdentityDTO {
	return transporthttp.IdentityDTO{
		UserID:   identity.UserID,
		Username: identity.Username,
		Role:     string(identity.Role),
		County:   identity.County,
		Registry: identity.Registry,
	}
}
