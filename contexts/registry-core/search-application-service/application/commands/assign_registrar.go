package commands

import (
	"context"
	"log/slog"
	"strings"

	application "ardhi/contexts/registry-core/search-application-service/application"
	"ardhi/contexts/registry-core/search-application-service/domain/entities"
	domainerrors "ardhi/contexts/registry-core/search-application-service/domain/errors"
	"ardhi/contexts/registry-core/search-application-service/ports"
)

type AssignRegistrarCommand struct {
	Actor         entities.Actor
	ApplicationID string
	RegistrarID   string
}

type AssignRegistrarUseCase struct {
	Repository ports.Repository
	Directory  ports.RegistrarDirectory
	Clock      ports.Clock
	Logger     *slog.Logger
}

func (uc AssignRegistrarUseCase) Execute(ctx context.Context, cmd AssignRegistrarCommand) (entities.Application, error) {
	logger := application.ResolveLogger(uc.Logger)
	if cmd.Actor.Role != entities.RoleRegistrarInCharge {
		return entities.Application{}, domainerrors.ErrActorNotAuthorized
	}

	item, err := uc.Repository.GetApplication(ctx, strings.TrimSpace(cmd.ApplicationID))
	if err != nil {
		return entities.Application{}, err
	}
	// A registrar-in-charge only acts within their own registry.
	if item.Registry != cmd.Actor.Registry {
		return entities.Application{}, domainerrors.ErrActorNotAuthorized
	}

	registrar, found, err := uc.Directory.FindUser(ctx, strings.TrimSpace(cmd.RegistrarID))
	if err != nil {
		return entities.Application{}, err
	}
	if !found {
		return entities.Application{}, domainerrors.ErrRegistrarNotFound
	}
	// Oversight roles are never assignable as workers, even when the record
	// otherwise looks eligible.
	if registrar.Role == entities.RoleRegistrarInCharge {
		return entities.Application{}, domainerrors.ErrActorNotAuthorized
	}
	if registrar.Role != entities.RoleRegistrar || registrar.Registry != item.Registry || !registrar.Active {
		return entities.Application{}, domainerrors.ErrRegistrarNotFound
	}

	// Registrar role and registry are immutable, so eligibility resolved here
	// stays valid; only the status precondition needs the row lock.
	updated, err := uc.Repository.AssignRegistrar(ctx, item.ApplicationID, registrar.UserID, uc.Clock.Now().UTC())
	if err != nil {
		return entities.Application{}, err
	}

	logger.Info("application assigned to registrar",
		"event", "search_application_assigned",
		"module", "registry-core/search-application-service",
		"layer", "application",
		"application_id", updated.ApplicationID,
		"registrar_id", registrar.UserID,
		"registry", updated.Registry,
	)
	return updated, nil
}
