package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	application "ardhi/contexts/registry-core/search-application-service/application"
	"ardhi/contexts/registry-core/search-application-service/domain/entities"
	domainerrors "ardhi/contexts/registry-core/search-application-service/domain/errors"
	"ardhi/contexts/registry-core/search-application-service/ports"
)

type CreateApplicationCommand struct {
	Actor        entities.Actor
	ParcelNumber string
	Purpose      string
	County       string
	Registry     string
}

type CreateApplicationUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc CreateApplicationUseCase) Execute(ctx context.Context, cmd CreateApplicationCommand) (entities.Application, error) {
	logger := application.ResolveLogger(uc.Logger)
	if !cmd.Actor.Valid() {
		return entities.Application{}, domainerrors.ErrActorNotAuthorized
	}

	applicationID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Application{}, err
	}
	referenceSeed, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Application{}, err
	}

	now := uc.Clock.Now().UTC()
	item := entities.Application{
		ApplicationID:   applicationID,
		ReferenceNumber: referenceNumber(referenceSeed, now.Year()),
		ApplicantID:     strings.TrimSpace(cmd.Actor.UserID),
		ParcelNumber:    strings.TrimSpace(cmd.ParcelNumber),
		Purpose:         strings.TrimSpace(cmd.Purpose),
		County:          strings.TrimSpace(cmd.County),
		Registry:        strings.TrimSpace(cmd.Registry),
		Status:          entities.ApplicationStatusPending,
		SubmittedAt:     now,
		UpdatedAt:       now,
	}
	if !item.ValidateCreate() {
		return entities.Application{}, domainerrors.ErrInvalidApplicationInput
	}
	if err := uc.Repository.CreateApplication(ctx, item); err != nil {
		return entities.Application{}, err
	}

	logger.Info("official search application created",
		"event", "search_application_created",
		"module", "registry-core/search-application-service",
		"layer", "application",
		"application_id", item.ApplicationID,
		"reference_number", item.ReferenceNumber,
		"registry", item.Registry,
	)
	return item, nil
}

// referenceNumber derives a human-quotable reference like OS-2026-4F9A2C1B
// from a generated id, so applicants can cite it at the registry counter.
func referenceNumber(seed string, year int) string {
	compact := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(seed), "-", ""))
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return fmt.Sprintf("OS-%d-%s", year, compact)
}
