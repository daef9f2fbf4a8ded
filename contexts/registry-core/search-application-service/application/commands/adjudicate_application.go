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

type ApproveApplicationCommand struct {
	Actor         entities.Actor
	ApplicationID string
	SignedFile    []byte
}

type RejectApplicationCommand struct {
	Actor         entities.Actor
	ApplicationID string
	Comment       string
}

// AdjudicateApplicationUseCase terminates an assigned application: approval
// issues a certificate, rejection records a review. The two transitions are
// mutually exclusive; whichever commits first wins and the other fails on the
// status precondition.
type AdjudicateApplicationUseCase struct {
	Repository ports.Repository
	Blobs      ports.BlobStore
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc AdjudicateApplicationUseCase) Approve(ctx context.Context, cmd ApproveApplicationCommand) (entities.Certificate, error) {
	logger := application.ResolveLogger(uc.Logger)
	item, err := uc.loadAssigned(ctx, cmd.ApplicationID, cmd.Actor)
	if err != nil {
		return entities.Certificate{}, err
	}
	if len(cmd.SignedFile) == 0 {
		return entities.Certificate{}, domainerrors.ErrInvalidApplicationInput
	}

	handle, err := uc.Blobs.Store(ctx, cmd.SignedFile)
	if err != nil {
		return entities.Certificate{}, err
	}
	certificateID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Certificate{}, err
	}
	certificate := entities.Certificate{
		CertificateID: certificateID,
		ApplicationID: item.ApplicationID,
		UploadedByID:  cmd.Actor.UserID,
		SignedFileRef: handle,
		UploadedAt:    uc.Clock.Now().UTC(),
	}

	updated, err := uc.Repository.CompleteApplication(ctx, item.ApplicationID, cmd.Actor.UserID, certificate)
	if err != nil {
		return entities.Certificate{}, err
	}

	logger.Info("application approved, certificate issued",
		"event", "search_application_completed",
		"module", "registry-core/search-application-service",
		"layer", "application",
		"application_id", updated.ApplicationID,
		"registrar_id", cmd.Actor.UserID,
	)
	return certificate, nil
}

func (uc AdjudicateApplicationUseCase) Reject(ctx context.Context, cmd RejectApplicationCommand) (entities.Review, error) {
	logger := application.ResolveLogger(uc.Logger)
	item, err := uc.loadAssigned(ctx, cmd.ApplicationID, cmd.Actor)
	if err != nil {
		return entities.Review{}, err
	}
	comment := strings.TrimSpace(cmd.Comment)
	if comment == "" {
		return entities.Review{}, domainerrors.ErrInvalidApplicationInput
	}

	reviewID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Review{}, err
	}
	review := entities.Review{
		ReviewID:      reviewID,
		ApplicationID: item.ApplicationID,
		ReviewerID:    cmd.Actor.UserID,
		Comment:       comment,
		CreatedAt:     uc.Clock.Now().UTC(),
	}

	updated, err := uc.Repository.RejectApplication(ctx, item.ApplicationID, cmd.Actor.UserID, review)
	if err != nil {
		return entities.Review{}, err
	}

	logger.Info("application rejected with review",
		"event", "search_application_rejected",
		"module", "registry-core/search-application-service",
		"layer", "application",
		"application_id", updated.ApplicationID,
		"registrar_id", cmd.Actor.UserID,
	)
	return review, nil
}

// loadAssigned fetches the application and applies the shared adjudication
// preconditions. The repository re-checks both under the row lock; failing
// fast here keeps the common error paths cheap.
func (uc AdjudicateApplicationUseCase) loadAssigned(ctx context.Context, applicationID string, actor entities.Actor) (entities.Application, error) {
	item, err := uc.Repository.GetApplication(ctx, strings.TrimSpace(applicationID))
	if err != nil {
		return entities.Application{}, err
	}
	if !actor.Valid() || item.AssignedToID == "" || item.AssignedToID != actor.UserID {
		return entities.Application{}, domainerrors.ErrActorNotAuthorized
	}
	if item.Status != entities.ApplicationStatusAssigned {
		return entities.Application{}, domainerrors.ErrInvalidStatusTransition
	}
	return item, nil
}
