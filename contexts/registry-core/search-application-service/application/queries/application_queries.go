package queries

import (
	"context"
	"log/slog"
	"strings"

	application "ardhi/contexts/registry-core/search-application-service/application"
	"ardhi/contexts/registry-core/search-application-service/domain/entities"
	domainerrors "ardhi/contexts/registry-core/search-application-service/domain/errors"
	"ardhi/contexts/registry-core/search-application-service/ports"
)

// ListFilter carries the caller-supplied search filters. Status is an exact
// case-insensitive match; parcel and reference numbers match substrings.
type ListFilter struct {
	Status          string
	ParcelNumber    string
	ReferenceNumber string
}

type QueryUseCase struct {
	Repository ports.Repository
	Blobs      ports.BlobStore
	Logger     *slog.Logger
}

func (uc QueryUseCase) ListForApplicant(ctx context.Context, actor entities.Actor, filter ListFilter) ([]entities.Application, error) {
	if !actor.Valid() {
		return nil, domainerrors.ErrActorNotAuthorized
	}
	repoFilter, ok := repositoryFilter(filter)
	if !ok {
		return []entities.Application{}, nil
	}
	repoFilter.ApplicantID = actor.UserID
	return uc.Repository.ListApplications(ctx, repoFilter)
}

func (uc QueryUseCase) ListSubmittedForRegistry(ctx context.Context, actor entities.Actor, filter ListFilter) ([]entities.Application, error) {
	if actor.Role != entities.RoleRegistrarInCharge {
		return nil, domainerrors.ErrActorNotAuthorized
	}
	repoFilter, ok := repositoryFilter(filter)
	if !ok {
		return []entities.Application{}, nil
	}
	repoFilter.Registry = actor.Registry
	// Unpaid applications stay invisible to registry staff.
	repoFilter.ExcludePending = true
	return uc.Repository.ListApplications(ctx, repoFilter)
}

func (uc QueryUseCase) ListAssignedForRegistrar(ctx context.Context, actor entities.Actor, filter ListFilter) ([]entities.Application, error) {
	if actor.Role != entities.RoleRegistrar {
		return nil, domainerrors.ErrActorNotAuthorized
	}
	repoFilter, ok := repositoryFilter(filter)
	if !ok {
		return []entities.Application{}, nil
	}
	repoFilter.AssignedToID = actor.UserID
	return uc.Repository.ListApplications(ctx, repoFilter)
}

func (uc QueryUseCase) GetApplication(ctx context.Context, actor entities.Actor, applicationID string) (entities.Application, error) {
	item, err := uc.Repository.GetApplication(ctx, strings.TrimSpace(applicationID))
	if err != nil {
		return entities.Application{}, err
	}
	if !visibleTo(item, actor) {
		// Existence is not confirmed to callers outside the application's chain.
		return entities.Application{}, domainerrors.ErrApplicationNotFound
	}
	return item, nil
}

func (uc QueryUseCase) GetPayment(ctx context.Context, actor entities.Actor, applicationID string) (entities.Payment, error) {
	if _, err := uc.GetApplication(ctx, actor, applicationID); err != nil {
		return entities.Payment{}, err
	}
	return uc.Repository.GetPayment(ctx, strings.TrimSpace(applicationID))
}

// FetchCertificate returns the signed certificate file for the applicant who
// owns the application. Any other caller gets a not-found, never an
// authorization error, so existence is not leaked.
func (uc QueryUseCase) FetchCertificate(ctx context.Context, actor entities.Actor, applicationID string) (entities.Certificate, []byte, error) {
	logger := application.ResolveLogger(uc.Logger)
	item, err := uc.Repository.GetApplication(ctx, strings.TrimSpace(applicationID))
	if err != nil {
		return entities.Certificate{}, nil, domainerrors.ErrCertificateNotFound
	}
	if !actor.Valid() || item.ApplicantID != actor.UserID {
		return entities.Certificate{}, nil, domainerrors.ErrCertificateNotFound
	}

	certificate, err := uc.Repository.GetCertificate(ctx, item.ApplicationID)
	if err != nil {
		return entities.Certificate{}, nil, domainerrors.ErrCertificateNotFound
	}
	data, found, err := uc.Blobs.Retrieve(ctx, certificate.SignedFileRef)
	if err != nil {
		return entities.Certificate{}, nil, err
	}
	if !found {
		logger.Warn("certificate blob missing for issued certificate",
			"event", "certificate_blob_missing",
			"module", "registry-core/search-application-service",
			"layer", "application",
			"application_id", item.ApplicationID,
		)
		return entities.Certificate{}, nil, domainerrors.ErrCertificateNotFound
	}
	return certificate, data, nil
}

func (uc QueryUseCase) ListReviews(ctx context.Context, actor entities.Actor, applicationID string) ([]entities.Review, error) {
	if _, err := uc.GetApplication(ctx, actor, applicationID); err != nil {
		return nil, err
	}
	return uc.Repository.ListReviews(ctx, strings.TrimSpace(applicationID))
}

func visibleTo(item entities.Application, actor entities.Actor) bool {
	if !actor.Valid() {
		return false
	}
	switch actor.Role {
	case entities.RoleApplicant:
		return item.ApplicantID == actor.UserID
	case entities.RoleRegistrarInCharge:
		return item.Registry == actor.Registry && item.Status != entities.ApplicationStatusPending
	case entities.RoleRegistrar:
		return item.AssignedToID == actor.UserID
	default:
		return false
	}
}

// repositoryFilter normalizes the status filter at the boundary. An unknown
// status value matches nothing rather than erroring, mirroring exact-match
// filter semantics.
func repositoryFilter(filter ListFilter) (ports.ApplicationFilter, bool) {
	out := ports.ApplicationFilter{
		ParcelNumber:    strings.TrimSpace(filter.ParcelNumber),
		ReferenceNumber: strings.TrimSpace(filter.ReferenceNumber),
	}
	raw := strings.TrimSpace(filter.Status)
	if raw == "" {
		return out, true
	}
	status, ok := entities.ParseApplicationStatus(raw)
	if !ok {
		return ports.ApplicationFilter{}, false
	}
	out.Status = status
	return out, true
}
