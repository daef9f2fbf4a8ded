package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"ardhi/contexts/registry-core/search-application-service/domain/entities"
	domainerrors "ardhi/contexts/registry-core/search-application-service/domain/errors"
	"ardhi/contexts/registry-core/search-application-service/ports"

	"github.com/google/uuid"
)

// Store is the in-memory adapter backing tests and local runs. A single
// mutex serializes mutations, which gives the same effect as the row lock
// the postgres adapter takes on the application row.
type Store struct {
	mu sync.RWMutex

	applications map[string]entities.Application
	payments     map[string]entities.Payment
	certificates map[string]entities.Certificate
	reviews      map[string][]entities.Review
	registrars   map[string]ports.RegistrarRecord
	blobs        map[string][]byte
	outbox       []outboxRow
}

type outboxRow struct {
	message   ports.OutboxMessage
	published bool
}

func NewStore(seed []entities.Application) *Store {
	applications := make(map[string]entities.Application, len(seed))
	for _, item := range seed {
		applications[item.ApplicationID] = item
	}
	return &Store{
		applications: applications,
		payments:     make(map[string]entities.Payment),
		certificates: make(map[string]entities.Certificate),
		reviews:      make(map[string][]entities.Review),
		registrars:   make(map[string]ports.RegistrarRecord),
		blobs:        make(map[string][]byte),
	}
}

// SeedUser loads a user projection so assignment eligibility can resolve
// without the identity context.
func (s *Store) SeedUser(record ports.RegistrarRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registrars[record.UserID] = record
}

func (s *Store) CreateApplication(_ context.Context, item entities.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applications[item.ApplicationID] = item
	return nil
}

func (s *Store) GetApplication(_ context.Context, applicationID string) (entities.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, exists := s.applications[strings.TrimSpace(applicationID)]
	if !exists {
		return entities.Application{}, domainerrors.ErrApplicationNotFound
	}
	return item, nil
}

func (s *Store) ListApplications(_ context.Context, filter ports.ApplicationFilter) ([]entities.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Application, 0, len(s.applications))
	for _, item := range s.applications {
		if filter.ApplicantID != "" && item.ApplicantID != filter.ApplicantID {
			continue
		}
		if filter.Registry != "" && item.Registry != filter.Registry {
			continue
		}
		if filter.AssignedToID != "" && item.AssignedToID != filter.AssignedToID {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.ExcludePending && item.Status == entities.ApplicationStatusPending {
			continue
		}
		if filter.ParcelNumber != "" && !containsFold(item.ParcelNumber, filter.ParcelNumber) {
			continue
		}
		if filter.ReferenceNumber != "" && !containsFold(item.ReferenceNumber, filter.ReferenceNumber) {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].SubmittedAt.After(items[j].SubmittedAt)
	})
	return items, nil
}

func (s *Store) ApplyPayment(_ context.Context, applicationID string, payment entities.Payment) (entities.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.applications[strings.TrimSpace(applicationID)]
	if !exists {
		return entities.Application{}, domainerrors.ErrApplicationNotFound
	}
	if item.Status != entities.ApplicationStatusPending {
		return entities.Application{}, domainerrors.ErrInvalidStatusTransition
	}
	for _, existing := range s.payments {
		if existing.InvoiceNumber == payment.InvoiceNumber {
			return entities.Application{}, domainerrors.ErrDuplicateInvoice
		}
	}

	item.Status = entities.ApplicationStatusSubmitted
	item.UpdatedAt = payment.PaidAt
	s.applications[item.ApplicationID] = item
	s.payments[item.ApplicationID] = payment
	s.appendLifecycleEvent("registry.application.submitted", item, payment.PaidAt)
	return item, nil
}

func (s *Store) AssignRegistrar(_ context.Context, applicationID string, registrarID string, now time.Time) (entities.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.applications[strings.TrimSpace(applicationID)]
	if !exists {
		return entities.Application{}, domainerrors.ErrApplicationNotFound
	}
	if !item.Status.Assignable() {
		return entities.Application{}, domainerrors.ErrInvalidStatusTransition
	}

	item.AssignedToID = strings.TrimSpace(registrarID)
	item.Status = entities.ApplicationStatusAssigned
	item.UpdatedAt = now.UTC()
	s.applications[item.ApplicationID] = item
	s.appendLifecycleEvent("registry.application.assigned", item, item.UpdatedAt)
	return item, nil
}

func (s *Store) CompleteApplication(_ context.Context, applicationID string, registrarID string, certificate entities.Certificate) (entities.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.applications[strings.TrimSpace(applicationID)]
	if !exists {
		return entities.Application{}, domainerrors.ErrApplicationNotFound
	}
	if item.Status != entities.ApplicationStatusAssigned {
		return entities.Application{}, domainerrors.ErrInvalidStatusTransition
	}
	if item.AssignedToID != strings.TrimSpace(registrarID) {
		return entities.Application{}, domainerrors.ErrActorNotAuthorized
	}

	item.Status = entities.ApplicationStatusCompleted
	item.UpdatedAt = certificate.UploadedAt
	s.applications[item.ApplicationID] = item
	s.certificates[item.ApplicationID] = certificate
	s.appendLifecycleEvent("registry.application.completed", item, certificate.UploadedAt)
	return item, nil
}

func (s *Store) RejectApplication(_ context.Context, applicationID string, registrarID string, review entities.Review) (entities.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.applications[strings.TrimSpace(applicationID)]
	if !exists {
		return entities.Application{}, domainerrors.ErrApplicationNotFound
	}
	if item.Status != entities.ApplicationStatusAssigned {
		return entities.Application{}, domainerrors.ErrInvalidStatusTransition
	}
	if item.AssignedToID != strings.TrimSpace(registrarID) {
		return entities.Application{}, domainerrors.ErrActorNotAuthorized
	}

	item.Status = entities.ApplicationStatusRejected
	item.UpdatedAt = review.CreatedAt
	s.applications[item.ApplicationID] = item
	s.reviews[item.ApplicationID] = append(s.reviews[item.ApplicationID], review)
	s.appendLifecycleEvent("registry.application.rejected", item, review.CreatedAt)
	return item, nil
}

func (s *Store) GetPayment(_ context.Context, applicationID string) (entities.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payment, exists := s.payments[strings.TrimSpace(applicationID)]
	if !exists {
		return entities.Payment{}, domainerrors.ErrApplicationNotFound
	}
	return payment, nil
}

func (s *Store) GetCertificate(_ context.Context, applicationID string) (entities.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	certificate, exists := s.certificates[strings.TrimSpace(applicationID)]
	if !exists {
		return entities.Certificate{}, domainerrors.ErrCertificateNotFound
	}
	return certificate, nil
}

func (s *Store) ListReviews(_ context.Context, applicationID string) ([]entities.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := append([]entities.Review(nil), s.reviews[strings.TrimSpace(applicationID)]...)
	return items, nil
}

func (s *Store) FindUser(_ context.Context, userID string) (ports.RegistrarRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, exists := s.registrars[strings.TrimSpace(userID)]
	return record, exists, nil
}

func (s *Store) Store(_ context.Context, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle := uuid.NewString()
	s.blobs[handle] = append([]byte(nil), data...)
	return handle, nil
}

func (s *Store) Retrieve(_ context.Context, handle string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, exists := s.blobs[strings.TrimSpace(handle)]
	if !exists {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, limit)
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
		if len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.outbox {
		if s.outbox[i].message.OutboxID == outboxID {
			s.outbox[i].published = true
			return nil
		}
	}
	return domainerrors.ErrApplicationNotFound
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// appendLifecycleEvent runs under the store mutex, so the event lands in the
// outbox together with the state change it describes.
func (s *Store) appendLifecycleEvent(eventType string, item entities.Application, occurredAt time.Time) {
	envelope := ports.EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		SourceService: "registry-core/search-application-service",
		OccurredAt:    occurredAt.UTC(),
		EntityType:    "official_search_application",
		EntityID:      item.ApplicationID,
		Payload: map[string]any{
			"application_id":   item.ApplicationID,
			"reference_number": item.ReferenceNumber,
			"registry":         item.Registry,
			"status":           string(item.Status),
			"assigned_to":      item.AssignedToID,
		},
	}
	payload, _ := json.Marshal(envelope)
	s.outbox = append(s.outbox, outboxRow{
		message: ports.OutboxMessage{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: item.ApplicationID,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt,
		},
	})
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
