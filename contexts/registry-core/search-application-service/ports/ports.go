package ports

import (
	"context"
	"time"

	"ardhi/contexts/registry-core/search-application-service/domain/entities"
)

type ApplicationFilter struct {
	ApplicantID  string
	Registry     string
	AssignedToID string
	Status       entities.ApplicationStatus
	// ParcelNumber and ReferenceNumber are case-insensitive substring matches.
	ParcelNumber    string
	ReferenceNumber string
	// ExcludePending hides unpaid applications from registry staff listings.
	ExcludePending bool
}

// Repository owns the application rows and their dependent records. The
// Apply/Assign/Complete/Reject operations re-check the lifecycle status under
// the store's row lock and write the status change together with the dependent
// record as one atomic unit.
type Repository interface {
	CreateApplication(ctx context.Context, application entities.Application) error
	GetApplication(ctx context.Context, applicationID string) (entities.Application, error)
	ListApplications(ctx context.Context, filter ApplicationFilter) ([]entities.Application, error)

	// ApplyPayment records the payment and moves pending -> submitted.
	ApplyPayment(ctx context.Context, applicationID string, payment entities.Payment) (entities.Application, error)
	// AssignRegistrar sets assigned_to and moves submitted/assigned -> assigned.
	AssignRegistrar(ctx context.Context, applicationID string, registrarID string, now time.Time) (entities.Application, error)
	// CompleteApplication stores the certificate and moves assigned -> completed.
	// registrarID must still match assigned_to at commit time.
	CompleteApplication(ctx context.Context, applicationID string, registrarID string, certificate entities.Certificate) (entities.Application, error)
	// RejectApplication stores the review and moves assigned -> rejected.
	RejectApplication(ctx context.Context, applicationID string, registrarID string, review entities.Review) (entities.Application, error)

	GetPayment(ctx context.Context, applicationID string) (entities.Payment, error)
	GetCertificate(ctx context.Context, applicationID string) (entities.Certificate, error)
	ListReviews(ctx context.Context, applicationID string) ([]entities.Review, error)
}

// RegistrarRecord is a read-only projection of the identity context's users.
type RegistrarRecord struct {
	UserID   string
	Username string
	Role     entities.Role
	County   string
	Registry string
	Active   bool
}

type RegistrarDirectory interface {
	FindUser(ctx context.Context, userID string) (RegistrarRecord, bool, error)
}

// BlobStore keeps signed certificate files as opaque payloads.
type BlobStore interface {
	Store(ctx context.Context, data []byte) (string, error)
	Retrieve(ctx context.Context, handle string) ([]byte, bool, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	SourceService string    `json:"source_service"`
	OccurredAt    time.Time `json:"occurred_at_utc"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Payload       any       `json:"payload"`
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
