package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ardhi/contexts/registry-core/search-application-service/domain/entities"
	domainerrors "ardhi/contexts/registry-core/search-application-service/domain/errors"
	"ardhi/contexts/registry-core/search-application-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// AutoMigrate creates the context-owned tables. The users table belongs to
// identity-access and is only read here through a projection.
func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&applicationModel{},
		&paymentModel{},
		&certificateModel{},
		&reviewModel{},
		&certificateBlobModel{},
		&outboxModel{},
	)
}

func (r *Repository) CreateApplication(ctx context.Context, item entities.Application) error {
	row := applicationModelFromEntity(item)
	return r.db.WithContext(ctx).Create(&row).Error
}

func (r *Repository) GetApplication(ctx context.Context, applicationID string) (entities.Application, error) {
	var row applicationModel
	err := r.db.WithContext(ctx).
		Where("application_id = ?", strings.TrimSpace(applicationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Application{}, domainerrors.ErrApplicationNotFound
		}
		return entities.Application{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListApplications(ctx context.Context, filter ports.ApplicationFilter) ([]entities.Application, error) {
	tx := r.db.WithContext(ctx).Model(&applicationModel{})
	if filter.ApplicantID != "" {
		tx = tx.Where("applicant_id = ?", filter.ApplicantID)
	}
	if filter.Registry != "" {
		tx = tx.Where("registry = ?", filter.Registry)
	}
	if filter.AssignedToID != "" {
		tx = tx.Where("assigned_to_id = ?", filter.AssignedToID)
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if filter.ExcludePending {
		tx = tx.Where("status <> ?", string(entities.ApplicationStatusPending))
	}
	if filter.ParcelNumber != "" {
		tx = tx.Where("parcel_number ILIKE ?", "%"+escapeLike(filter.ParcelNumber)+"%")
	}
	if filter.ReferenceNumber != "" {
		tx = tx.Where("reference_number ILIKE ?", "%"+escapeLike(filter.ReferenceNumber)+"%")
	}

	var rows []applicationModel
	if err := tx.Order("submitted_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Application, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ApplyPayment(ctx context.Context, applicationID string, payment entities.Payment) (entities.Application, error) {
	var updated entities.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := lockApplication(tx, applicationID)
		if err != nil {
			return err
		}
		if item.Status != entities.ApplicationStatusPending {
			return domainerrors.ErrInvalidStatusTransition
		}

		paymentRow := paymentModel{
			PaymentID:        strings.TrimSpace(payment.PaymentID),
			ApplicationID:    item.ApplicationID,
			Amount:           payment.Amount,
			InvoiceNumber:    strings.TrimSpace(payment.InvoiceNumber),
			PaymentReference: strings.TrimSpace(payment.PaymentReference),
			PaidAt:           payment.PaidAt.UTC(),
		}
		if err := tx.Create(&paymentRow).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrDuplicateInvoice
			}
			return err
		}

		item.Status = entities.ApplicationStatusSubmitted
		item.UpdatedAt = payment.PaidAt.UTC()
		if err := persistTransition(tx, item); err != nil {
			return err
		}
		if err := appendLifecycleOutbox(tx, "registry.application.submitted", item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return entities.Application{}, err
	}
	return updated, nil
}

func (r *Repository) AssignRegistrar(ctx context.Context, applicationID string, registrarID string, now time.Time) (entities.Application, error) {
	var updated entities.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := lockApplication(tx, applicationID)
		if err != nil {
			return err
		}
		if !item.Status.Assignable() {
			return domainerrors.ErrInvalidStatusTransition
		}

		item.AssignedToID = strings.TrimSpace(registrarID)
		item.Status = entities.ApplicationStatusAssigned
		item.UpdatedAt = now.UTC()
		if err := persistTransition(tx, item); err != nil {
			return err
		}
		if err := appendLifecycleOutbox(tx, "registry.application.assigned", item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return entities.Application{}, err
	}
	return updated, nil
}

func (r *Repository) CompleteApplication(ctx context.Context, applicationID string, registrarID string, certificate entities.Certificate) (entities.Application, error) {
	var updated entities.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := lockApplication(tx, applicationID)
		if err != nil {
			return err
		}
		if item.Status != entities.ApplicationStatusAssigned {
			return domainerrors.ErrInvalidStatusTransition
		}
		if item.AssignedToID != strings.TrimSpace(registrarID) {
			return domainerrors.ErrActorNotAuthorized
		}

		certificateRow := certificateModel{
			CertificateID: strings.TrimSpace(certificate.CertificateID),
			ApplicationID: item.ApplicationID,
			UploadedByID:  strings.TrimSpace(certificate.UploadedByID),
			SignedFileRef: strings.TrimSpace(certificate.SignedFileRef),
			UploadedAt:    certificate.UploadedAt.UTC(),
		}
		if err := tx.Create(&certificateRow).Error; err != nil {
			return err
		}

		item.Status = entities.ApplicationStatusCompleted
		item.UpdatedAt = certificate.UploadedAt.UTC()
		if err := persistTransition(tx, item); err != nil {
			return err
		}
		if err := appendLifecycleOutbox(tx, "registry.application.completed", item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return entities.Application{}, err
	}
	return updated, nil
}

func (r *Repository) RejectApplication(ctx context.Context, applicationID string, registrarID string, review entities.Review) (entities.Application, error) {
	var updated entities.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := lockApplication(tx, applicationID)
		if err != nil {
			return err
		}
		if item.Status != entities.ApplicationStatusAssigned {
			return domainerrors.ErrInvalidStatusTransition
		}
		if item.AssignedToID != strings.TrimSpace(registrarID) {
			return domainerrors.ErrActorNotAuthorized
		}

		reviewRow := reviewModel{
			ReviewID:      strings.TrimSpace(review.ReviewID),
			ApplicationID: item.ApplicationID,
			ReviewerID:    strings.TrimSpace(review.ReviewerID),
			Comment:       review.Comment,
			CreatedAt:     review.CreatedAt.UTC(),
		}
		if err := tx.Create(&reviewRow).Error; err != nil {
			return err
		}

		item.Status = entities.ApplicationStatusRejected
		item.UpdatedAt = review.CreatedAt.UTC()
		if err := persistTransition(tx, item); err != nil {
			return err
		}
		if err := appendLifecycleOutbox(tx, "registry.application.rejected", item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return entities.Application{}, err
	}
	return updated, nil
}

func (r *Repository) GetPayment(ctx context.Context, applicationID string) (entities.Payment, error) {
	var row paymentModel
	err := r.db.WithContext(ctx).
		Where("application_id = ?", strings.TrimSpace(applicationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Payment{}, domainerrors.ErrApplicationNotFound
		}
		return entities.Payment{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetCertificate(ctx context.Context, applicationID string) (entities.Certificate, error) {
	var row certificateModel
	err := r.db.WithContext(ctx).
		Where("application_id = ?", strings.TrimSpace(applicationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Certificate{}, domainerrors.ErrCertificateNotFound
		}
		return entities.Certificate{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListReviews(ctx context.Context, applicationID string) ([]entities.Review, error) {
	var rows []reviewModel
	err := r.db.WithContext(ctx).
		Where("application_id = ?", strings.TrimSpace(applicationID)).
		Order("created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	items := make([]entities.Review, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// FindUser reads the identity context's users table as a projection; the
// registry core never writes it.
func (r *Repository) FindUser(ctx context.Context, userID string) (ports.RegistrarRecord, bool, error) {
	var row userProjectionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.RegistrarRecord{}, false, nil
		}
		return ports.RegistrarRecord{}, false, err
	}
	return ports.RegistrarRecord{
		UserID:   row.UserID,
		Username: row.Username,
		Role:     entities.Role(row.Role),
		County:   row.County,
		Registry: row.Registry,
		Active:   row.Active,
	}, true, nil
}

func (r *Repository) Store(ctx context.Context, data []byte) (string, error) {
	row := certificateBlobModel{
		BlobID:    uuid.NewString(),
		Data:      append([]byte(nil), data...),
		CreatedAt: time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return row.BlobID, nil
}

func (r *Repository) Retrieve(ctx context.Context, handle string) ([]byte, bool, error) {
	var row certificateBlobModel
	err := r.db.WithContext(ctx).
		Where("blob_id = ?", strings.TrimSpace(handle)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return append([]byte(nil), row.Data...), true, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrApplicationNotFound
	}
	return nil
}

// lockApplication takes a FOR UPDATE lock on the application row so that two
// concurrent transitions serialize; the second reads the committed status and
// fails its precondition.
func lockApplication(tx *gorm.DB, applicationID string) (entities.Application, error) {
	var row applicationModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("application_id = ?", strings.TrimSpace(applicationID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Application{}, domainerrors.ErrApplicationNotFound
		}
		return entities.Application{}, err
	}
	return row.toEntity(), nil
}

func persistTransition(tx *gorm.DB, item entities.Application) error {
	result := tx.Model(&applicationModel{}).
		Where("application_id = ?", item.ApplicationID).
		Updates(map[string]any{
			"status":         string(item.Status),
			"assigned_to_id": nullableString(item.AssignedToID),
			"updated_at":     item.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrApplicationNotFound
	}
	return nil
}

func appendLifecycleOutbox(tx *gorm.DB, eventType string, item entities.Application) error {
	envelope := ports.EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		SourceService: "registry-core/search-application-service",
		OccurredAt:    item.UpdatedAt.UTC(),
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
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: item.ApplicationID,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt,
	}
	return tx.Create(&row).Error
}

type applicationModel struct {
	ApplicationID   string    `gorm:"column:application_id;primaryKey"`
	ReferenceNumber string    `gorm:"column:reference_number"`
	ApplicantID     string    `gorm:"column:applicant_id"`
	ParcelNumber    string    `gorm:"column:parcel_number"`
	Purpose         string    `gorm:"column:purpose"`
	County          string    `gorm:"column:county"`
	Registry        string    `gorm:"column:registry"`
	Status          string    `gorm:"column:status"`
	SubmittedAt     time.Time `gorm:"column:submitted_at"`
	AssignedToID    *string   `gorm:"column:assigned_to_id"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (applicationModel) TableName() string {
	return "official_search_applications"
}

func applicationModelFromEntity(item entities.Application) applicationModel {
	return applicationModel{
		ApplicationID:   strings.TrimSpace(item.ApplicationID),
		ReferenceNumber: strings.TrimSpace(item.ReferenceNumber),
		ApplicantID:     strings.TrimSpace(item.ApplicantID),
		ParcelNumber:    strings.TrimSpace(item.ParcelNumber),
		Purpose:         strings.TrimSpace(item.Purpose),
		County:          strings.TrimSpace(item.County),
		Registry:        strings.TrimSpace(item.Registry),
		Status:          string(item.Status),
		SubmittedAt:     item.SubmittedAt.UTC(),
		AssignedToID:    nullableString(item.AssignedToID),
		UpdatedAt:       item.UpdatedAt.UTC(),
	}
}

func (m applicationModel) toEntity() entities.Application {
	assignedTo := ""
	if m.AssignedToID != nil {
		assignedTo = *m.AssignedToID
	}
	return entities.Application{
		ApplicationID:   m.ApplicationID,
		ReferenceNumber: m.ReferenceNumber,
		ApplicantID:     m.ApplicantID,
		ParcelNumber:    m.ParcelNumber,
		Purpose:         m.Purpose,
		County:          m.County,
		Registry:        m.Registry,
		Status:          entities.ApplicationStatus(m.Status),
		SubmittedAt:     m.SubmittedAt.UTC(),
		AssignedToID:    assignedTo,
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

type paymentModel struct {
	PaymentID        string    `gorm:"column:payment_id;primaryKey"`
	ApplicationID    string    `gorm:"column:application_id;uniqueIndex"`
	Amount           int       `gorm:"column:amount"`
	InvoiceNumber    string    `gorm:"column:invoice_number;uniqueIndex"`
	PaymentReference string    `gorm:"column:payment_reference"`
	PaidAt           time.Time `gorm:"column:paid_at"`
}

func (paymentModel) TableName() string {
	return "search_fee_payments"
}

func (m paymentModel) toEntity() entities.Payment {
	return entities.Payment{
		PaymentID:        m.PaymentID,
		ApplicationID:    m.ApplicationID,
		Amount:           m.Amount,
		InvoiceNumber:    m.InvoiceNumber,
		PaymentReference: m.PaymentReference,
		PaidAt:           m.PaidAt.UTC(),
	}
}

type certificateModel struct {
	CertificateID string    `gorm:"column:certificate_id;primaryKey"`
	ApplicationID string    `gorm:"column:application_id;uniqueIndex"`
	UploadedByID  string    `gorm:"column:uploaded_by_id"`
	SignedFileRef string    `gorm:"column:signed_file_ref"`
	UploadedAt    time.Time `gorm:"column:uploaded_at"`
}

func (certificateModel) TableName() string {
	return "search_certificates"
}

func (m certificateModel) toEntity() entities.Certificate {
	return entities.Certificate{
		CertificateID: m.CertificateID,
		ApplicationID: m.ApplicationID,
		UploadedByID:  m.UploadedByID,
		SignedFileRef: m.SignedFileRef,
		UploadedAt:    m.UploadedAt.UTC(),
	}
}

type reviewModel struct {
	ReviewID      string    `gorm:"column:review_id;primaryKey"`
	ApplicationID string    `gorm:"column:application_id"`
	ReviewerID    string    `gorm:"column:reviewer_id"`
	Comment       string    `gorm:"column:comment"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (reviewModel) TableName() string {
	return "application_reviews"
}

func (m reviewModel) toEntity() entities.Review {
	return entities.Review{
		ReviewID:      m.ReviewID,
		ApplicationID: m.ApplicationID,
		ReviewerID:    m.ReviewerID,
		Comment:       m.Comment,
		CreatedAt:     m.CreatedAt.UTC(),
	}
}

type certificateBlobModel struct {
	BlobID    string    `gorm:"column:blob_id;primaryKey"`
	Data      []byte    `gorm:"column:data"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (certificateBlobModel) TableName() string {
	return "certificate_blobs"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "application_outbox"
}

type userProjectionModel struct {
	UserID   string `gorm:"column:user_id;primaryKey"`
	Username string `gorm:"column:username"`
	Role     string `gorm:"column:role"`
	County   string `gorm:"column:county"`
	Registry string `gorm:"column:registry"`
	Active   bool   `gorm:"column:active"`
}

func (userProjectionModel) TableName() string {
	return "users"
}

func nullableString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(strings.TrimSpace(value))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
