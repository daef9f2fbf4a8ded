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

type RecordPaymentCommand struct {
	Actor            entities.Actor
	ApplicationID    string
	Amount           int
	PaymentReference string
}

type RecordPaymentUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc RecordPaymentUseCase) Execute(ctx context.Context, cmd RecordPaymentCommand) (entities.Payment, error) {
	logger := application.ResolveLogger(uc.Logger)
	item, err := uc.Repository.GetApplication(ctx, strings.TrimSpace(cmd.ApplicationID))
	if err != nil {
		return entities.Payment{}, err
	}
	// The applicant reference is immutable after creation, so the ownership
	// check does not need to run under the row lock.
	if !cmd.Actor.Valid() || item.ApplicantID != cmd.Actor.UserID {
		return entities.Payment{}, domainerrors.ErrActorNotAuthorized
	}
	// Reject a wrong amount up front, then record the fixed fee regardless of
	// what the client sent.
	if cmd.Amount != entities.SearchFeeAmount {
		return entities.Payment{}, domainerrors.ErrInvalidPaymentAmount
	}

	paymentID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Payment{}, err
	}
	invoiceSeed, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Payment{}, err
	}

	now := uc.Clock.Now().UTC()
	payment := entities.Payment{
		PaymentID:        paymentID,
		ApplicationID:    item.ApplicationID,
		Amount:           entities.SearchFeeAmount,
		InvoiceNumber:    invoiceNumber(invoiceSeed),
		PaymentReference: strings.TrimSpace(cmd.PaymentReference),
		PaidAt:           now,
	}

	// Status precondition (pending only) is re-checked atomically with the
	// payment insert and the pending -> submitted transition.
	updated, err := uc.Repository.ApplyPayment(ctx, item.ApplicationID, payment)
	if err != nil {
		return entities.Payment{}, err
	}

	logger.Info("search fee payment recorded",
		"event", "search_fee_payment_recorded",
		"module", "registry-core/search-application-service",
		"layer", "application",
		"application_id", updated.ApplicationID,
		"invoice_number", payment.InvoiceNumber,
		"amount", payment.Amount,
	)
	return payment, nil
}

func invoiceNumber(seed string) string {
	compact := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(seed), "-", ""))
	if len(compact) > 12 {
		compact = compact[:12]
	}
	return fmt.Sprintf("INV-%s", compact)
}
