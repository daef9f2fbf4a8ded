package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"ardhi/contexts/registry-core/search-application-service/application/commands"
	"ardhi/contexts/registry-core/search-application-service/application/queries"
	"ardhi/contexts/registry-core/search-application-service/domain/entities"
	httptransport "ardhi/contexts/registry-core/search-application-service/transport/http"
)

type Handler struct {
	CreateApplication commands.CreateApplicationUseCase
	RecordPayment     commands.RecordPaymentUseCase
	AssignRegistrar   commands.AssignRegistrarUseCase
	Adjudicate        commands.AdjudicateApplicationUseCase
	Queries           queries.QueryUseCase
	Logger            *slog.Logger
}

func (h Handler) CreateApplicationHandler(
	ctx context.Context,
	actor entities.Actor,
	req httptransport.CreateApplicationRequest,
) (httptransport.CreateApplicationResponse, error) {
	item, err := h.CreateApplication.Execute(ctx, commands.CreateApplicationCommand{
		Actor:        actor,
		ParcelNumber: req.ParcelNumber,
		Purpose:      req.Purpose,
		County:       req.County,
		Registry:     req.Registry,
	})
	if err != nil {
		return httptransport.CreateApplicationResponse{}, err
	}
	return httptransport.CreateApplicationResponse{Application: mapApplication(item)}, nil
}

func (h Handler) ListApplicationsHandler(
	ctx context.Context,
	actor entities.Actor,
	filter queries.ListFilter,
) (httptransport.ListApplicationsResponse, error) {
	items, err := h.Queries.ListForApplicant(ctx, actor, filter)
	if err != nil {
		return httptransport.ListApplicationsResponse{}, err
	}
	return httptransport.ListApplicationsResponse{Items: mapApplications(items)}, nil
}

func (h Handler) ListSubmittedHandler(
	ctx context.Context,
	actor entities.Actor,
	filter queries.ListFilter,
) (httptransport.ListApplicationsResponse, error) {
	items, err := h.Queries.ListSubmittedForRegistry(ctx, actor, filter)
	if err != nil {
		return httptransport.ListApplicationsResponse{}, err
	}
	return httptransport.ListApplicationsResponse{Items: mapApplications(items)}, nil
}

func (h Handler) ListAssignedHandler(
	ctx context.Context,
	actor entities.Actor,
	filter queries.ListFilter,
) (httptransport.ListApplicationsResponse, error) {
	items, err := h.Queries.ListAssignedForRegistrar(ctx, actor, filter)
	if err != nil {
		return httptransport.ListApplicationsResponse{}, err
	}
	return httptransport.ListApplicationsResponse{Items: mapApplications(items)}, nil
}

func (h Handler) GetApplicationHandler(
	ctx context.Context,
	actor entities.Actor,
	applicationID string,
) (httptransport.GetApplicationResponse, error) {
	item, err := h.Queries.GetApplication(ctx, actor, applicationID)
	if err != nil {
		return httptransport.GetApplicationResponse{}, err
	}
	return httptransport.GetApplicationResponse{Application: mapApplication(item)}, nil
}

func (h Handler) RecordPaymentHandler(
	ctx context.Context,
	actor entities.Actor,
	applicationID string,
	req httptransport.RecordPaymentRequest,
) (httptransport.RecordPaymentResponse, error) {
	payment, err := h.RecordPayment.Execute(ctx, commands.RecordPaymentCommand{
		Actor:            actor,
		ApplicationID:    applicationID,
		Amount:           req.Amount,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		return httptransport.RecordPaymentResponse{}, err
	}
	return httptransport.RecordPaymentResponse{Payment: mapPayment(payment)}, nil
}

func (h Handler) AssignRegistrarHandler(
	ctx context.Context,
	actor entities.Actor,
	applicationID string,
	req httptransport.AssignRegistrarRequest,
) (httptransport.AssignRegistrarResponse, error) {
	item, err := h.AssignRegistrar.Execute(ctx, commands.AssignRegistrarCommand{
		Actor:         actor,
		ApplicationID: applicationID,
		RegistrarID:   req.RegistrarID,
	})
	if err != nil {
		return httptransport.AssignRegistrarResponse{}, err
	}
	return httptransport.AssignRegistrarResponse{Application: mapApplication(item)}, nil
}

func (h Handler) ApproveApplicationHandler(
	ctx context.Context,
	actor entities.Actor,
	applicationID string,
	req httptransport.ApproveApplicationRequest,
) (httptransport.ApproveApplicationResponse, error) {
	certificate, err := h.Adjudicate.Approve(ctx, commands.ApproveApplicationCommand{
		Actor:         actor,
		ApplicationID: applicationID,
		SignedFile:    req.CertificateFile,
	})
	if err != nil {
		return httptransport.ApproveApplicationResponse{}, err
	}
	return httptransport.ApproveApplicationResponse{Certificate: mapCertificate(certificate)}, nil
}

func (h Handler) RejectApplicationHandler(
	ctx context.Context,
	actor entities.Actor,
	applicationID string,
	req httptransport.RejectApplicationRequest,
) (httptransport.RejectApplicationResponse, error) {
	review, err := h.Adjudicate.Reject(ctx, commands.RejectApplicationCommand{
		Actor:         actor,
		ApplicationID: applicationID,
		Comment:       req.Comment,
	})
	if err != nil {
		return httptransport.RejectApplicationResponse{}, err
	}
	return httptransport.RejectApplicationResponse{Review: mapReview(review)}, nil
}

func (h Handler) GetPaymentHandler(
	ctx context.Context,
	actor entities.Actor,
	applicationID string,
) (httptransport.GetPaymentResponse, error) {
	payment, err := h.Queries.GetPayment(ctx, actor, applicationID)
	if err != nil {
		return httptransport.GetPaymentResponse{}, err
	}
	return httptransport.GetPaymentResponse{Payment: mapPayment(payment)}, nil
}

func (h Handler) ListReviewsHandler(
	ctx context.Context,
	actor entities.Actor,
	applicationID string,
) (httptransport.ListReviewsResponse, error) {
	reviews, err := h.Queries.ListReviews(ctx, actor, applicationID)
	if err != nil {
		return httptransport.ListReviewsResponse{}, err
	}
	items := make([]httptransport.ReviewDTO, 0, len(reviews))
	for _, review := range reviews {
		items = append(items, mapReview(review))
	}
	return httptransport.ListReviewsResponse{Items: items}, nil
}

// FetchCertificateHandler returns the raw signed file; the platform layer
// streams it as a download.
func (h Handler) FetchCertificateHandler(
	ctx context.Context,
	actor entities.Actor,
	applicationID string,
) (entities.Certificate, []byte, error) {
	return h.Queries.FetchCertificate(ctx, actor, applicationID)
}

func mapApplications(items []entities.Application) []httptransport.ApplicationDTO {
	result := make([]httptransport.ApplicationDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapApplication(item))
	}
	return result
}

func mapApplication(item entities.Application) httptransport.ApplicationDTO {
	return httptransport.ApplicationDTO{
		ApplicationID:   item.ApplicationID,
		ReferenceNumber: item.ReferenceNumber,
		ApplicantID:     item.ApplicantID,
		ParcelNumber:    item.ParcelNumber,
		Purpose:         item.Purpose,
		County:          item.County,
		Registry:        item.Registry,
		Status:          string(item.Status),
		SubmittedAt:     item.SubmittedAt.Format(time.RFC3339),
		AssignedToID:    item.AssignedToID,
	}
}

func mapPayment(item entities.Payment) httptransport.PaymentDTO {
	return httptransport.PaymentDTO{
		PaymentID:        item.PaymentID,
		ApplicationID:    item.ApplicationID,
		Amount:           item.Amount,
		InvoiceNumber:    item.InvoiceNumber,
		PaymentReference: item.PaymentReference,
		PaidAt:           item.PaidAt.Format(time.RFC3339),
	}
}

func mapCertificate(item entities.Certificate) httptransport.CertificateDTO {
	return httptransport.CertificateDTO{
		CertificateID: item.CertificateID,
		ApplicationID: item.ApplicationID,
		UploadedByID:  item.UploadedByID,
		UploadedAt:    item.UploadedAt.Format(time.RFC3339),
	}
}

func mapReview(item entities.Review) httptransport.ReviewDTO {
	return httptransport.ReviewDTO{
		ReviewID:      item.ReviewID,
		ApplicationID: item.ApplicationID,
		ReviewerID:    item.ReviewerID,
		Comment:       item.Comment,
		CreatedAt:     item.CreatedAt.Format(time.RFC3339),
	}
}
