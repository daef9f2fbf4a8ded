package searchapplicationservice_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	searchapplicationservice "ardhi/contexts/registry-core/search-application-service"
	"ardhi/contexts/registry-core/search-application-service/application/queries"
	"ardhi/contexts/registry-core/search-application-service/domain/entities"
	domainerrors "ardhi/contexts/registry-core/search-application-service/domain/errors"
	"ardhi/contexts/registry-core/search-application-service/ports"
	httptransport "ardhi/contexts/registry-core/search-application-service/transport/http"
)

var (
	applicant = entities.Actor{UserID: "applicant-1", Role: entities.RoleApplicant, County: "Nairobi"}
	otherUser = entities.Actor{UserID: "applicant-2", Role: entities.RoleApplicant, County: "Kiambu"}
	registrar = entities.Actor{UserID: "registrar-1", Role: entities.RoleRegistrar, County: "Nairobi", Registry: "nairobi-central"}
	inCharge  = entities.Actor{UserID: "ric-1", Role: entities.RoleRegistrarInCharge, County: "Nairobi", Registry: "nairobi-central"}
)

func newTestModule() searchapplicationservice.Module {
	module := searchapplicationservice.NewInMemoryModule(nil, nil)
	module.Store.SeedUser(ports.RegistrarRecord{UserID: "registrar-1", Username: "reg1", Role: entities.RoleRegistrar, Registry: "nairobi-central", Active: true})
	module.Store.SeedUser(ports.RegistrarRecord{UserID: "registrar-thika", Username: "reg2", Role: entities.RoleRegistrar, Registry: "thika", Active: true})
	module.Store.SeedUser(ports.RegistrarRecord{UserID: "ric-1", Username: "ric1", Role: entities.RoleRegistrarInCharge, Registry: "nairobi-central", Active: true})
	return module
}

func createApplication(t *testing.T, module searchapplicationservice.Module) httptransport.ApplicationDTO {
	t.Helper()
	resp, err := module.Handler.CreateApplicationHandler(context.Background(), applicant, httptransport.CreateApplicationRequest{
		ParcelNumber: "NAIROBI/BLOCK1/742",
		Purpose:      "land transfer due diligence",
		County:       "Nairobi",
		Registry:     "nairobi-central",
	})
	if err != nil {
		t.Fatalf("create application failed: %v", err)
	}
	return resp.Application
}

func payApplication(t *testing.T, module searchapplicationservice.Module, applicationID string) httptransport.PaymentDTO {
	t.Helper()
	resp, err := module.Handler.RecordPaymentHandler(context.Background(), applicant, applicationID, httptransport.RecordPaymentRequest{
		Amount:           entities.SearchFeeAmount,
		PaymentReference: "MPESA-XY123",
	})
	if err != nil {
		t.Fatalf("record payment failed: %v", err)
	}
	return resp.Payment
}

func assignApplication(t *testing.T, module searchapplicationservice.Module, applicationID string) {
	t.Helper()
	_, err := module.Handler.AssignRegistrarHandler(context.Background(), inCharge, applicationID, httptransport.AssignRegistrarRequest{
		RegistrarID: "registrar-1",
	})
	if err != nil {
		t.Fatalf("assign registrar failed: %v", err)
	}
}

func TestApplicationApprovalWorkflow(t *testing.T) {
	module := newTestModule()

	created := createApplication(t, module)
	if created.Status != string(entities.ApplicationStatusPending) {
		t.Fatalf("expected pending after create, got %s", created.Status)
	}
	if !strings.HasPrefix(created.ReferenceNumber, "OS-") {
		t.Fatalf("expected OS reference number, got %s", created.ReferenceNumber)
	}

	payment := payApplication(t, module, created.ApplicationID)
	if payment.Amount != entities.SearchFeeAmount {
		t.Fatalf("expected fee of %d, got %d", entities.SearchFeeAmount, payment.Amount)
	}
	if !strings.HasPrefix(payment.InvoiceNumber, "INV-") {
		t.Fatalf("expected generated invoice number, got %s", payment.InvoiceNumber)
	}

	paid, err := module.Handler.GetApplicationHandler(context.Background(), applicant, created.ApplicationID)
	if err != nil {
		t.Fatalf("get application failed: %v", err)
	}
	if paid.Application.Status != string(entities.ApplicationStatusSubmitted) {
		t.Fatalf("expected submitted after payment, got %s", paid.Application.Status)
	}

	assignApplication(t, module, created.ApplicationID)

	signed := []byte("signed certificate body")
	approved, err := module.Handler.ApproveApplicationHandler(context.Background(), registrar, created.ApplicationID, httptransport.ApproveApplicationRequest{
		CertificateFile: signed,
	})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.Certificate.ApplicationID != created.ApplicationID {
		t.Fatalf("certificate bound to wrong application: %s", approved.Certificate.ApplicationID)
	}

	final, err := module.Handler.GetApplicationHandler(context.Background(), applicant, created.ApplicationID)
	if err != nil {
		t.Fatalf("get application failed: %v", err)
	}
	if final.Application.Status != string(entities.ApplicationStatusCompleted) {
		t.Fatalf("expected completed, got %s", final.Application.Status)
	}

	_, data, err := module.Handler.FetchCertificateHandler(context.Background(), applicant, created.ApplicationID)
	if err != nil {
		t.Fatalf("fetch certificate failed: %v", err)
	}
	if !bytes.Equal(data, signed) {
		t.Fatalf("certificate payload mismatch")
	}
}

func TestPaymentMustMatchSearchFee(t *testing.T) {
	module := newTestModule()
	created := createApplication(t, module)

	_, err := module.Handler.RecordPaymentHandler(context.Background(), applicant, created.ApplicationID, httptransport.RecordPaymentRequest{
		Amount: 900,
	})
	if !errors.Is(err, domainerrors.ErrInvalidPaymentAmount) {
		t.Fatalf("expected invalid payment amount, got %v", err)
	}

	payApplication(t, module, created.ApplicationID)

	_, err = module.Handler.RecordPaymentHandler(context.Background(), applicant, created.ApplicationID, httptransport.RecordPaymentRequest{
		Amount: entities.SearchFeeAmount,
	})
	if !errors.Is(err, domainerrors.ErrInvalidStatusTransition) {
		t.Fatalf("expected status transition error on second payment, got %v", err)
	}
}

func TestPaymentByNonOwnerRejected(t *testing.T) {
	module := newTestModule()
	created := createApplication(t, module)

	_, err := module.Handler.RecordPaymentHandler(context.Background(), otherUser, created.ApplicationID, httptransport.RecordPaymentRequest{
		Amount: entities.SearchFeeAmount,
	})
	if !errors.Is(err, domainerrors.ErrActorNotAuthorized) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestAssignmentAuthorizationRules(t *testing.T) {
	module := newTestModule()
	created := createApplication(t, module)
	payApplication(t, module, created.ApplicationID)

	ctx := context.Background()

	_, err := module.Handler.AssignRegistrarHandler(ctx, registrar, created.ApplicationID, httptransport.AssignRegistrarRequest{RegistrarID: "registrar-1"})
	if !errors.Is(err, domainerrors.ErrActorNotAuthorized) {
		t.Fatalf("expected authorization error for plain registrar, got %v", err)
	}

	foreignInCharge := entities.Actor{UserID: "ric-thika", Role: entities.RoleRegistrarInCharge, Registry: "thika"}
	_, err = module.Handler.AssignRegistrarHandler(ctx, foreignInCharge, created.ApplicationID, httptransport.AssignRegistrarRequest{RegistrarID: "registrar-1"})
	if !errors.Is(err, domainerrors.ErrActorNotAuthorized) {
		t.Fatalf("expected authorization error for foreign registry, got %v", err)
	}

	_, err = module.Handler.AssignRegistrarHandler(ctx, inCharge, created.ApplicationID, httptransport.AssignRegistrarRequest{RegistrarID: "registrar-thika"})
	if !errors.Is(err, domainerrors.ErrRegistrarNotFound) {
		t.Fatalf("expected registrar not found for other registry's registrar, got %v", err)
	}

	_, err = module.Handler.AssignRegistrarHandler(ctx, inCharge, created.ApplicationID, httptransport.AssignRegistrarRequest{RegistrarID: "no-such-user"})
	if !errors.Is(err, domainerrors.ErrRegistrarNotFound) {
		t.Fatalf("expected registrar not found for unknown user, got %v", err)
	}

	_, err = module.Handler.AssignRegistrarHandler(ctx, inCharge, created.ApplicationID, httptransport.AssignRegistrarRequest{RegistrarID: "ric-1"})
	if !errors.Is(err, domainerrors.ErrActorNotAuthorized) {
		t.Fatalf("expected authorization error when target is a registrar in charge, got %v", err)
	}

	assignApplication(t, module, created.ApplicationID)
	item, err := module.Handler.GetApplicationHandler(ctx, applicant, created.ApplicationID)
	if err != nil {
		t.Fatalf("get application failed: %v", err)
	}
	if item.Application.Status != string(entities.ApplicationStatusAssigned) || item.Application.AssignedToID != "registrar-1" {
		t.Fatalf("unexpected assignment state: %s assigned to %q", item.Application.Status, item.Application.AssignedToID)
	}
}

func TestAssignmentRequiresPaidApplication(t *testing.T) {
	module := newTestModule()
	created := createApplication(t, module)

	_, err := module.Handler.AssignRegistrarHandler(context.Background(), inCharge, created.ApplicationID, httptransport.AssignRegistrarRequest{RegistrarID: "registrar-1"})
	if !errors.Is(err, domainerrors.ErrInvalidStatusTransition) {
		t.Fatalf("expected status transition error for unpaid application, got %v", err)
	}
}

func TestRejectionRecordsReview(t *testing.T) {
	module := newTestModule()
	created := createApplication(t, module)
	payApplication(t, module, created.ApplicationID)
	assignApplication(t, module, created.ApplicationID)

	ctx := context.Background()

	_, err := module.Handler.RejectApplicationHandler(ctx, registrar, created.ApplicationID, httptransport.RejectApplicationRequest{Comment: "   "})
	if !errors.Is(err, domainerrors.ErrInvalidApplicationInput) {
		t.Fatalf("expected input error for blank comment, got %v", err)
	}

	rejected, err := module.Handler.RejectApplicationHandler(ctx, registrar, created.ApplicationID, httptransport.RejectApplicationRequest{Comment: "missing survey plan"})
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Review.Comment != "missing survey plan" {
		t.Fatalf("unexpected review comment: %q", rejected.Review.Comment)
	}

	item, err := module.Handler.GetApplicationHandler(ctx, applicant, created.ApplicationID)
	if err != nil {
		t.Fatalf("get application failed: %v", err)
	}
	if item.Application.Status != string(entities.ApplicationStatusRejected) {
		t.Fatalf("expected rejected, got %s", item.Application.Status)
	}

	reviews, err := module.Handler.ListReviewsHandler(ctx, applicant, created.ApplicationID)
	if err != nil {
		t.Fatalf("list reviews failed: %v", err)
	}
	if len(reviews.Items) != 1 {
		t.Fatalf("expected one review, got %d", len(reviews.Items))
	}

	// Terminal states are final in both directions.
	_, err = module.Handler.ApproveApplicationHandler(ctx, registrar, created.ApplicationID, httptransport.ApproveApplicationRequest{CertificateFile: []byte("late")})
	if !errors.Is(err, domainerrors.ErrInvalidStatusTransition) {
		t.Fatalf("expected status transition error after rejection, got %v", err)
	}

	_, _, err = module.Handler.FetchCertificateHandler(ctx, applicant, created.ApplicationID)
	if !errors.Is(err, domainerrors.ErrCertificateNotFound) {
		t.Fatalf("expected certificate not found for rejected application, got %v", err)
	}
}

func TestAdjudicationRestrictedToAssignedRegistrar(t *testing.T) {
	module := newTestModule()
	created := createApplication(t, module)
	payApplication(t, module, created.ApplicationID)
	assignApplication(t, module, created.ApplicationID)

	ctx := context.Background()
	stranger := entities.Actor{UserID: "registrar-thika", Role: entities.RoleRegistrar, Registry: "thika"}

	_, err := module.Handler.ApproveApplicationHandler(ctx, stranger, created.ApplicationID, httptransport.ApproveApplicationRequest{CertificateFile: []byte("x")})
	if !errors.Is(err, domainerrors.ErrActorNotAuthorized) {
		t.Fatalf("expected authorization error for unassigned registrar, got %v", err)
	}

	if _, err := module.Handler.ApproveApplicationHandler(ctx, registrar, created.ApplicationID, httptransport.ApproveApplicationRequest{CertificateFile: []byte("x")}); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	_, err = module.Handler.ApproveApplicationHandler(ctx, registrar, created.ApplicationID, httptransport.ApproveApplicationRequest{CertificateFile: []byte("x")})
	if !errors.Is(err, domainerrors.ErrInvalidStatusTransition) {
		t.Fatalf("expected status transition error on second approval, got %v", err)
	}
}

func TestCertificateHiddenFromNonOwner(t *testing.T) {
	module := newTestModule()
	created := createApplication(t, module)
	payApplication(t, module, created.ApplicationID)
	assignApplication(t, module, created.ApplicationID)
	if _, err := module.Handler.ApproveApplicationHandler(context.Background(), registrar, created.ApplicationID, httptransport.ApproveApplicationRequest{CertificateFile: []byte("x")}); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	// Other applicants learn nothing, not even that the certificate exists.
	_, _, err := module.Handler.FetchCertificateHandler(context.Background(), otherUser, created.ApplicationID)
	if !errors.Is(err, domainerrors.ErrCertificateNotFound) {
		t.Fatalf("expected certificate not found, got %v", err)
	}
}

func TestListVisibilityByRole(t *testing.T) {
	module := newTestModule()
	ctx := context.Background()

	mine := createApplication(t, module)
	payApplication(t, module, mine.ApplicationID)

	unpaidResp, err := module.Handler.CreateApplicationHandler(ctx, otherUser, httptransport.CreateApplicationRequest{
		ParcelNumber: "KIAMBU/SECT2/18",
		Purpose:      "boundary verification",
		County:       "Kiambu",
		Registry:     "nairobi-central",
	})
	if err != nil {
		t.Fatalf("create second application failed: %v", err)
	}

	ownList, err := module.Handler.ListApplicationsHandler(ctx, applicant, queries.ListFilter{})
	if err != nil {
		t.Fatalf("list own failed: %v", err)
	}
	if len(ownList.Items) != 1 || ownList.Items[0].ApplicationID != mine.ApplicationID {
		t.Fatalf("applicant list leaked other applications: %+v", ownList.Items)
	}

	// Unpaid applications stay invisible to the registrar in charge.
	submitted, err := module.Handler.ListSubmittedHandler(ctx, inCharge, queries.ListFilter{})
	if err != nil {
		t.Fatalf("list submitted failed: %v", err)
	}
	if len(submitted.Items) != 1 || submitted.Items[0].ApplicationID != mine.ApplicationID {
		t.Fatalf("expected only the paid application, got %+v", submitted.Items)
	}

	if _, err := module.Handler.ListSubmittedHandler(ctx, applicant, queries.ListFilter{}); !errors.Is(err, domainerrors.ErrActorNotAuthorized) {
		t.Fatalf("expected authorization error for applicant on submitted list, got %v", err)
	}

	// Unknown status filters match nothing rather than erroring.
	empty, err := module.Handler.ListApplicationsHandler(ctx, applicant, queries.ListFilter{Status: "galactic"})
	if err != nil {
		t.Fatalf("list with unknown status failed: %v", err)
	}
	if len(empty.Items) != 0 {
		t.Fatalf("expected empty result for unknown status, got %d", len(empty.Items))
	}

	assignApplication(t, module, mine.ApplicationID)
	assigned, err := module.Handler.ListAssignedHandler(ctx, registrar, queries.ListFilter{})
	if err != nil {
		t.Fatalf("list assigned failed: %v", err)
	}
	if len(assigned.Items) != 1 || assigned.Items[0].ApplicationID != mine.ApplicationID {
		t.Fatalf("unexpected assigned list: %+v", assigned.Items)
	}

	// The unpaid application is visible to no registry staff at all.
	if _, err := module.Handler.GetApplicationHandler(ctx, inCharge, unpaidResp.Application.ApplicationID); !errors.Is(err, domainerrors.ErrApplicationNotFound) {
		t.Fatalf("expected not found for unpaid application, got %v", err)
	}
}
