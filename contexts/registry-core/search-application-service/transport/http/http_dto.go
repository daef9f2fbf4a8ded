package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ApplicationDTO struct {
	ApplicationID   string `json:"application_id"`
	ReferenceNumber string `json:"reference_number"`
	ApplicantID     string `json:"applicant_id"`
	ParcelNumber    string `json:"parcel_number"`
	Purpose         string `json:"purpose"`
	County          string `json:"county"`
	Registry        string `json:"registry"`
	Status          string `json:"status"`
	SubmittedAt     string `json:"submitted_at"`
	AssignedToID    string `json:"assigned_to_id,omitempty"`
}

type CreateApplicationRequest struct {
	ParcelNumber string `json:"parcel_number"`
	Purpose      string `json:"purpose"`
	County       string `json:"county"`
	Registry     string `json:"registry"`
}

type CreateApplicationResponse struct {
	Application ApplicationDTO `json:"application"`
}

type ListApplicationsResponse struct {
	Items []ApplicationDTO `json:"items"`
}

type GetApplicationResponse struct {
	Application ApplicationDTO `json:"application"`
}

type RecordPaymentRequest struct {
	Amount           int    `json:"amount"`
	PaymentReference string `json:"payment_reference"`
}

type PaymentDTO struct {
	PaymentID        string `json:"payment_id"`
	ApplicationID    string `json:"application_id"`
	Amount           int    `json:"amount"`
	InvoiceNumber    string `json:"invoice_number"`
	PaymentReference string `json:"payment_reference"`
	PaidAt           string `json:"paid_at"`
}

type RecordPaymentResponse struct {
	Payment PaymentDTO `json:"payment"`
}

type GetPaymentResponse struct {
	Payment PaymentDTO `json:"payment"`
}

type AssignRegistrarRequest struct {
	RegistrarID string `json:"registrar_id"`
}

type AssignRegistrarResponse struct {
	Application ApplicationDTO `json:"application"`
}

type ApproveApplicationRequest struct {
	// CertificateFile is the signed certificate payload, base64 in JSON.
	CertificateFile []byte `json:"certificate_file"`
}

type CertificateDTO struct {
	CertificateID string `json:"certificate_id"`
	ApplicationID string `json:"application_id"`
	UploadedByID  string `json:"uploaded_by_id"`
	UploadedAt    string `json:"uploaded_at"`
}

type ApproveApplicationResponse struct {
	Certificate CertificateDTO `json:"certificate"`
}

type RejectApplicationRequest struct {
	Comment string `json:"comment"`
}

type ReviewDTO struct {
	ReviewID      string `json:"review_id"`
	ApplicationID string `json:"application_id"`
	ReviewerID    string `json:"reviewer_id"`
	Comment       string `json:"comment"`
	CreatedAt     string `json:"created_at"`
}

type RejectApplicationResponse struct {
	Review ReviewDTO `json:"review"`
}

type ListReviewsResponse struct {
	Items []ReviewDTO `json:"items"`
}
