package entities

import "time"

// SearchFeeAmount is the fixed official search fee in Ksh. Payments are
// always recorded at exactly this amount regardless of client input.
const SearchFeeAmount = 1050

type Payment struct {
	PaymentID        string
	ApplicationID    string
	Amount           int
	InvoiceNumber    string
	PaymentReference string
	PaidAt           time.Time
}

type Certificate struct {
	CertificateID  string
	ApplicationID  string
	UploadedByID   string
	SignedFileRef  string
	UploadedAt     time.Time
}

type Review struct {
	ReviewID      string
	ApplicationID string
	ReviewerID    string
	Comment       string
	CreatedAt     time.Time
}
