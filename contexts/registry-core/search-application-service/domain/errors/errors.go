package errors

import "errors"

var (
	ErrApplicationNotFound     = errors.New("application not found")
	ErrCertificateNotFound     = errors.New("certificate not found")
	ErrRegistrarNotFound       = errors.New("registrar not found in the application's registry")
	ErrInvalidApplicationInput = errors.New("invalid application input")
	ErrInvalidPaymentAmount    = errors.New("payment amount must be exactly Ksh 1050")
	ErrActorNotAuthorized      = errors.New("actor is not authorized")
	ErrInvalidStatusTransition = errors.New("operation not allowed in current application status")
	ErrDuplicateInvoice        = errors.New("invoice number already exists")
)
