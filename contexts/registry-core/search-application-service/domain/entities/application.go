package entities

import (
	"strings"
	"time"
)

type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusSubmitted ApplicationStatus = "submitted"
	ApplicationStatusAssigned  ApplicationStatus = "assigned"
	// ApplicationStatusVerified is reserved for a future verification step.
	// No operation currently transitions into it.
	ApplicationStatusVerified  ApplicationStatus = "verified"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
	ApplicationStatusCompleted ApplicationStatus = "completed"
)

// ParseApplicationStatus normalizes free-form status input at the boundary.
// Internally status is always one of the closed enum values.
func ParseApplicationStatus(raw string) (ApplicationStatus, bool) {
	switch ApplicationStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case ApplicationStatusPending:
		return ApplicationStatusPending, true
	case ApplicationStatusSubmitted:
		return ApplicationStatusSubmitted, true
	case ApplicationStatusAssigned:
		return ApplicationStatusAssigned, true
	case ApplicationStatusVerified:
		return ApplicationStatusVerified, true
	case ApplicationStatusRejected:
		return ApplicationStatusRejected, true
	case ApplicationStatusCompleted:
		return ApplicationStatusCompleted, true
	default:
		return "", false
	}
}

func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusCompleted || s == ApplicationStatusRejected
}

// Assignable reports whether a registrar may be assigned in this status.
// Covers both first assignment and reassignment.
func (s ApplicationStatus) Assignable() bool {
	return s == ApplicationStatusSubmitted || s == ApplicationStatusAssigned
}

type Application struct {
	ApplicationID   string
	ReferenceNumber string
	ApplicantID     string
	ParcelNumber    string
	Purpose         string
	County          string
	Registry        string
	Status          ApplicationStatus
	SubmittedAt     time.Time
	AssignedToID    string
	UpdatedAt       time.Time
}

func (a Application) ValidateCreate() bool {
	return strings.TrimSpace(a.ApplicantID) != "" &&
		strings.TrimSpace(a.ParcelNumber) != "" &&
		strings.TrimSpace(a.Purpose) != "" &&
		strings.TrimSpace(a.County) != "" &&
		strings.TrimSpace(a.Registry) != ""
}
