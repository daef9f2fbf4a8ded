package entities

import (
	"strings"
	"time"
)

type Role string

const (
	RoleApplicant         Role = "normal"
	RoleRegistrar         Role = "registrar"
	RoleRegistrarInCharge Role = "registrar_in_charge"
)

func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleApplicant:
		return RoleApplicant, true
	case RoleRegistrar:
		return RoleRegistrar, true
	case RoleRegistrarInCharge:
		return RoleRegistrarInCharge, true
	default:
		return "", false
	}
}

// User is the registry account record. Role and registry are business facts
// fixed at creation; authorization throughout the system derives from them.
type User struct {
	UserID       string
	Username     string
	PasswordHash string
	County       string
	Registry     string
	Role         Role
	Active       bool
	CreatedAt    time.Time
}

func (u User) ValidateCreate() bool {
	if strings.TrimSpace(u.Username) == "" || strings.TrimSpace(u.County) == "" {
		return false
	}
	// Registry staff must belong to a registry; applicants need not.
	if u.Role == RoleRegistrar || u.Role == RoleRegistrarInCharge {
		return strings.TrimSpace(u.Registry) != ""
	}
	return true
}
