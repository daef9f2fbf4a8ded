package entities

import "strings"

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

// Actor is the authenticated caller every command receives explicitly.
// Role and registry are immutable facts assigned at user creation; all
// authorization decisions derive from them.
type Actor struct {
	UserID   string
	Role     Role
	County   string
	Registry string
}

func (a Actor) Valid() bool {
	return strings.TrimSpace(a.UserID) != "" && a.Role != ""
}
