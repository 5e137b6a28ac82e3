package model

import "github.com/google/uuid"

type UserRole string

const (
	UserRoleAdmin    UserRole = "ADMIN"
	UserRoleManager  UserRole = "MANAGER"
	UserRoleDriver   UserRole = "DRIVER"
	UserRoleCustomer UserRole = "CUSTOMER"

	// UserRoleSystem marks changes made by internal processes such as the
	// predictive maintenance scanner. It is never issued in access tokens.
	UserRoleSystem UserRole = "SYSTEM"
)

// Principal is an already authenticated caller.
type Principal struct {
	UserID uuid.UUID
	Role   UserRole
}

func (p Principal) IsAdmin() bool {
	return p.Role == UserRoleAdmin
}

func (p Principal) IsManager() bool {
	return p.Role == UserRoleManager
}

func (p Principal) IsDriver() bool {
	return p.Role == UserRoleDriver
}

func (p Principal) IsCustomer() bool {
	return p.Role == UserRoleCustomer
}

func SystemPrincipal() Principal {
	return Principal{Role: UserRoleSystem}
}
