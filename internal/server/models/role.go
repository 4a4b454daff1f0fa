package models

type Role struct {
	ID             string
	Name           string
	NormalizedName string
}

const (
	RoleSuperAdmin = "SuperAdmin"
	RoleAdmin      = "Admin"
	RoleManager    = "Manager"
)
