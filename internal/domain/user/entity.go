package user

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Role string

const (
	RoleSuperAdmin Role = "superadmin" // Top-level admin, sees everything
	RoleAdmin      Role = "admin"      // Manages leaves for their hierarchy
	RoleHR         Role = "hr"         // Global for people data, no tickets
	RoleManager    Role = "manager"    // Read-only view of their hierarchy
	RoleEmployee   Role = "employee"   // Self only
)

var knownRoles = map[string]Role{
	"superadmin": RoleSuperAdmin,
	"admin":      RoleAdmin,
	"hr":         RoleHR,
	"manager":    RoleManager,
	"employee":   RoleEmployee,
}

var roleFolder = cases.Fold()

// ParseRole is the single normalization point for role labels coming from
// tokens or storage. "Super Admin", "super_admin" and "SUPERADMIN" all map to
// RoleSuperAdmin. Anything unrecognized becomes RoleEmployee.
func ParseRole(raw string) Role {
	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '_', '-':
			return -1
		}
		return r
	}, raw)

	if role, ok := knownRoles[roleFolder.String(compact)]; ok {
		return role
	}
	return RoleEmployee
}

// Label returns the display form of the role, e.g. "Super Admin".
func (r Role) Label() string {
	switch r {
	case RoleSuperAdmin:
		return "Super Admin"
	case RoleHR:
		return "HR"
	}
	return cases.Title(language.English).String(string(r))
}

// IsManagerTier reports whether the role sees its reporting subtree.
func (r Role) IsManagerTier() bool {
	return r == RoleAdmin || r == RoleManager
}

type User struct {
	ID           string
	Name         string
	Email        string
	Role         Role
	ReportsTo    *string
	IsTechnician bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the caller as seen by the engine: who they are, their role,
// and their manager pointer.
type Identity struct {
	ID           string
	Name         string
	Email        string
	Role         Role
	ReportsTo    *string
	IsTechnician bool
}

// Valid reports whether the identity can be trusted for scoping.
func (i Identity) Valid() bool {
	return strings.TrimSpace(i.ID) != ""
}

func (i Identity) Is(role Role) bool {
	return i.Role == role
}

func (u User) Identity() Identity {
	return Identity{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		ReportsTo:    u.ReportsTo,
		IsTechnician: u.IsTechnician,
	}
}
