package user

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of caller roles. Authorization decisions switch on
// this type, never on raw strings from the token.
type Role string

const (
	RoleEmployee Role = "user"
	RoleAdmin    Role = "admin"
)

// Department represents a fixed corporate department
type Department string

const (
	DeptEngineering Department = "Engineering"
	DeptProduct     Department = "Product"
	DeptDesign      Department = "Design"
	DeptMarketing   Department = "Marketing"
	DeptSales       Department = "Sales"
	DeptFinance     Department = "Finance"
	DeptHR          Department = "HR"
	DeptOperations  Department = "Operations"
	DeptLegal       Department = "Legal"
)

// User represents a corporate employee account
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	EmployeeID   string     `json:"employee_id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Phone        string     `json:"phone"`
	Department   Department `json:"department"`
	Role         Role       `json:"role"`
	Active       bool       `json:"active"`
	PasswordHash string     `json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsValid validates the role
func (r Role) IsValid() bool {
	switch r {
	case RoleEmployee, RoleAdmin:
		return true
	}
	return false
}

// IsValid validates the department
func (d Department) IsValid() bool {
	switch d {
	case DeptEngineering, DeptProduct, DeptDesign, DeptMarketing,
		DeptSales, DeptFinance, DeptHR, DeptOperations, DeptLegal:
		return true
	}
	return false
}

// IsAdmin returns true if the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FullName returns the user's display name
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// CanAccess returns true if the user may read or mutate a resource owned
// by ownerID. Admins always retain override access.
func (u *User) CanAccess(ownerID uuid.UUID) bool {
	return u.IsAdmin() || u.ID == ownerID
}
