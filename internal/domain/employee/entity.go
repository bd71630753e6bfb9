package employee

import "time"

type Role string

const (
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleEmployee || r == RoleAdmin
}

type Employee struct {
	ID           string
	EmployeeCode string
	FullName     string
	Email        string
	BranchID     string
	Role         Role
	JoiningDate  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// DTO
	BranchName *string
}

// Actor is the authenticated identity an operation runs on behalf of.
type Actor struct {
	EmployeeID string
	Role       Role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Validate fails when no identity was established by the caller.
func (a Actor) Validate() error {
	if a.EmployeeID == "" || !a.Role.IsValid() {
		return ErrActorRequired
	}
	return nil
}

func (a Actor) RequireAdmin() error {
	if err := a.Validate(); err != nil {
		return err
	}
	if !a.IsAdmin() {
		return ErrAdminRequired
	}
	return nil
}

// CanAccess reports whether the actor may read records owned by employeeID.
func (a Actor) CanAccess(employeeID string) bool {
	return a.IsAdmin() || a.EmployeeID == employeeID
}
