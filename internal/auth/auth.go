package auth

import (
	"time"

	"github.com/frahmantamala/timeclock/internal"
	userDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/user"
)

// User is an account able to log in. Managers may have no employee record.
type User struct {
	ID           int64
	CPF          string
	PasswordHash string
	IsManager    bool
	IsActive     bool
	EmployeeID   *int64
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) Principal() *internal.Principal {
	return &internal.Principal{
		UserID:     u.ID,
		CPF:        u.CPF,
		IsManager:  u.IsManager,
		EmployeeID: u.EmployeeID,
	}
}

// LandingPage is where a freshly authenticated principal is sent.
func LandingPage(p *internal.Principal) string {
	if p == nil || !p.Authenticated() {
		return LoginPath
	}
	if p.IsManager {
		return MenuPath
	}
	return OwnRecordsPath
}

const (
	LoginPath      = "/login/"
	MenuPath       = "/menu/"
	OwnRecordsPath = "/pontos/"
)

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		CPF:          u.CPF,
		PasswordHash: u.PasswordHash,
		IsManager:    u.IsManager,
		IsActive:     u.IsActive,
		EmployeeID:   u.EmployeeID,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		CPF:          u.CPF,
		PasswordHash: u.PasswordHash,
		IsManager:    u.IsManager,
		IsActive:     u.IsActive,
		EmployeeID:   u.EmployeeID,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
