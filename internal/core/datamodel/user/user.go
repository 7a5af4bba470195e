package user

import (
	"time"

	employeeDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/employee"
)

type User struct {
	ID           int64                       `gorm:"primaryKey"`
	CPF          string                      `gorm:"column:cpf;size:11;uniqueIndex;not null"`
	PasswordHash string                      `gorm:"column:password_hash;not null"`
	IsManager    bool                        `gorm:"column:is_manager;not null;default:false"`
	IsActive     bool                        `gorm:"column:is_active;not null"`
	EmployeeID   *int64                      `gorm:"column:employee_id;uniqueIndex"`
	Employee     *employeeDatamodel.Employee `gorm:"foreignKey:EmployeeID"`
	LastLoginAt  *time.Time                  `gorm:"column:last_login_at"`
	CreatedAt    time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
