package employee

import (
	"time"

	companyDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/company"
)

type Employee struct {
	ID        int64                     `gorm:"primaryKey"`
	Name      string                    `gorm:"column:name;size:100;not null"`
	Email     string                    `gorm:"column:email;size:254;uniqueIndex;not null"`
	CompanyID int64                     `gorm:"column:company_id;index;not null"`
	Company   *companyDatamodel.Company `gorm:"foreignKey:CompanyID"`
	CreatedAt time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (Employee) TableName() string {
	return "employees"
}
