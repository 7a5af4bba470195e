package attendance

import (
	"time"

	employeeDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/employee"
)

// OpenRecordIndex allows a single record without exit per employee.
const OpenRecordIndex = "idx_attendance_records_open"

type Record struct {
	ID         int64                       `gorm:"primaryKey"`
	EmployeeID int64                       `gorm:"column:employee_id;index;not null"`
	Employee   *employeeDatamodel.Employee `gorm:"foreignKey:EmployeeID"`
	WorkDate   time.Time                   `gorm:"column:work_date;type:date;index;not null"`
	EntryAt    time.Time                   `gorm:"column:entry_at;not null"`
	ExitAt     *time.Time                  `gorm:"column:exit_at"`
	CreatedAt  time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}

func (Record) TableName() string {
	return "attendance_records"
}
