package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/timeclock/internal/attendance"
	attendanceDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/attendance"
	employeeDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/employee"
	"gorm.io/gorm"
)

type AttendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) attendance.RepositoryAPI {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) FindEmployeeByCPF(ctx context.Context, companyID int64, cpf string) (*employeeDatamodel.Employee, error) {
	var emp employeeDatamodel.Employee
	err := r.db.WithContext(ctx).
		Joins("JOIN users ON users.employee_id = employees.id").
		Where("users.cpf = ? AND employees.company_id = ?", cpf, companyID).
		First(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, attendance.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &emp, nil
}

func (r *AttendanceRepository) GetEmployee(ctx context.Context, id int64) (*employeeDatamodel.Employee, error) {
	var emp employeeDatamodel.Employee
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, attendance.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &emp, nil
}

func (r *AttendanceRepository) FindEmployeeByEmail(ctx context.Context, email string) (*employeeDatamodel.Employee, error) {
	var emp employeeDatamodel.Employee
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, attendance.ErrEmployeeNotFound
		}
		return nil, err
	}
	return &emp, nil
}

func (r *AttendanceRepository) FindOpen(ctx context.Context, employeeID int64) (*attendanceDatamodel.Record, error) {
	var rec attendanceDatamodel.Record
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND exit_at IS NULL", employeeID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, attendance.ErrNoOpenRecord
		}
		return nil, err
	}
	return &rec, nil
}

func (r *AttendanceRepository) Create(ctx context.Context, rec *attendanceDatamodel.Record) error {
	return r.db.WithContext(ctx).Omit("Employee").Create(rec).Error
}

func (r *AttendanceRepository) Close(ctx context.Context, id int64, exitAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&attendanceDatamodel.Record{}).
		Where("id = ? AND exit_at IS NULL", id).
		Update("exit_at", exitAt)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *AttendanceRepository) ListByEmployee(ctx context.Context, employeeID int64, start, end *time.Time) ([]*attendanceDatamodel.Record, error) {
	query := r.db.WithContext(ctx).Where("employee_id = ?", employeeID)
	if start != nil {
		query = query.Where("work_date >= ?", *start)
	}
	if end != nil {
		query = query.Where("work_date <= ?", *end)
	}

	var records []*attendanceDatamodel.Record
	err := query.Order("work_date ASC").Order("entry_at ASC").Find(&records).Error
	return records, err
}
