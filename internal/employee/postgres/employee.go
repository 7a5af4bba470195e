package postgres

import (
	"context"
	"errors"

	employeeDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/user"
	"github.com/frahmantamala/timeclock/internal/employee"
	"gorm.io/gorm"
)

type EmployeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) employee.RepositoryAPI {
	return &EmployeeRepository{db: db}
}

func (r *EmployeeRepository) ListByCompany(ctx context.Context, companyID int64) ([]employee.Account, error) {
	var employees []*employeeDatamodel.Employee
	err := r.db.WithContext(ctx).
		Preload("Company").
		Where("company_id = ?", companyID).
		Order("name ASC").
		Find(&employees).Error
	if err != nil {
		return nil, err
	}
	if len(employees) == 0 {
		return []employee.Account{}, nil
	}

	ids := make([]int64, 0, len(employees))
	for _, e := range employees {
		ids = append(ids, e.ID)
	}

	var users []*userDatamodel.User
	if err := r.db.WithContext(ctx).Where("employee_id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	byEmployee := make(map[int64]*userDatamodel.User, len(users))
	for _, u := range users {
		if u.EmployeeID != nil {
			byEmployee[*u.EmployeeID] = u
		}
	}

	accounts := make([]employee.Account, 0, len(employees))
	for _, e := range employees {
		accounts = append(accounts, employee.Account{Employee: e, User: byEmployee[e.ID]})
	}
	return accounts, nil
}

func (r *EmployeeRepository) GetByID(ctx context.Context, id int64) (employee.Account, error) {
	var emp employeeDatamodel.Employee
	err := r.db.WithContext(ctx).Preload("Company").Where("id = ?", id).First(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return employee.Account{}, employee.ErrNotFound
		}
		return employee.Account{}, err
	}

	account := employee.Account{Employee: &emp}
	var user userDatamodel.User
	err = r.db.WithContext(ctx).Where("employee_id = ?", id).First(&user).Error
	switch {
	case err == nil:
		account.User = &user
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return employee.Account{}, err
	}
	return account, nil
}

func (r *EmployeeRepository) FindByEmail(ctx context.Context, email string) (*employeeDatamodel.Employee, error) {
	var emp employeeDatamodel.Employee
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&emp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, employee.ErrNotFound
		}
		return nil, err
	}
	return &emp, nil
}

func (r *EmployeeRepository) FindUserByCPF(ctx context.Context, cpf string) (*userDatamodel.User, error) {
	var user userDatamodel.User
	err := r.db.WithContext(ctx).Preload("Employee.Company").Where("cpf = ?", cpf).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, employee.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateAccount writes the employee and its user in one transaction.
func (r *EmployeeRepository) CreateAccount(ctx context.Context, emp *employeeDatamodel.Employee, user *userDatamodel.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Company").Create(emp).Error; err != nil {
			return err
		}
		user.EmployeeID = &emp.ID
		return tx.Omit("Employee").Create(user).Error
	})
}

func (r *EmployeeRepository) UpdateAccount(ctx context.Context, emp *employeeDatamodel.Employee, user *userDatamodel.User) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&employeeDatamodel.Employee{}).
			Where("id = ?", emp.ID).
			Updates(map[string]interface{}{
				"name":  emp.Name,
				"email": emp.Email,
			}).Error
		if err != nil {
			return err
		}
		return tx.Model(&userDatamodel.User{}).
			Where("id = ?", user.ID).
			Updates(map[string]interface{}{
				"cpf":           user.CPF,
				"password_hash": user.PasswordHash,
			}).Error
	})
}
