package employee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/timeclock/internal"
	"github.com/frahmantamala/timeclock/internal/company"
	"github.com/frahmantamala/timeclock/internal/core/common/validation"
	employeeDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/user"
	"github.com/frahmantamala/timeclock/internal/database"
)

var ErrNotFound = errors.New("employee not found")

const (
	MsgDuplicateEmail      = "Já há um email registrado com este nome e domínio."
	MsgDuplicateCPF        = "Já existe um funcionário registrado com este CPF na empresa %s"
	MsgDuplicateManagerCPF = "Já existe um usuário registrado com este CPF."
	emailUniqueIndex       = "idx_employees_email"
	cpfUniqueIndex         = "idx_users_cpf"
)

type RepositoryAPI interface {
	ListByCompany(ctx context.Context, companyID int64) ([]Account, error)
	GetByID(ctx context.Context, id int64) (Account, error)
	FindByEmail(ctx context.Context, email string) (*employeeDatamodel.Employee, error)
	// FindUserByCPF preloads the employee and its company, when there is one.
	FindUserByCPF(ctx context.Context, cpf string) (*userDatamodel.User, error)
	CreateAccount(ctx context.Context, emp *employeeDatamodel.Employee, user *userDatamodel.User) error
	UpdateAccount(ctx context.Context, emp *employeeDatamodel.Employee, user *userDatamodel.User) error
}

type CompanyReader interface {
	Get(ctx context.Context, id int64) (*company.Company, error)
}

type PasswordHasher interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) error
}

type Service struct {
	repo      RepositoryAPI
	companies CompanyReader
	hasher    PasswordHasher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, companies CompanyReader, hasher PasswordHasher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		companies: companies,
		hasher:    hasher,
		logger:    logger,
	}
}

// Company resolves a company selected in the session.
func (s *Service) Company(ctx context.Context, id int64) (*company.Company, error) {
	return s.companies.Get(ctx, id)
}

func (s *Service) ListByCompany(ctx context.Context, companyID int64) ([]*Employee, error) {
	accounts, err := s.repo.ListByCompany(ctx, companyID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list employees", "company_id", companyID, "error", err)
		return nil, internal.NewInternalError("failed to list employees", err)
	}

	employees := make([]*Employee, 0, len(accounts))
	for _, a := range accounts {
		employees = append(employees, FromAccount(a))
	}
	return employees, nil
}

// Get loads an employee of companyID; employees of other companies are refused.
func (s *Service) Get(ctx context.Context, companyID, employeeID int64) (*Employee, error) {
	account, err := s.account(ctx, companyID, employeeID)
	if err != nil {
		return nil, err
	}
	return FromAccount(account), nil
}

func (s *Service) CreateEmployee(ctx context.Context, companyID int64, dto CreateEmployeeDTO) (*Employee, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.companies.Get(ctx, companyID); err != nil {
		return nil, err
	}

	emailErr, err := s.checkEmail(ctx, dto.Email, 0)
	if err != nil {
		return nil, err
	}
	cpfErr, err := s.checkCPF(ctx, dto.CPF, 0)
	if err != nil {
		return nil, err
	}
	if err := validation.Merge(emailErr, cpfErr); err != nil {
		return nil, err
	}

	hash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	emp := &employeeDatamodel.Employee{
		Name:      dto.Name,
		Email:     dto.Email,
		CompanyID: companyID,
	}
	user := &userDatamodel.User{
		CPF:          dto.CPF,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.repo.CreateAccount(ctx, emp, user); err != nil {
		if conflict := s.conflictError(ctx, err, dto.CPF); conflict != nil {
			return nil, conflict
		}
		s.logger.ErrorContext(ctx, "failed to create employee", "company_id", companyID, "error", err)
		return nil, internal.NewInternalError("failed to create employee", err)
	}

	s.logger.InfoContext(ctx, "employee created", "employee_id", emp.ID, "user_id", user.ID, "company_id", companyID)
	return FromAccount(Account{Employee: emp, User: user}), nil
}

func (s *Service) UpdateEmployee(ctx context.Context, companyID, employeeID int64, dto UpdateEmployeeDTO) (*Employee, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	account, err := s.account(ctx, companyID, employeeID)
	if err != nil {
		return nil, err
	}

	emailErr, err := s.checkEmail(ctx, dto.Email, account.Employee.ID)
	if err != nil {
		return nil, err
	}
	cpfErr, err := s.checkCPF(ctx, dto.CPF, account.User.ID)
	if err != nil {
		return nil, err
	}
	if err := validation.Merge(emailErr, cpfErr); err != nil {
		return nil, err
	}

	account.Employee.Name = dto.Name
	account.Employee.Email = dto.Email
	account.User.CPF = dto.CPF

	// only a different password is hashed again
	if dto.Password != "" && s.hasher.VerifyPassword(account.User.PasswordHash, dto.Password) != nil {
		hash, err := s.hasher.HashPassword(dto.Password)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		account.User.PasswordHash = hash
		s.logger.InfoContext(ctx, "employee password changed", "employee_id", employeeID)
	}

	if err := s.repo.UpdateAccount(ctx, account.Employee, account.User); err != nil {
		if conflict := s.conflictError(ctx, err, dto.CPF); conflict != nil {
			return nil, conflict
		}
		s.logger.ErrorContext(ctx, "failed to update employee", "employee_id", employeeID, "error", err)
		return nil, internal.NewInternalError("failed to update employee", err)
	}

	s.logger.InfoContext(ctx, "employee updated", "employee_id", employeeID, "company_id", companyID)
	return FromAccount(account), nil
}

func (s *Service) account(ctx context.Context, companyID, employeeID int64) (Account, error) {
	account, err := s.repo.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Account{}, internal.ErrEmployeeNotFound
		}
		return Account{}, internal.NewInternalError("failed to load employee", err)
	}
	if account.Employee.CompanyID != companyID {
		s.logger.WarnContext(ctx, "employee outside selected company",
			"employee_id", employeeID,
			"employee_company_id", account.Employee.CompanyID,
			"company_id", companyID)
		return Account{}, internal.ErrEmployeeOutOfScope
	}
	if account.User == nil {
		return Account{}, internal.NewInternalError("employee without login", fmt.Errorf("employee %d has no user", employeeID))
	}
	return account, nil
}

// checkEmail reports a field error when another employee than exceptID uses email.
func (s *Service) checkEmail(ctx context.Context, email string, exceptID int64) (*internal.AppError, error) {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, internal.NewInternalError("failed to check email", err)
	}
	if existing.ID == exceptID {
		return nil, nil
	}
	return internal.NewValidationFieldError("email", MsgDuplicateEmail, internal.ErrCodeDuplicateEmail), nil
}

// checkCPF reports a field error naming the company of the account already using cpf.
func (s *Service) checkCPF(ctx context.Context, cpf string, exceptUserID int64) (*internal.AppError, error) {
	existing, err := s.repo.FindUserByCPF(ctx, cpf)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, internal.NewInternalError("failed to check cpf", err)
	}
	if existing.ID == exceptUserID {
		return nil, nil
	}
	return duplicateCPFError(existing), nil
}

func duplicateCPFError(existing *userDatamodel.User) *internal.AppError {
	if existing.Employee != nil && existing.Employee.Company != nil {
		msg := fmt.Sprintf(MsgDuplicateCPF, existing.Employee.Company.Name)
		return internal.NewValidationFieldError("cpf", msg, internal.ErrCodeDuplicateCPF)
	}
	return internal.NewValidationFieldError("cpf", MsgDuplicateManagerCPF, internal.ErrCodeDuplicateCPF)
}

// conflictError maps unique violations that raced past the checks onto the same field errors.
func (s *Service) conflictError(ctx context.Context, err error, cpf string) *internal.AppError {
	switch {
	case database.IsUniqueViolation(err, emailUniqueIndex):
		s.logger.WarnContext(ctx, "email taken concurrently")
		return internal.NewValidationFieldError("email", MsgDuplicateEmail, internal.ErrCodeDuplicateEmail)
	case database.IsUniqueViolation(err, cpfUniqueIndex):
		s.logger.WarnContext(ctx, "cpf taken concurrently")
		if existing, lookupErr := s.repo.FindUserByCPF(ctx, cpf); lookupErr == nil {
			return duplicateCPFError(existing)
		}
		return internal.NewValidationFieldError("cpf", MsgDuplicateManagerCPF, internal.ErrCodeDuplicateCPF)
	}
	return nil
}
