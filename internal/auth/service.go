package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/timeclock/internal"
	"github.com/frahmantamala/timeclock/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/user"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrCPFTaken     = errors.New("cpf already registered")
)

type RepositoryAPI interface {
	GetByCPF(ctx context.Context, cpf string) (*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

// Service is the main auth service with dependencies
type Service struct {
	repo       RepositoryAPI
	bcryptCost int
	dummyHash  []byte
	now        func() time.Time
	logger     *slog.Logger
}

// NewService creates a new auth service
func NewService(repo RepositoryAPI, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	// compared against when the CPF is unknown so both failure paths cost the same
	dummy, _ := bcrypt.GenerateFromPassword([]byte("timeclock-unknown-user"), bcryptCost)
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
		now:        time.Now,
		logger:     logger,
	}
}

// Authenticate validates credentials and returns the principal.
// Unknown CPF, inactive account and wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*internal.Principal, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByCPF(ctx, dto.CPF)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(dto.Password))
			s.logger.InfoContext(ctx, "login refused", "reason", "unknown cpf")
			return nil, internal.ErrInvalidCredentials
		}
		return nil, internal.NewInternalError("failed to load user", err)
	}

	user := FromDataModel(row)
	if err := s.VerifyPassword(user.PasswordHash, dto.Password); err != nil {
		s.logger.InfoContext(ctx, "login refused", "reason", "password mismatch", "user_id", user.ID)
		return nil, internal.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.logger.InfoContext(ctx, "login refused", "reason", "inactive", "user_id", user.ID)
		return nil, internal.ErrInvalidCredentials
	}
	if !user.IsManager && user.EmployeeID == nil {
		s.logger.WarnContext(ctx, "login refused", "reason", "employee account without employee", "user_id", user.ID)
		return nil, internal.ErrInvalidCredentials
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.WarnContext(ctx, "failed to record last login", "user_id", user.ID, "error", err)
	}

	s.logger.InfoContext(ctx, "login succeeded", "user_id", user.ID, "manager", user.IsManager)
	return user.Principal(), nil
}

// PrincipalByUserID reloads the principal of a session; inactive users no longer resolve.
func (s *Service) PrincipalByUserID(ctx context.Context, userID int64) (*internal.Principal, error) {
	row, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user := FromDataModel(row)
	if !user.IsActive {
		return nil, ErrUserNotFound
	}
	return user.Principal(), nil
}

// CreateManager registers a manager account without employee record.
func (s *Service) CreateManager(ctx context.Context, dto ManagerDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByCPF(ctx, dto.CPF); err == nil {
		return nil, ErrCPFTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("lookup cpf: %w", err)
	}

	hash, err := s.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	user := &User{
		CPF:          dto.CPF,
		PasswordHash: hash,
		IsManager:    true,
		IsActive:     true,
	}
	row := ToDataModel(user)
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("create manager: %w", err)
	}

	s.logger.InfoContext(ctx, "manager created", "user_id", row.ID)
	return FromDataModel(row), nil
}

// FindByCPF loads the account of a CPF, formatted or not.
func (s *Service) FindByCPF(ctx context.Context, cpf string) (*User, error) {
	row, err := s.repo.GetByCPF(ctx, validation.NormalizeDigits(cpf))
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *Service) VerifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
