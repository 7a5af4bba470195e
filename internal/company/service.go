package company

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/timeclock/internal"
	companyDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/company"
)

var ErrNotFound = errors.New("company not found")

type RepositoryAPI interface {
	List(ctx context.Context) ([]*companyDatamodel.Company, error)
	GetByID(ctx context.Context, id int64) (*companyDatamodel.Company, error)
	Create(ctx context.Context, c *companyDatamodel.Company) error
	Update(ctx context.Context, c *companyDatamodel.Company) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context) ([]*Company, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list companies", "error", err)
		return nil, internal.NewInternalError("failed to list companies", err)
	}

	companies := make([]*Company, 0, len(rows))
	for _, row := range rows {
		companies = append(companies, FromDataModel(row))
	}
	return companies, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Company, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrCompanyNotFound
		}
		return nil, internal.NewInternalError("failed to load company", err)
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto CompanyDTO) (*Company, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c := &Company{}
	dto.Apply(c)

	row := ToDataModel(c)
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to create company", "error", err)
		return nil, internal.NewInternalError("failed to create company", err)
	}

	s.logger.InfoContext(ctx, "company created", "company_id", row.ID)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto CompanyDTO) (*Company, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dto.Apply(c)

	row := ToDataModel(c)
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "failed to update company", "company_id", id, "error", err)
		return nil, internal.NewInternalError("failed to update company", err)
	}

	s.logger.InfoContext(ctx, "company updated", "company_id", id)
	return FromDataModel(row), nil
}
