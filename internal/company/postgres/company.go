package postgres

import (
	"context"
	"errors"

	"github.com/frahmantamala/timeclock/internal/company"
	companyDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/company"
	"gorm.io/gorm"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) company.RepositoryAPI {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) List(ctx context.Context) ([]*companyDatamodel.Company, error) {
	var companies []*companyDatamodel.Company
	err := r.db.WithContext(ctx).Preload("Address").Order("name ASC").Find(&companies).Error
	return companies, err
}

func (r *CompanyRepository) GetByID(ctx context.Context, id int64) (*companyDatamodel.Company, error) {
	var c companyDatamodel.Company
	err := r.db.WithContext(ctx).Preload("Address").Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, company.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Create inserts the address first, then the company pointing at it.
func (r *CompanyRepository) Create(ctx context.Context, c *companyDatamodel.Company) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c.Address).Error; err != nil {
			return err
		}
		c.AddressID = c.Address.ID
		return tx.Omit("Address").Create(c).Error
	})
}

func (r *CompanyRepository) Update(ctx context.Context, c *companyDatamodel.Company) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(c.Address).
			Select("street", "number", "complement", "neighborhood", "city", "state", "postal_code").
			Updates(c.Address).Error
		if err != nil {
			return err
		}
		return tx.Model(&companyDatamodel.Company{}).
			Where("id = ?", c.ID).
			Update("name", c.Name).Error
	})
}
