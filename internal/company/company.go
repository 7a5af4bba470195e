package company

import (
	"fmt"
	"strings"
	"time"

	companyDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/company"
)

type Address struct {
	ID           int64
	Street       string
	Number       int
	Complement   *string
	Neighborhood string
	City         string
	State        string
	PostalCode   string
}

// String renders the address on one line, e.g. "Rua A, 10 - Centro, Recife/PE - CEP 50000-000".
func (a Address) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, %d", a.Street, a.Number)
	if a.Complement != nil && *a.Complement != "" {
		fmt.Fprintf(&b, " (%s)", *a.Complement)
	}
	fmt.Fprintf(&b, " - %s, %s/%s", a.Neighborhood, a.City, a.State)
	if len(a.PostalCode) == 8 {
		fmt.Fprintf(&b, " - CEP %s-%s", a.PostalCode[:5], a.PostalCode[5:])
	}
	return b.String()
}

type Company struct {
	ID        int64
	Name      string
	Address   Address
	CreatedAt time.Time
	UpdatedAt time.Time
}

func ToDataModel(c *Company) *companyDatamodel.Company {
	return &companyDatamodel.Company{
		ID:        c.ID,
		Name:      c.Name,
		AddressID: c.Address.ID,
		Address: &companyDatamodel.Address{
			ID:           c.Address.ID,
			Street:       c.Address.Street,
			Number:       c.Address.Number,
			Complement:   c.Address.Complement,
			Neighborhood: c.Address.Neighborhood,
			City:         c.Address.City,
			State:        c.Address.State,
			PostalCode:   c.Address.PostalCode,
		},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func FromDataModel(c *companyDatamodel.Company) *Company {
	out := &Company{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.Address != nil {
		out.Address = Address{
			ID:           c.Address.ID,
			Street:       c.Address.Street,
			Number:       c.Address.Number,
			Complement:   c.Address.Complement,
			Neighborhood: c.Address.Neighborhood,
			City:         c.Address.City,
			State:        c.Address.State,
			PostalCode:   c.Address.PostalCode,
		}
	}
	return out
}
