package company

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/frahmantamala/timeclock/internal"
	"github.com/frahmantamala/timeclock/internal/core/common/validation"
)

const msgInvalidNumber = "Informe um número inteiro."

// CompanyDTO is the company form, field names as posted.
type CompanyDTO struct {
	Name         string
	Street       string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	State        string
	PostalCode   string
}

func CompanyDTOFromForm(get func(string) string) CompanyDTO {
	return CompanyDTO{
		Name:         strings.TrimSpace(get("nome")),
		Street:       strings.TrimSpace(get("logradouro")),
		Number:       strings.TrimSpace(get("numero")),
		Complement:   strings.TrimSpace(get("complemento")),
		Neighborhood: strings.TrimSpace(get("bairro")),
		City:         strings.TrimSpace(get("cidade")),
		State:        strings.TrimSpace(get("estado")),
		PostalCode:   strings.TrimSpace(get("cep")),
	}
}

// FormValues fills the edit form with the stored company.
func FormValues(c *Company) url.Values {
	values := url.Values{}
	values.Set("nome", c.Name)
	values.Set("logradouro", c.Address.Street)
	values.Set("numero", strconv.Itoa(c.Address.Number))
	if c.Address.Complement != nil {
		values.Set("complemento", *c.Address.Complement)
	}
	values.Set("bairro", c.Address.Neighborhood)
	values.Set("cidade", c.Address.City)
	values.Set("estado", c.Address.State)
	values.Set("cep", c.Address.PostalCode)
	return values
}

// Validate normalizes the postal code in place.
func (d *CompanyDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("nome", d.Name).Required().MaxLength(100)
	v.Field("logradouro", d.Street).Required().MaxLength(150)
	v.Field("numero", d.Number).Required().Custom(func(value interface{}) *internal.AppError {
		n, err := strconv.Atoi(value.(string))
		if err != nil || n < 0 {
			return internal.NewValidationFieldError("numero", msgInvalidNumber, internal.ErrCodeValidationFailed)
		}
		return nil
	})
	v.Field("complemento", d.Complement).MaxLength(150)
	v.Field("bairro", d.Neighborhood).Required().MaxLength(100)
	v.Field("cidade", d.City).Required().MaxLength(100)
	v.Field("estado", d.State).Required().MaxLength(50)

	postal, postalErr := validation.ValidatePostalCode("cep", d.PostalCode)
	if err := validation.Merge(v.Validate(), postalErr); err != nil {
		return err
	}

	d.PostalCode = postal
	return nil
}

// Apply copies a validated form onto c.
func (d CompanyDTO) Apply(c *Company) {
	number, _ := strconv.Atoi(d.Number)
	c.Name = d.Name
	c.Address.Street = d.Street
	c.Address.Number = number
	c.Address.Complement = nil
	if d.Complement != "" {
		complement := d.Complement
		c.Address.Complement = &complement
	}
	c.Address.Neighborhood = d.Neighborhood
	c.Address.City = d.City
	c.Address.State = d.State
	c.Address.PostalCode = d.PostalCode
}
