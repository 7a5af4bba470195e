package employee

import (
	"strings"

	"github.com/frahmantamala/timeclock/internal"
	"github.com/frahmantamala/timeclock/internal/core/common/validation"
)

type CreateEmployeeDTO struct {
	Name     string
	Email    string
	CPF      string
	Password string
}

func CreateEmployeeDTOFromForm(get func(string) string) CreateEmployeeDTO {
	return CreateEmployeeDTO{
		Name:     strings.TrimSpace(get("nome")),
		Email:    strings.TrimSpace(get("email")),
		CPF:      strings.TrimSpace(get("cpf")),
		Password: get("senha"),
	}
}

// Validate normalizes the CPF in place.
func (d *CreateEmployeeDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("nome", d.Name).Required().MaxLength(100)
	v.Field("email", d.Email).Required().MaxLength(254).Email()

	cpf, cpfErr := validation.ValidateCPF("cpf", d.CPF)
	passwordErr := validation.ValidatePassword("senha", d.Password)
	if err := validation.Merge(v.Validate(), cpfErr, passwordErr); err != nil {
		return err
	}

	d.CPF = cpf
	return nil
}

// UpdateEmployeeDTO leaves the password untouched when Password is empty.
type UpdateEmployeeDTO struct {
	Name     string
	Email    string
	CPF      string
	Password string
}

func UpdateEmployeeDTOFromForm(get func(string) string) UpdateEmployeeDTO {
	return UpdateEmployeeDTO(CreateEmployeeDTOFromForm(get))
}

func (d *UpdateEmployeeDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("nome", d.Name).Required().MaxLength(100)
	v.Field("email", d.Email).Required().MaxLength(254).Email()

	cpf, cpfErr := validation.ValidateCPF("cpf", d.CPF)
	var passwordErr *internal.AppError
	if d.Password != "" {
		passwordErr = validation.ValidatePassword("senha", d.Password)
	}
	if err := validation.Merge(v.Validate(), cpfErr, passwordErr); err != nil {
		return err
	}

	d.CPF = cpf
	return nil
}
