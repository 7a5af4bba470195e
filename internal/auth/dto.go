package auth

import (
	"strings"

	"github.com/frahmantamala/timeclock/internal"
	"github.com/frahmantamala/timeclock/internal/core/common/validation"
)

// LoginDTO is the login form.
type LoginDTO struct {
	CPF      string
	Password string
}

func LoginDTOFromForm(get func(string) string) LoginDTO {
	return LoginDTO{
		CPF:      strings.TrimSpace(get("cpf")),
		Password: get("senha"),
	}
}

// Validate normalizes the CPF in place.
func (d *LoginDTO) Validate() *internal.AppError {
	cpf, cpfErr := validation.ValidateCPF("cpf", d.CPF)

	v := validation.NewValidator()
	v.Field("senha", d.Password).Required()
	if err := validation.Merge(cpfErr, v.Validate()); err != nil {
		return err
	}

	d.CPF = cpf
	return nil
}

// ManagerDTO creates a manager account from the command line.
type ManagerDTO struct {
	CPF      string
	Password string
}

func (d *ManagerDTO) Validate() *internal.AppError {
	cpf, cpfErr := validation.ValidateCPF("cpf", d.CPF)
	if err := validation.Merge(cpfErr, validation.ValidatePassword("senha", d.Password)); err != nil {
		return err
	}
	d.CPF = cpf
	return nil
}
