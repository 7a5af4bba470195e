package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	errors "github.com/frahmantamala/timeclock/internal"
)

const (
	CPFLength         = 11
	PostalCodeLength  = 8
	MinPasswordLength = 8

	MsgRequired         = "Este campo é obrigatório."
	MsgInvalidCPF       = "O CPF deve conter 11 dígitos numéricos"
	MsgInvalidPassword  = "A senha deve conter no mínimo 8 caracteres"
	MsgInvalidPostal    = "O CEP deve conter 8 dígitos numéricos"
	MsgInvalidEmail     = "Informe um endereço de email válido."
	MsgInvalidDateRange = "A data inicial não pode ser maior que a data final."
)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields    []*FieldValidator
	nonFields []errors.ValidationError
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]*FieldValidator, 0),
	}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := &FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return fv
}

// NonField records an error that belongs to the whole form.
func (v *ValidationBuilder) NonField(message string, code errors.ErrorCode) *ValidationBuilder {
	v.nonFields = append(v.nonFields, errors.ValidationError{
		Field:   errors.NonFieldErrorKey,
		Message: message,
		Code:    string(code),
	})
	return v
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		missing := false
		switch v := value.(type) {
		case string:
			missing = strings.TrimSpace(v) == ""
		case int:
			missing = v == 0
		case int64:
			missing = v == 0
		case *string:
			missing = v == nil || strings.TrimSpace(*v) == ""
		case time.Time:
			missing = v.IsZero()
		case *time.Time:
			missing = v == nil || v.IsZero()
		}
		if missing {
			return errors.NewValidationFieldError(fv.FieldName, MsgRequired, errors.ErrCodeRequired)
		}
		return nil
	})
	return fv
}

// MinLength counts characters, not bytes.
func (fv *FieldValidator) MinLength(min int, message string, code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok {
			if utf8.RuneCountInString(v) < min {
				if message == "" {
					message = fmt.Sprintf("Certifique-se de que o valor tenha no mínimo %d caracteres.", min)
				}
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok {
			if utf8.RuneCountInString(v) > max {
				message := fmt.Sprintf("Certifique-se de que o valor tenha no máximo %d caracteres.", max)
				return errors.NewValidationFieldError(fv.FieldName, message, errors.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

// Digits requires exactly n ASCII digits. Dots, dashes, slashes and spaces are allowed as punctuation.
func (fv *FieldValidator) Digits(n int, message string, code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok {
			if len(NormalizeDigits(v)) != n || strings.ContainsFunc(v, notDigitOrPunct) {
				return errors.NewValidationFieldError(fv.FieldName, message, code)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Email() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && v != "" {
			addr, err := mail.ParseAddress(v)
			if err != nil || addr.Address != v {
				return errors.NewValidationFieldError(fv.FieldName, MsgInvalidEmail, errors.ErrCodeInvalidEmail)
			}
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Custom(validator func(interface{}) *errors.AppError) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

// Validate runs every validator of every field and collects all failures.
func (v *ValidationBuilder) Validate() *errors.AppError {
	var validationErrors []errors.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			err := validator(field.Value)
			if err == nil {
				continue
			}
			if details, ok := err.Details.(errors.ValidationErrors); ok {
				validationErrors = append(validationErrors, details.Errors...)
				// one message per field is enough for a form
				break
			}
			validationErrors = append(validationErrors, errors.ValidationError{
				Field:   field.FieldName,
				Message: err.Message,
				Code:    string(err.Code),
			})
			break
		}
	}
	validationErrors = append(validationErrors, v.nonFields...)

	if len(validationErrors) > 0 {
		return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: validationErrors})
	}

	return nil
}

func notDigitOrPunct(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return false
	case r == '.', r == '-', r == '/', r == ' ':
		return false
	}
	return true
}

// NormalizeDigits drops every character that is not an ASCII digit.
func NormalizeDigits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateCPF returns the 11 digit form of raw.
func ValidateCPF(field, raw string) (string, *errors.AppError) {
	validator := NewValidator()
	validator.Field(field, raw).
		Required().
		Digits(CPFLength, MsgInvalidCPF, errors.ErrCodeInvalidCPF)
	if err := validator.Validate(); err != nil {
		return "", err
	}
	return NormalizeDigits(raw), nil
}

func ValidatePassword(field, password string) *errors.AppError {
	validator := NewValidator()
	validator.Field(field, password).
		Required().
		MinLength(MinPasswordLength, MsgInvalidPassword, errors.ErrCodeInvalidPassword)
	return validator.Validate()
}

// ValidatePostalCode returns the 8 digit form of raw.
func ValidatePostalCode(field, raw string) (string, *errors.AppError) {
	validator := NewValidator()
	validator.Field(field, raw).
		Required().
		Digits(PostalCodeLength, MsgInvalidPostal, errors.ErrCodeInvalidPostalCode)
	if err := validator.Validate(); err != nil {
		return "", err
	}
	return NormalizeDigits(raw), nil
}

// ValidateDateRange only compares when both bounds are present.
func ValidateDateRange(start, end *time.Time) *errors.AppError {
	validator := NewValidator()
	if start != nil && end != nil && start.After(*end) {
		validator.NonField(MsgInvalidDateRange, errors.ErrCodeInvalidDateRange)
	}
	return validator.Validate()
}

// Merge folds several validation results into one error, or nil when all passed.
func Merge(errs ...*errors.AppError) *errors.AppError {
	var all []errors.ValidationError
	for _, err := range errs {
		if err == nil {
			continue
		}
		if details, ok := err.Details.(errors.ValidationErrors); ok {
			all = append(all, details.Errors...)
			continue
		}
		all = append(all, errors.ValidationError{Field: errors.NonFieldErrorKey, Message: err.Message, Code: string(err.Code)})
	}
	if len(all) == 0 {
		return nil
	}
	return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
		WithDetails(errors.ValidationErrors{Errors: all})
}
