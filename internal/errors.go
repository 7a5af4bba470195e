package internal

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCodeRequired          ErrorCode = "REQUIRED"
	ErrCodeInvalidCPF        ErrorCode = "INVALID_CPF"
	ErrCodeInvalidPassword   ErrorCode = "INVALID_PASSWORD"
	ErrCodeInvalidPostalCode ErrorCode = "INVALID_POSTAL_CODE"
	ErrCodeInvalidEmail      ErrorCode = "INVALID_EMAIL"
	ErrCodeInvalidDate       ErrorCode = "INVALID_DATE"
	ErrCodeInvalidDateRange  ErrorCode = "INVALID_DATE_RANGE"

	ErrCodeDuplicateEmail ErrorCode = "DUPLICATE_EMAIL"
	ErrCodeDuplicateCPF   ErrorCode = "DUPLICATE_CPF"

	ErrCodeCompanyNotFound    ErrorCode = "COMPANY_NOT_FOUND"
	ErrCodeCompanyNotSelected ErrorCode = "COMPANY_NOT_SELECTED"
	ErrCodeEmployeeNotFound   ErrorCode = "EMPLOYEE_NOT_FOUND"
	ErrCodeEmployeeOutOfScope ErrorCode = "EMPLOYEE_OUT_OF_SCOPE"
	ErrCodeEmployeeOnly       ErrorCode = "EMPLOYEE_ONLY"
	ErrCodeSessionMismatch    ErrorCode = "SESSION_MISMATCH"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeAccessDenied       ErrorCode = "ACCESS_DENIED"
	ErrCodeInvalidCSRFToken   ErrorCode = "INVALID_CSRF_TOKEN"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// NonFieldErrorKey is the field name of errors that belong to the whole form.
const NonFieldErrorKey = "__all__"

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok {
			if len(validationErrors.Errors) == 1 {
				return validationErrors.Errors[0].Message
			} else if len(validationErrors.Errors) > 1 {
				messages := make([]string, len(validationErrors.Errors))
				for i, err := range validationErrors.Errors {
					messages[i] = err.Message
				}
				return strings.Join(messages, "; ")
			}
		}
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

// FieldErrors returns the validation messages grouped by field name.
func (e *AppError) FieldErrors() map[string][]string {
	out := make(map[string][]string)
	if details, ok := e.Details.(ValidationErrors); ok {
		for _, ve := range details.Errors {
			out[ve.Field] = append(out[ve.Field], ve.Message)
		}
	}
	return out
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

// NewNonFieldError is a validation error attached to the whole form.
func NewNonFieldError(message string, code ErrorCode) *AppError {
	return NewValidationFieldError(NonFieldErrorKey, message, code)
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// User-facing messages shared across pages.
const (
	MsgInvalidCredentials = "Usuário e/ou senha incorreto(s)!"
	MsgAccessDenied       = "Você não tem permissão para acessar esta página."
	MsgCompanyNotSelected = "É preciso acessar esta página a partir do menu, selecionando uma empresa!"
	MsgCompanyNotFound    = "Empresa não encontrada!"
	MsgEmployeeNotFound   = "Funcionário não encontrado, tente novamente."
	MsgEmployeeOutOfScope = "Funcionário não pertence a empresa selecionada!"
	MsgEmployeeOnly       = "Esta página é destinada apenas a funcionários"
	MsgSessionMismatch    = "Erro na integridade dos dados da página!"
	MsgInvalidCSRFToken   = "Sua sessão expirou, faça login novamente."
)

var (
	ErrInvalidCredentials = NewUnauthorizedError(MsgInvalidCredentials, ErrCodeInvalidCredentials)
	ErrAccessDenied       = NewForbiddenError(MsgAccessDenied, ErrCodeAccessDenied)
	ErrCompanyNotSelected = NewNotFoundError(MsgCompanyNotSelected, ErrCodeCompanyNotSelected)
	ErrCompanyNotFound    = NewNotFoundError(MsgCompanyNotFound, ErrCodeCompanyNotFound)
	ErrEmployeeNotFound   = NewNotFoundError(MsgEmployeeNotFound, ErrCodeEmployeeNotFound)
	ErrEmployeeOutOfScope = NewForbiddenError(MsgEmployeeOutOfScope, ErrCodeEmployeeOutOfScope)
	ErrEmployeeOnly       = NewForbiddenError(MsgEmployeeOnly, ErrCodeEmployeeOnly)
	ErrSessionMismatch    = NewForbiddenError(MsgSessionMismatch, ErrCodeSessionMismatch)
	ErrInvalidCSRFToken   = NewForbiddenError(MsgInvalidCSRFToken, ErrCodeInvalidCSRFToken)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsValidation reports whether err carries field-level validation details.
func IsValidation(err error) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Type == ErrorTypeValidation
}
