package attendance

import (
	"strings"
	"time"

	"github.com/frahmantamala/timeclock/internal"
	"github.com/frahmantamala/timeclock/internal/core/common/validation"
	"github.com/frahmantamala/timeclock/internal/report"
)

const (
	dateLayout       = "2006-01-02"
	msgInvalidDate   = "Informe uma data válida."
	msgInvalidFormat = "Formato de exportação inválido."
)

type ClockDTO struct {
	CPF string
}

func ClockDTOFromForm(get func(string) string) ClockDTO {
	return ClockDTO{CPF: strings.TrimSpace(get("cpf"))}
}

func (d *ClockDTO) Validate() *internal.AppError {
	cpf, err := validation.ValidateCPF("cpf", d.CPF)
	if err != nil {
		return err
	}
	d.CPF = cpf
	return nil
}

// FilterDTO is an inclusive date range; a nil bound leaves that side open.
type FilterDTO struct {
	Start  *time.Time
	End    *time.Time
	Format string
}

// FilterDTOFromForm parses the filter form. Unparseable dates are reported as field errors.
func FilterDTOFromForm(get func(string) string) (FilterDTO, *internal.AppError) {
	var dto FilterDTO
	var errs []*internal.AppError

	parse := func(field string) *time.Time {
		raw := strings.TrimSpace(get(field))
		if raw == "" {
			return nil
		}
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			errs = append(errs, internal.NewValidationFieldError(field, msgInvalidDate, internal.ErrCodeInvalidDate))
			return nil
		}
		return &t
	}

	dto.Start = parse("data_inicial")
	dto.End = parse("data_final")
	dto.Format = strings.ToLower(strings.TrimSpace(get("formato")))

	if err := validation.Merge(errs...); err != nil {
		return dto, err
	}
	return dto, nil
}

func (d *FilterDTO) Validate() *internal.AppError {
	var formatErr *internal.AppError
	switch d.Format {
	case "", report.FormatPDF, report.FormatXLSX:
	default:
		formatErr = internal.NewValidationFieldError("formato", msgInvalidFormat, internal.ErrCodeValidationFailed)
	}
	return validation.Merge(formatErr, validation.ValidateDateRange(d.Start, d.End))
}

// Export reports whether a document was requested instead of the page.
func (d *FilterDTO) Export() bool {
	return d.Format != ""
}
