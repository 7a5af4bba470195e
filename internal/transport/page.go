package transport

import (
	"net/url"

	"github.com/frahmantamala/timeclock/internal"
	"github.com/frahmantamala/timeclock/internal/session"
)

// Page is the data every template receives.
type Page struct {
	Title     string
	Principal *internal.Principal
	CSRFToken string
	Flashes   []session.Flash
	Form      *Form
	Data      interface{}
}

// Form keeps submitted values and their validation messages for re-rendering.
type Form struct {
	Values url.Values
	Errors map[string][]string
}

func NewForm(values url.Values) *Form {
	if values == nil {
		values = url.Values{}
	}
	return &Form{Values: values, Errors: map[string][]string{}}
}

// FormWithError attaches the field errors carried by err, if any.
func FormWithError(values url.Values, err error) *Form {
	f := NewForm(values)
	if appErr, ok := internal.IsAppError(err); ok {
		for field, messages := range appErr.FieldErrors() {
			f.Errors[field] = append(f.Errors[field], messages...)
		}
		if len(f.Errors) == 0 {
			f.Errors[internal.NonFieldErrorKey] = []string{appErr.Message}
		}
	}
	return f
}

func (f *Form) Get(name string) string {
	if f == nil {
		return ""
	}
	return f.Values.Get(name)
}

func (f *Form) ErrorsFor(name string) []string {
	if f == nil {
		return nil
	}
	return f.Errors[name]
}

func (f *Form) NonFieldErrors() []string {
	return f.ErrorsFor(internal.NonFieldErrorKey)
}

func (f *Form) HasErrors() bool {
	return f != nil && len(f.Errors) > 0
}
