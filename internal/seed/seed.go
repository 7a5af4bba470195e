// Package seed creates the accounts and companies a fresh installation starts with.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/timeclock/internal/attendance"
	"github.com/frahmantamala/timeclock/internal/auth"
	"github.com/frahmantamala/timeclock/internal/company"
	"github.com/frahmantamala/timeclock/internal/core/common/validation"
	attendanceDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/attendance"
	employeeDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/employee"
	"github.com/frahmantamala/timeclock/internal/employee"
)

var ErrRecordsNotConfigured = errors.New("attendance store not configured")

type Outcome string

const (
	OutcomeCreated       Outcome = "created"
	OutcomeAlreadyExists Outcome = "already-exists"
	OutcomeFailed        Outcome = "failed"
)

type Kind string

const (
	KindManager  Kind = "manager"
	KindCompany  Kind = "company"
	KindEmployee Kind = "employee"
	KindRecord   Kind = "record"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04:05"
)

// Result is the outcome of one seeded item. Err is set only for OutcomeFailed.
type Result struct {
	Kind    Kind
	Key     string
	Outcome Outcome
	Err     error
}

type Manager struct {
	CPF      string `mapstructure:"cpf"`
	Password string `mapstructure:"password"`
}

type Company struct {
	Name         string `mapstructure:"name"`
	Street       string `mapstructure:"street"`
	Number       string `mapstructure:"number"`
	Complement   string `mapstructure:"complement"`
	Neighborhood string `mapstructure:"neighborhood"`
	City         string `mapstructure:"city"`
	State        string `mapstructure:"state"`
	PostalCode   string `mapstructure:"postal_code"`
}

func (c Company) dto() company.CompanyDTO {
	return company.CompanyDTO{
		Name:         c.Name,
		Street:       c.Street,
		Number:       c.Number,
		Complement:   c.Complement,
		Neighborhood: c.Neighborhood,
		City:         c.City,
		State:        c.State,
		PostalCode:   c.PostalCode,
	}
}

// Employee refers to its company by name.
type Employee struct {
	Company  string `mapstructure:"company"`
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	CPF      string `mapstructure:"cpf"`
	Password string `mapstructure:"password"`
}

// Record is a past attendance of an employee, found by email. Date is YYYY-MM-DD,
// Entry and Exit are HH:MM:SS on that date. An empty Exit leaves the record open.
type Record struct {
	Employee string `mapstructure:"employee"`
	Date     string `mapstructure:"date"`
	Entry    string `mapstructure:"entry"`
	Exit     string `mapstructure:"exit"`
}

func (rec Record) key() string {
	return rec.Employee + " " + rec.Date
}

type Plan struct {
	Managers  []Manager  `mapstructure:"managers"`
	Companies []Company  `mapstructure:"companies"`
	Employees []Employee `mapstructure:"employees"`
	Records   []Record   `mapstructure:"records"`
}

type ManagerCreator interface {
	CreateManager(ctx context.Context, dto auth.ManagerDTO) (*auth.User, error)
	FindByCPF(ctx context.Context, cpf string) (*auth.User, error)
}

type CompanyStore interface {
	List(ctx context.Context) ([]*company.Company, error)
	Create(ctx context.Context, dto company.CompanyDTO) (*company.Company, error)
}

type EmployeeStore interface {
	ListByCompany(ctx context.Context, companyID int64) ([]*employee.Employee, error)
	CreateEmployee(ctx context.Context, companyID int64, dto employee.CreateEmployeeDTO) (*employee.Employee, error)
}

// RecordStore is satisfied by attendance.RepositoryAPI.
type RecordStore interface {
	FindEmployeeByEmail(ctx context.Context, email string) (*employeeDatamodel.Employee, error)
	ListByEmployee(ctx context.Context, employeeID int64, start, end *time.Time) ([]*attendanceDatamodel.Record, error)
	Create(ctx context.Context, r *attendanceDatamodel.Record) error
}

type Runner struct {
	managers  ManagerCreator
	companies CompanyStore
	employees EmployeeStore
	records   RecordStore
	location  *time.Location
	logger    *slog.Logger
}

func NewRunner(managers ManagerCreator, companies CompanyStore, employees EmployeeStore, logger *slog.Logger) *Runner {
	return &Runner{
		managers:  managers,
		companies: companies,
		employees: employees,
		location:  time.UTC,
		logger:    logger,
	}
}

// WithRecords enables attendance records; their clock times are read in loc.
func (r *Runner) WithRecords(store RecordStore, loc *time.Location) *Runner {
	r.records = store
	if loc != nil {
		r.location = loc
	}
	return r
}

// Run applies every item of plan, going on after failures.
func (r *Runner) Run(ctx context.Context, plan Plan) []Result {
	results := make([]Result, 0, len(plan.Managers)+len(plan.Companies)+len(plan.Employees)+len(plan.Records))
	for _, m := range plan.Managers {
		results = append(results, r.EnsureManager(ctx, m))
	}
	for _, c := range plan.Companies {
		results = append(results, r.EnsureCompany(ctx, c))
	}
	for _, e := range plan.Employees {
		results = append(results, r.EnsureEmployee(ctx, e))
	}
	for _, rec := range plan.Records {
		results = append(results, r.EnsureRecord(ctx, rec))
	}
	return results
}

func (r *Runner) EnsureManager(ctx context.Context, m Manager) Result {
	key := validation.NormalizeDigits(m.CPF)
	_, err := r.managers.CreateManager(ctx, auth.ManagerDTO{CPF: m.CPF, Password: m.Password})
	switch {
	case err == nil:
		return r.done(ctx, KindManager, key, OutcomeCreated, nil)
	case errors.Is(err, auth.ErrCPFTaken):
		existing, findErr := r.managers.FindByCPF(ctx, key)
		if findErr != nil {
			return r.done(ctx, KindManager, key, OutcomeFailed, findErr)
		}
		if !existing.IsManager {
			return r.done(ctx, KindManager, key, OutcomeFailed, fmt.Errorf("cpf %s belongs to an employee account", key))
		}
		return r.done(ctx, KindManager, key, OutcomeAlreadyExists, nil)
	}
	return r.done(ctx, KindManager, key, OutcomeFailed, err)
}

// EnsureCompany matches existing companies by name.
func (r *Runner) EnsureCompany(ctx context.Context, c Company) Result {
	existing, err := r.findCompany(ctx, c.Name)
	if err != nil {
		return r.done(ctx, KindCompany, c.Name, OutcomeFailed, err)
	}
	if existing != nil {
		return r.done(ctx, KindCompany, c.Name, OutcomeAlreadyExists, nil)
	}

	if _, err := r.companies.Create(ctx, c.dto()); err != nil {
		return r.done(ctx, KindCompany, c.Name, OutcomeFailed, err)
	}
	return r.done(ctx, KindCompany, c.Name, OutcomeCreated, nil)
}

// EnsureEmployee matches existing employees of the company by email or CPF.
func (r *Runner) EnsureEmployee(ctx context.Context, e Employee) Result {
	key := e.Email

	c, err := r.findCompany(ctx, e.Company)
	if err != nil {
		return r.done(ctx, KindEmployee, key, OutcomeFailed, err)
	}
	if c == nil {
		return r.done(ctx, KindEmployee, key, OutcomeFailed, fmt.Errorf("company %q not found", e.Company))
	}

	employees, err := r.employees.ListByCompany(ctx, c.ID)
	if err != nil {
		return r.done(ctx, KindEmployee, key, OutcomeFailed, err)
	}
	cpf := validation.NormalizeDigits(e.CPF)
	for _, existing := range employees {
		if strings.EqualFold(existing.Email, e.Email) || existing.CPF == cpf {
			return r.done(ctx, KindEmployee, key, OutcomeAlreadyExists, nil)
		}
	}

	_, err = r.employees.CreateEmployee(ctx, c.ID, employee.CreateEmployeeDTO{
		Name:     e.Name,
		Email:    e.Email,
		CPF:      e.CPF,
		Password: e.Password,
	})
	if err != nil {
		return r.done(ctx, KindEmployee, key, OutcomeFailed, err)
	}
	return r.done(ctx, KindEmployee, key, OutcomeCreated, nil)
}

// EnsureRecord matches existing records by employee and work date.
func (r *Runner) EnsureRecord(ctx context.Context, rec Record) Result {
	key := rec.key()
	if r.records == nil {
		return r.done(ctx, KindRecord, key, OutcomeFailed, ErrRecordsNotConfigured)
	}

	workDate, entryAt, exitAt, err := r.parseRecord(rec)
	if err != nil {
		return r.done(ctx, KindRecord, key, OutcomeFailed, err)
	}

	emp, err := r.records.FindEmployeeByEmail(ctx, strings.TrimSpace(rec.Employee))
	if err != nil {
		if errors.Is(err, attendance.ErrEmployeeNotFound) {
			err = fmt.Errorf("employee %q not found", rec.Employee)
		}
		return r.done(ctx, KindRecord, key, OutcomeFailed, err)
	}

	existing, err := r.records.ListByEmployee(ctx, emp.ID, &workDate, &workDate)
	if err != nil {
		return r.done(ctx, KindRecord, key, OutcomeFailed, err)
	}
	if len(existing) > 0 {
		return r.done(ctx, KindRecord, key, OutcomeAlreadyExists, nil)
	}

	row := &attendanceDatamodel.Record{
		EmployeeID: emp.ID,
		WorkDate:   workDate,
		EntryAt:    entryAt,
		ExitAt:     exitAt,
	}
	if err := r.records.Create(ctx, row); err != nil {
		return r.done(ctx, KindRecord, key, OutcomeFailed, err)
	}
	return r.done(ctx, KindRecord, key, OutcomeCreated, nil)
}

// parseRecord reads the clock times in the runner's location. An exit before the entry is on the next day.
func (r *Runner) parseRecord(rec Record) (workDate, entryAt time.Time, exitAt *time.Time, err error) {
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(rec.Date), r.location)
	if err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("invalid date %q: %w", rec.Date, err)
	}
	entryAt, err = clockOn(day, rec.Entry)
	if err != nil {
		return time.Time{}, time.Time{}, nil, fmt.Errorf("invalid entry %q: %w", rec.Entry, err)
	}
	if strings.TrimSpace(rec.Exit) != "" {
		exit, err := clockOn(day, rec.Exit)
		if err != nil {
			return time.Time{}, time.Time{}, nil, fmt.Errorf("invalid exit %q: %w", rec.Exit, err)
		}
		if exit.Before(entryAt) {
			exit = exit.AddDate(0, 0, 1)
		}
		exitAt = &exit
	}
	return attendance.WorkDate(entryAt, r.location), entryAt, exitAt, nil
}

func clockOn(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse(clockLayout, strings.TrimSpace(clock))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, day.Location()), nil
}

func (r *Runner) findCompany(ctx context.Context, name string) (*company.Company, error) {
	companies, err := r.companies.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range companies {
		if strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(name)) {
			return c, nil
		}
	}
	return nil, nil
}

func (r *Runner) done(ctx context.Context, kind Kind, key string, outcome Outcome, err error) Result {
	if err != nil {
		r.logger.ErrorContext(ctx, "seed item failed", "kind", kind, "key", key, "error", err)
	} else {
		r.logger.InfoContext(ctx, "seed item applied", "kind", kind, "key", key, "outcome", outcome)
	}
	return Result{Kind: kind, Key: key, Outcome: outcome, Err: err}
}

// Failed counts the failed results.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if r.Outcome == OutcomeFailed {
			n++
		}
	}
	return n
}
