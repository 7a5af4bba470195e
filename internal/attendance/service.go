package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/timeclock/internal"
	attendanceDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/attendance"
	employeeDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/employee"
	"github.com/frahmantamala/timeclock/internal/core/events"
	"github.com/frahmantamala/timeclock/internal/database"
)

var (
	ErrNoOpenRecord     = errors.New("no open attendance record")
	ErrEmployeeNotFound = errors.New("employee not found")
)

// clockAttempts bounds re-reads when a concurrent submission changes the state under us.
const clockAttempts = 3

type RepositoryAPI interface {
	// FindEmployeeByCPF looks the CPF up among the employees of companyID only.
	FindEmployeeByCPF(ctx context.Context, companyID int64, cpf string) (*employeeDatamodel.Employee, error)
	GetEmployee(ctx context.Context, id int64) (*employeeDatamodel.Employee, error)
	FindEmployeeByEmail(ctx context.Context, email string) (*employeeDatamodel.Employee, error)
	FindOpen(ctx context.Context, employeeID int64) (*attendanceDatamodel.Record, error)
	Create(ctx context.Context, r *attendanceDatamodel.Record) error
	// Close sets the exit of a still open record and reports whether it did.
	Close(ctx context.Context, id int64, exitAt time.Time) (bool, error)
	ListByEmployee(ctx context.Context, employeeID int64, start, end *time.Time) ([]*attendanceDatamodel.Record, error)
}

// Publisher receives clock events. *events.EventBus satisfies it.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      RepositoryAPI
	location  *time.Location
	now       func() time.Time
	publisher Publisher
	logger    *slog.Logger
}

func NewService(repo RepositoryAPI, location *time.Location, logger *slog.Logger) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{
		repo:     repo,
		location: location,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithPublisher announces every opened and closed record on p.
func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

func (s *Service) publish(ctx context.Context, eventType string, emp *employeeDatamodel.Employee, record *Record) {
	if s.publisher == nil {
		return
	}
	event := events.NewClockEvent(eventType, record.ID, emp.ID, emp.CompanyID, record.EntryAt, record.ExitAt)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish clock event", "event_type", eventType, "record_id", record.ID, "error", err)
	}
}

func (s *Service) Now() time.Time {
	return s.now()
}

func (s *Service) Location() *time.Location {
	return s.location
}

// Clock opens a record for the employee identified by dto.CPF, or closes the one already open.
func (s *Service) Clock(ctx context.Context, companyID int64, dto ClockDTO) (*ClockResult, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	emp, err := s.repo.FindEmployeeByCPF(ctx, companyID, dto.CPF)
	if err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			return nil, internal.NewValidationFieldError("cpf", internal.MsgEmployeeNotFound, internal.ErrCodeEmployeeNotFound)
		}
		return nil, internal.NewInternalError("failed to look up employee", err)
	}

	for attempt := 0; attempt < clockAttempts; attempt++ {
		now := s.now()

		open, err := s.repo.FindOpen(ctx, emp.ID)
		switch {
		case err == nil:
			closed, err := s.repo.Close(ctx, open.ID, now)
			if err != nil {
				return nil, internal.NewInternalError("failed to close attendance record", err)
			}
			if !closed {
				s.logger.InfoContext(ctx, "open record closed concurrently, retrying", "employee_id", emp.ID)
				continue
			}
			open.ExitAt = &now
			record := FromDataModel(open)
			worked := FormatWorked(record.Worked(now))
			s.logger.InfoContext(ctx, "attendance closed", "employee_id", emp.ID, "record_id", record.ID, "worked", worked)
			s.publish(ctx, events.EventTypeAttendanceClosed, emp, record)
			return &ClockResult{State: StateClosed, EmployeeName: emp.Name, Record: record, Worked: worked}, nil

		case !errors.Is(err, ErrNoOpenRecord):
			return nil, internal.NewInternalError("failed to read attendance state", err)
		}

		row := ToDataModel(&Record{
			EmployeeID: emp.ID,
			WorkDate:   WorkDate(now, s.location),
			EntryAt:    now,
		})
		if err := s.repo.Create(ctx, row); err != nil {
			if !database.IsUniqueViolation(err, attendanceDatamodel.OpenRecordIndex) {
				return nil, internal.NewInternalError("failed to open attendance record", err)
			}
			// another submission opened it first
			existing, findErr := s.repo.FindOpen(ctx, emp.ID)
			if findErr != nil {
				if errors.Is(findErr, ErrNoOpenRecord) {
					continue
				}
				return nil, internal.NewInternalError("failed to read attendance state", findErr)
			}
			s.logger.InfoContext(ctx, "attendance already open", "employee_id", emp.ID, "record_id", existing.ID)
			return s.openResult(emp, FromDataModel(existing)), nil
		}

		record := FromDataModel(row)
		s.logger.InfoContext(ctx, "attendance opened", "employee_id", emp.ID, "record_id", record.ID)
		s.publish(ctx, events.EventTypeAttendanceOpened, emp, record)
		return s.openResult(emp, record), nil
	}

	return nil, internal.NewInternalError("attendance state kept changing", fmt.Errorf("employee %d", emp.ID))
}

func (s *Service) openResult(emp *employeeDatamodel.Employee, record *Record) *ClockResult {
	return &ClockResult{
		State:        StateOpen,
		EmployeeName: emp.Name,
		Record:       record,
		Worked:       FormatWorked(record.Worked(s.now())),
	}
}

// Listing is a filtered set of records of one employee.
type Listing struct {
	EmployeeID   int64
	EmployeeName string
	Records      []RecordView
}

// Employee returns the employee of companyID with id employeeID.
func (s *Service) Employee(ctx context.Context, companyID, employeeID int64) (*employeeDatamodel.Employee, error) {
	emp, err := s.repo.GetEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			return nil, internal.ErrEmployeeNotFound
		}
		return nil, internal.NewInternalError("failed to load employee", err)
	}
	if emp.CompanyID != companyID {
		s.logger.WarnContext(ctx, "employee outside selected company", "employee_id", employeeID, "company_id", companyID)
		return nil, internal.ErrEmployeeOutOfScope
	}
	return emp, nil
}

// FilterForManager lists the records of one employee of the manager's selected company.
func (s *Service) FilterForManager(ctx context.Context, companyID, employeeID int64, dto FilterDTO) (*Listing, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	emp, err := s.Employee(ctx, companyID, employeeID)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, emp, dto)
}

// OwnEmployee resolves the employee record of an employee principal after checking the session agrees with it.
func (s *Service) OwnEmployee(ctx context.Context, principal *internal.Principal, sessionEmployeeID *int64) (*employeeDatamodel.Employee, error) {
	if principal == nil || principal.EmployeeID == nil {
		return nil, internal.ErrEmployeeOnly
	}
	if sessionEmployeeID == nil || *sessionEmployeeID != *principal.EmployeeID {
		s.logger.WarnContext(ctx, "session employee does not match principal", "user_id", principal.UserID)
		return nil, internal.ErrSessionMismatch
	}

	emp, err := s.repo.GetEmployee(ctx, *principal.EmployeeID)
	if err != nil {
		if errors.Is(err, ErrEmployeeNotFound) {
			return nil, internal.ErrEmployeeNotFound
		}
		return nil, internal.NewInternalError("failed to load employee", err)
	}
	return emp, nil
}

// FilterForEmployee lists the logged in employee's own records.
func (s *Service) FilterForEmployee(ctx context.Context, principal *internal.Principal, sessionEmployeeID *int64, dto FilterDTO) (*Listing, error) {
	emp, err := s.OwnEmployee(ctx, principal, sessionEmployeeID)
	if err != nil {
		return nil, err
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	return s.list(ctx, emp, dto)
}

func (s *Service) list(ctx context.Context, emp *employeeDatamodel.Employee, dto FilterDTO) (*Listing, error) {
	rows, err := s.repo.ListByEmployee(ctx, emp.ID, dto.Start, dto.End)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list attendance", "employee_id", emp.ID, "error", err)
		return nil, internal.NewInternalError("failed to list attendance", err)
	}

	now := s.now()
	listing := &Listing{
		EmployeeID:   emp.ID,
		EmployeeName: emp.Name,
		Records:      make([]RecordView, 0, len(rows)),
	}
	for _, row := range rows {
		listing.Records = append(listing.Records, NewRecordView(FromDataModel(row), now))
	}
	return listing, nil
}
