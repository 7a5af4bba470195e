package attendance

import (
	"fmt"
	"time"

	attendanceDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/attendance"
)

type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// Record is one working period of an employee. A nil ExitAt means the clock is still open.
type Record struct {
	ID         int64
	EmployeeID int64
	WorkDate   time.Time
	EntryAt    time.Time
	ExitAt     *time.Time
}

func (r *Record) State() State {
	if r.ExitAt == nil {
		return StateOpen
	}
	return StateClosed
}

// Worked is the elapsed time of the record, counting up to now while it is open.
func (r *Record) Worked(now time.Time) time.Duration {
	if r.ExitAt == nil {
		return WorkedTime(r.EntryAt, now)
	}
	return WorkedTime(r.EntryAt, *r.ExitAt)
}

// WorkedTime is exit minus entry. An exit before the entry belongs to the next day.
func WorkedTime(entry, exit time.Time) time.Duration {
	d := exit.Sub(entry)
	if d < 0 {
		d += 24 * time.Hour
	}
	if d < 0 {
		return 0
	}
	return d
}

// FormatWorked renders whole hours and floored minutes.
func FormatWorked(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	minutes := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%d horas e %d minutos.", hours, minutes)
}

// WorkDate is the calendar day of t in loc, kept as midnight UTC.
func WorkDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RecordView is a record prepared for listing and export.
type RecordView struct {
	Date   time.Time
	Entry  *time.Time
	Exit   *time.Time
	Worked string
}

func NewRecordView(r *Record, now time.Time) RecordView {
	entry := r.EntryAt
	return RecordView{
		Date:   r.WorkDate,
		Entry:  &entry,
		Exit:   r.ExitAt,
		Worked: FormatWorked(r.Worked(now)),
	}
}

type ClockResult struct {
	State        State
	EmployeeName string
	Record       *Record
	Worked       string
}

func ToDataModel(r *Record) *attendanceDatamodel.Record {
	return &attendanceDatamodel.Record{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		WorkDate:   r.WorkDate,
		EntryAt:    r.EntryAt,
		ExitAt:     r.ExitAt,
	}
}

func FromDataModel(r *attendanceDatamodel.Record) *Record {
	return &Record{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		WorkDate:   r.WorkDate,
		EntryAt:    r.EntryAt,
		ExitAt:     r.ExitAt,
	}
}
