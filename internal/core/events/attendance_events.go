package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeAttendanceOpened = "attendance.opened"
	EventTypeAttendanceClosed = "attendance.closed"
)

// ClockEvent is published after a clock submission changed an attendance record.
type ClockEvent struct {
	BaseEvent
	RecordID   int64      `json:"record_id"`
	EmployeeID int64      `json:"employee_id"`
	CompanyID  int64      `json:"company_id"`
	EntryAt    time.Time  `json:"entry_at"`
	ExitAt     *time.Time `json:"exit_at,omitempty"`
}

func NewClockEvent(eventType string, recordID, employeeID, companyID int64, entryAt time.Time, exitAt *time.Time) *ClockEvent {
	data := map[string]interface{}{
		"record_id":   recordID,
		"employee_id": employeeID,
		"company_id":  companyID,
		"entry_at":    entryAt,
	}
	if exitAt != nil {
		data["exit_at"] = *exitAt
	}
	return &ClockEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data:      data,
		},
		RecordID:   recordID,
		EmployeeID: employeeID,
		CompanyID:  companyID,
		EntryAt:    entryAt,
		ExitAt:     exitAt,
	}
}
