package cmd

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/timeclock/internal/core/events"
)

// newEventBus returns the bus clock events go through, with the audit log subscribed.
func newEventBus(lg *slog.Logger) *events.EventBus {
	bus := events.NewEventBus(lg)
	audit := auditClock(lg.With("component", "attendance_audit"))
	bus.Subscribe(events.EventTypeAttendanceOpened, audit)
	bus.Subscribe(events.EventTypeAttendanceClosed, audit)
	return bus
}

func auditClock(lg *slog.Logger) events.Handler {
	return func(ctx context.Context, event events.Event) error {
		clock, ok := event.(*events.ClockEvent)
		if !ok {
			lg.Warn("unexpected event", "event_type", event.EventType(), "event_id", event.EventID())
			return nil
		}
		attrs := []any{
			"event_id", clock.EventID(),
			"event_type", clock.EventType(),
			"record_id", clock.RecordID,
			"employee_id", clock.EmployeeID,
			"company_id", clock.CompanyID,
			"entry_at", clock.EntryAt,
		}
		if clock.ExitAt != nil {
			attrs = append(attrs, "exit_at", *clock.ExitAt)
		}
		lg.Info("attendance changed", attrs...)
		return nil
	}
}
