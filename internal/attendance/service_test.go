package attendance_test

import (
	"context"
	"time"

	"github.com/frahmantamala/timeclock/internal"
	"github.com/frahmantamala/timeclock/internal/attendance"
	attendancePostgres "github.com/frahmantamala/timeclock/internal/attendance/postgres"
	"github.com/frahmantamala/timeclock/internal/auth"
	"github.com/frahmantamala/timeclock/internal/company"
	companyPostgres "github.com/frahmantamala/timeclock/internal/company/postgres"
	"github.com/frahmantamala/timeclock/internal/core/common/validation"
	attendanceDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/attendance"
	"github.com/frahmantamala/timeclock/internal/core/events"
	"github.com/frahmantamala/timeclock/internal/employee"
	employeePostgres "github.com/frahmantamala/timeclock/internal/employee/postgres"
	"github.com/frahmantamala/timeclock/internal/testsupport"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// fixture holds the companies and employees most attendance specs need.
type fixture struct {
	companies *company.Service
	employees *employee.Service
	bakery    *company.Company
	market    *company.Company
	ana       *employee.Employee
	bruno     *employee.Employee
}

func newFixture(ctx context.Context, db *gorm.DB) *fixture {
	f := &fixture{}
	f.companies = company.NewService(companyPostgres.NewCompanyRepository(db), testsupport.Logger())
	hasher := auth.NewService(nil, bcrypt.MinCost, testsupport.Logger())
	f.employees = employee.NewService(employeePostgres.NewEmployeeRepository(db), f.companies, hasher, testsupport.Logger())

	f.bakery = f.newCompany(ctx, "Padaria Central")
	f.market = f.newCompany(ctx, "Mercado Sul")
	f.ana = f.newEmployee(ctx, f.bakery.ID, "Ana", "ana@example.com", "12345678901")
	f.bruno = f.newEmployee(ctx, f.market.ID, "Bruno", "bruno@example.com", "98765432100")
	return f
}

func (f *fixture) newCompany(ctx context.Context, name string) *company.Company {
	c, err := f.companies.Create(ctx, company.CompanyDTO{
		Name: name, Street: "Rua A", Number: "1", Neighborhood: "Centro", City: "Recife", State: "PE", PostalCode: "50000000",
	})
	Expect(err).NotTo(HaveOccurred())
	return c
}

func (f *fixture) newEmployee(ctx context.Context, companyID int64, name, email, cpf string) *employee.Employee {
	e, err := f.employees.CreateEmployee(ctx, companyID, employee.CreateEmployeeDTO{
		Name: name, Email: email, CPF: cpf, Password: "segredo123",
	})
	Expect(err).NotTo(HaveOccurred())
	return e
}

func principalOf(e *employee.Employee) *internal.Principal {
	id := e.ID
	return &internal.Principal{UserID: e.UserID, EmployeeID: &id}
}

func at(layout string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", layout)
	Expect(err).NotTo(HaveOccurred())
	return t.UTC()
}

func day(value string) *time.Time {
	t, err := time.Parse("2006-01-02", value)
	Expect(err).NotTo(HaveOccurred())
	return &t
}

// racingRepo hides the open record from the first reads, as a concurrent submission would.
type racingRepo struct {
	attendance.RepositoryAPI
	hiddenReads int
	staleCloses int
}

func (r *racingRepo) FindOpen(ctx context.Context, employeeID int64) (*attendanceDatamodel.Record, error) {
	if r.hiddenReads > 0 {
		r.hiddenReads--
		return nil, attendance.ErrNoOpenRecord
	}
	return r.RepositoryAPI.FindOpen(ctx, employeeID)
}

func (r *racingRepo) Close(ctx context.Context, id int64, exitAt time.Time) (bool, error) {
	if r.staleCloses > 0 {
		r.staleCloses--
		return false, nil
	}
	return r.RepositoryAPI.Close(ctx, id, exitAt)
}

var _ = Describe("Worked time", func() {
	It("should floor hours and minutes", func() {
		worked := attendance.WorkedTime(at("2025-01-02 09:01:15"), at("2025-01-02 15:09:55"))
		Expect(attendance.FormatWorked(worked)).To(Equal("6 horas e 8 minutos."))
	})

	It("should count an exit before the entry as the next day", func() {
		worked := attendance.WorkedTime(at("2025-01-02 22:00:00"), at("2025-01-02 02:30:00"))
		Expect(worked).To(Equal(4*time.Hour + 30*time.Minute))
	})

	It("should render zero for empty periods", func() {
		Expect(attendance.FormatWorked(0)).To(Equal("0 horas e 0 minutos."))
		Expect(attendance.FormatWorked(-time.Minute)).To(Equal("0 horas e 0 minutos."))
	})

	It("should count an open record up to now", func() {
		record := &attendance.Record{EntryAt: at("2025-01-02 08:00:00")}
		Expect(record.State()).To(Equal(attendance.StateOpen))
		Expect(record.Worked(at("2025-01-02 09:30:00"))).To(Equal(90 * time.Minute))
	})

	It("should take the work date from the local calendar", func() {
		recife := time.FixedZone("BRT", -3*60*60)
		Expect(attendance.WorkDate(at("2025-01-03 02:30:00"), recife)).To(BeTemporally("==", *day("2025-01-02")))
		Expect(attendance.WorkDate(at("2025-01-03 02:30:00"), time.UTC)).To(BeTemporally("==", *day("2025-01-03")))
	})
})

var _ = Describe("Attendance Service", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		f       *fixture
		repo    attendance.RepositoryAPI
		service *attendance.Service
		now     time.Time
	)

	BeforeEach(func() {
		conn, err := testsupport.OpenDB()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(conn.Close)
		db = conn.Gorm

		ctx = context.Background()
		f = newFixture(ctx, db)
		repo = attendancePostgres.NewAttendanceRepository(db)
		service = attendance.NewService(repo, time.UTC, testsupport.Logger()).
			WithClock(func() time.Time { return now })
	})

	clockAt := func(s *attendance.Service, when, cpf string) *attendance.ClockResult {
		now = at(when)
		result, err := s.Clock(ctx, f.bakery.ID, attendance.ClockDTO{CPF: cpf})
		Expect(err).NotTo(HaveOccurred())
		return result
	}

	Describe("Clock", func() {
		It("should alternate between opening and closing", func() {
			opened := clockAt(service, "2025-01-02 09:01:15", "123.456.789-01")
			Expect(opened.State).To(Equal(attendance.StateOpen))
			Expect(opened.EmployeeName).To(Equal("Ana"))
			Expect(opened.Record.WorkDate).To(BeTemporally("==", *day("2025-01-02")))

			closed := clockAt(service, "2025-01-02 15:09:55", "12345678901")
			Expect(closed.State).To(Equal(attendance.StateClosed))
			Expect(closed.Record.ID).To(Equal(opened.Record.ID))
			Expect(closed.Worked).To(Equal("6 horas e 8 minutos."))

			reopened := clockAt(service, "2025-01-02 16:00:00", "12345678901")
			Expect(reopened.State).To(Equal(attendance.StateOpen))
			Expect(reopened.Record.ID).NotTo(Equal(opened.Record.ID))

			var count int64
			Expect(db.Model(&attendanceDatamodel.Record{}).Where("employee_id = ?", f.ana.ID).Count(&count).Error).To(Succeed())
			Expect(count).To(Equal(int64(2)))
		})

		It("should announce opened and closed records", func() {
			published := &recordingPublisher{}
			service.WithPublisher(published)

			opened := clockAt(service, "2025-01-02 09:00:00", "12345678901")
			clockAt(service, "2025-01-02 17:00:00", "12345678901")

			Expect(published.events).To(HaveLen(2))
			Expect(published.events[0].EventType()).To(Equal(events.EventTypeAttendanceOpened))
			Expect(published.events[0].RecordID).To(Equal(opened.Record.ID))
			Expect(published.events[0].CompanyID).To(Equal(f.bakery.ID))
			Expect(published.events[0].ExitAt).To(BeNil())
			Expect(published.events[1].EventType()).To(Equal(events.EventTypeAttendanceClosed))
			Expect(*published.events[1].ExitAt).To(BeTemporally("==", at("2025-01-02 17:00:00")))
		})

		It("should reject a malformed CPF", func() {
			_, err := service.Clock(ctx, f.bakery.ID, attendance.ClockDTO{CPF: "123"})
			Expect(internal.IsValidation(err)).To(BeTrue())
			Expect(fieldErrors(err)).To(HaveKeyWithValue("cpf", ContainElement(validation.MsgInvalidCPF)))
		})

		It("should only find employees of the terminal's company", func() {
			_, err := service.Clock(ctx, f.bakery.ID, attendance.ClockDTO{CPF: "98765432100"})
			Expect(internal.IsValidation(err)).To(BeTrue())
			Expect(fieldErrors(err)).To(HaveKeyWithValue("cpf", ContainElement(internal.MsgEmployeeNotFound)))
		})

		It("should report the record another submission opened first", func() {
			first := clockAt(service, "2025-01-02 08:00:00", "12345678901")

			racing := attendance.NewService(&racingRepo{RepositoryAPI: repo, hiddenReads: 1}, time.UTC, testsupport.Logger()).
				WithClock(func() time.Time { return now })
			second := clockAt(racing, "2025-01-02 08:00:01", "12345678901")
			Expect(second.State).To(Equal(attendance.StateOpen))
			Expect(second.Record.ID).To(Equal(first.Record.ID))

			var count int64
			Expect(db.Model(&attendanceDatamodel.Record{}).Where("exit_at IS NULL").Count(&count).Error).To(Succeed())
			Expect(count).To(Equal(int64(1)))
		})

		It("should retry when the open record was closed under it", func() {
			clockAt(service, "2025-01-02 08:00:00", "12345678901")

			racing := attendance.NewService(&racingRepo{RepositoryAPI: repo, staleCloses: 1}, time.UTC, testsupport.Logger()).
				WithClock(func() time.Time { return now })
			result := clockAt(racing, "2025-01-02 12:00:00", "12345678901")
			Expect(result.State).To(Equal(attendance.StateClosed))
			Expect(result.Worked).To(Equal("4 horas e 0 minutos."))
		})

		It("should give up when the state keeps changing", func() {
			clockAt(service, "2025-01-02 08:00:00", "12345678901")

			racing := attendance.NewService(&racingRepo{RepositoryAPI: repo, staleCloses: 10}, time.UTC, testsupport.Logger())
			_, err := racing.Clock(ctx, f.bakery.ID, attendance.ClockDTO{CPF: "12345678901"})
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
		})
	})

	Describe("Filtering", func() {
		BeforeEach(func() {
			clockAt(service, "2025-01-03 08:00:00", "12345678901")
			clockAt(service, "2025-01-03 12:00:00", "12345678901")
			clockAt(service, "2025-01-01 08:00:00", "12345678901")
			clockAt(service, "2025-01-01 09:00:00", "12345678901")
			clockAt(service, "2025-01-02 09:01:15", "12345678901")
			clockAt(service, "2025-01-02 15:09:55", "12345678901")
			clockAt(service, "2025-01-04 08:00:00", "12345678901")
			now = at("2025-01-04 10:00:00")
		})

		It("should include both bounds and order by day", func() {
			listing, err := service.FilterForManager(ctx, f.bakery.ID, f.ana.ID, attendance.FilterDTO{
				Start: day("2025-01-02"),
				End:   day("2025-01-03"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(listing.EmployeeName).To(Equal("Ana"))
			Expect(listing.Records).To(HaveLen(2))
			Expect(listing.Records[0].Date).To(BeTemporally("==", *day("2025-01-02")))
			Expect(listing.Records[0].Worked).To(Equal("6 horas e 8 minutos."))
			Expect(listing.Records[1].Date).To(BeTemporally("==", *day("2025-01-03")))
		})

		It("should leave missing bounds open", func() {
			listing, err := service.FilterForManager(ctx, f.bakery.ID, f.ana.ID, attendance.FilterDTO{Start: day("2025-01-03")})
			Expect(err).NotTo(HaveOccurred())
			Expect(listing.Records).To(HaveLen(2))

			open := listing.Records[1]
			Expect(open.Exit).To(BeNil())
			Expect(open.Worked).To(Equal("2 horas e 0 minutos."))
		})

		It("should reject a start after the end", func() {
			_, err := service.FilterForManager(ctx, f.bakery.ID, f.ana.ID, attendance.FilterDTO{
				Start: day("2025-01-04"),
				End:   day("2025-01-02"),
			})
			Expect(internal.IsValidation(err)).To(BeTrue())
			Expect(fieldErrors(err)).To(HaveKeyWithValue(internal.NonFieldErrorKey, ContainElement(validation.MsgInvalidDateRange)))
		})

		It("should reject unknown export formats", func() {
			_, err := service.FilterForManager(ctx, f.bakery.ID, f.ana.ID, attendance.FilterDTO{Format: "csv"})
			Expect(internal.IsValidation(err)).To(BeTrue())
			Expect(fieldErrors(err)).To(HaveKey("formato"))
		})

		It("should refuse employees of another company", func() {
			_, err := service.FilterForManager(ctx, f.bakery.ID, f.bruno.ID, attendance.FilterDTO{})
			Expect(err).To(MatchError(internal.ErrEmployeeOutOfScope))
		})

		It("should report unknown employees", func() {
			_, err := service.FilterForManager(ctx, f.bakery.ID, 9999, attendance.FilterDTO{})
			Expect(err).To(MatchError(internal.ErrEmployeeNotFound))
		})

		It("should list an employee's own records", func() {
			p := principalOf(f.ana)
			listing, err := service.FilterForEmployee(ctx, p, p.EmployeeID, attendance.FilterDTO{End: day("2025-01-01")})
			Expect(err).NotTo(HaveOccurred())
			Expect(listing.Records).To(HaveLen(1))
		})

		It("should refuse a session pointing at another employee", func() {
			other := f.bruno.ID
			_, err := service.FilterForEmployee(ctx, principalOf(f.ana), &other, attendance.FilterDTO{})
			Expect(err).To(MatchError(internal.ErrSessionMismatch))

			_, err = service.FilterForEmployee(ctx, principalOf(f.ana), nil, attendance.FilterDTO{})
			Expect(err).To(MatchError(internal.ErrSessionMismatch))
		})

		It("should refuse principals without an employee", func() {
			_, err := service.OwnEmployee(ctx, &internal.Principal{UserID: 1, IsManager: true}, nil)
			Expect(err).To(MatchError(internal.ErrEmployeeOnly))
		})
	})
})

var _ = Describe("Filter form", func() {
	form := func(values map[string]string) func(string) string {
		return func(key string) string { return values[key] }
	}

	It("should parse ISO dates and lowercase the format", func() {
		dto, err := attendance.FilterDTOFromForm(form(map[string]string{
			"data_inicial": "2025-01-02",
			"data_final":   "2025-01-03",
			"formato":      "PDF",
		}))
		Expect(err).To(BeNil())
		Expect(*dto.Start).To(BeTemporally("==", *day("2025-01-02")))
		Expect(*dto.End).To(BeTemporally("==", *day("2025-01-03")))
		Expect(dto.Format).To(Equal("pdf"))
		Expect(dto.Export()).To(BeTrue())
	})

	It("should leave empty dates open", func() {
		dto, err := attendance.FilterDTOFromForm(form(map[string]string{}))
		Expect(err).To(BeNil())
		Expect(dto.Start).To(BeNil())
		Expect(dto.End).To(BeNil())
		Expect(dto.Export()).To(BeFalse())
	})

	It("should report unparseable dates per field", func() {
		_, err := attendance.FilterDTOFromForm(form(map[string]string{"data_inicial": "02/01/2025"}))
		Expect(err).NotTo(BeNil())
		Expect(err.FieldErrors()).To(HaveKey("data_inicial"))
	})
})

func fieldErrors(err error) map[string][]string {
	appErr, ok := internal.IsAppError(err)
	Expect(ok).To(BeTrue())
	return appErr.FieldErrors()
}

type recordingPublisher struct {
	events []*events.ClockEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.events = append(p.events, event.(*events.ClockEvent))
	return nil
}
