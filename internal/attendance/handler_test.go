package attendance_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/frahmantamala/timeclock/internal"
	"github.com/frahmantamala/timeclock/internal/attendance"
	attendancePostgres "github.com/frahmantamala/timeclock/internal/attendance/postgres"
	"github.com/frahmantamala/timeclock/internal/session"
	"github.com/frahmantamala/timeclock/internal/testsupport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Attendance Handler Integration", func() {
	var (
		ctx      context.Context
		sessions *session.Manager
		f        *fixture
		router   *chi.Mux
		now      time.Time
	)

	BeforeEach(func() {
		db, err := testsupport.OpenDB()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(db.Close)

		base, mgr, err := testsupport.NewBaseHandler(db)
		Expect(err).NotTo(HaveOccurred())
		sessions = mgr
		ctx = context.Background()
		f = newFixture(ctx, db.Gorm)

		service := attendance.NewService(attendancePostgres.NewAttendanceRepository(db.Gorm), time.UTC, testsupport.Logger()).
			WithClock(func() time.Time { return now })
		handler := attendance.NewHandler(base, service, f.companies)

		router = chi.NewRouter()
		router.Get(attendance.ClockPath, handler.ClockPage)
		router.Post(attendance.ClockPath, handler.Clock)
		router.Get(attendance.ManagerRecordsPath, handler.ManagerFilterPage)
		router.Post(attendance.ManagerRecordsPath, handler.ManagerFilter)
		router.Get(attendance.OwnRecordsPath, handler.EmployeeFilterPage)
		router.Post(attendance.OwnRecordsPath, handler.EmployeeFilter)
	})

	login := func(p *internal.Principal) (func(*http.Request) *httptest.ResponseRecorder, *session.Session) {
		_, current, err := testsupport.AsPrincipal(ctx, sessions, httptest.NewRequest(http.MethodGet, "/", nil), p)
		Expect(err).NotTo(HaveOccurred())
		return func(req *http.Request) *httptest.ResponseRecorder {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, testsupport.WithSession(req, p, current))
			return rec
		}, current
	}

	postForm := func(path string, values url.Values) *http.Request {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}

	firstFlash := func(rec *httptest.ResponseRecorder) string {
		flashes := testsupport.Flashes(sessions, rec)
		Expect(flashes).NotTo(BeEmpty())
		return flashes[0].Message
	}

	Describe("clock terminal", func() {
		var serve func(*http.Request) *httptest.ResponseRecorder

		BeforeEach(func() {
			var current *session.Session
			serve, current = login(&internal.Principal{UserID: 1, IsManager: true})
			current.SelectCompany(f.bakery.ID)
		})

		It("should show the selected company", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, attendance.ClockPath, nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("Padaria Central"))
		})

		It("should open and then close the record of the typed CPF", func() {
			now = time.Date(2025, 1, 2, 9, 1, 15, 0, time.UTC)
			rec := serve(postForm(attendance.ClockPath, url.Values{"cpf": {"123.456.789-01"}}))
			Expect(rec.Code).To(Equal(http.StatusFound))
			Expect(rec.Header().Get("Location")).To(Equal(attendance.ClockPath))
			Expect(firstFlash(rec)).To(Equal("Ponto Aberto para Ana às 09:01:15."))

			now = time.Date(2025, 1, 2, 15, 9, 55, 0, time.UTC)
			rec = serve(postForm(attendance.ClockPath, url.Values{"cpf": {"12345678901"}}))
			Expect(rec.Code).To(Equal(http.StatusFound))
			Expect(firstFlash(rec)).To(Equal("Ponto Fechado para Ana. Horas trabalhadas: 6 horas e 8 minutos."))
		})

		It("should re-render unknown CPFs on the form", func() {
			rec := serve(postForm(attendance.ClockPath, url.Values{"cpf": {"98765432100"}}))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(internal.MsgEmployeeNotFound))
		})
	})

	It("should send the terminal back to the menu without a company", func() {
		serve, _ := login(&internal.Principal{UserID: 1, IsManager: true})
		rec := serve(httptest.NewRequest(http.MethodGet, attendance.ClockPath, nil))
		Expect(rec.Code).To(Equal(http.StatusFound))
		Expect(rec.Header().Get("Location")).To(Equal("/menu/"))
		Expect(firstFlash(rec)).To(Equal(internal.MsgCompanyNotSelected))
	})

	Describe("manager filter", func() {
		var serve func(*http.Request) *httptest.ResponseRecorder

		BeforeEach(func() {
			var current *session.Session
			serve, current = login(&internal.Principal{UserID: 1, IsManager: true})
			current.SelectCompany(f.bakery.ID)

			now = time.Date(2025, 1, 2, 9, 1, 15, 0, time.UTC)
			serve(postForm(attendance.ClockPath, url.Values{"cpf": {"12345678901"}}))
			now = time.Date(2025, 1, 2, 15, 9, 55, 0, time.UTC)
			serve(postForm(attendance.ClockPath, url.Values{"cpf": {"12345678901"}}))
		})

		It("should ask for an employee first", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, attendance.ManagerRecordsPath, nil))
			Expect(rec.Code).To(Equal(http.StatusFound))
			Expect(rec.Header().Get("Location")).To(Equal("/menu/"))
			Expect(firstFlash(rec)).To(Equal("Selecione uma empresa e depois um funcionário!"))
		})

		It("should list the filtered records", func() {
			rec := serve(postForm(attendance.ManagerRecordsURL(f.ana.ID), url.Values{
				"data_inicial": {"2025-01-02"},
				"data_final":   {"2025-01-02"},
			}))
			Expect(rec.Code).To(Equal(http.StatusOK))
			body := rec.Body.String()
			Expect(body).To(ContainSubstring("Pontos de Ana"))
			Expect(body).To(ContainSubstring("09:01:15"))
			Expect(body).To(ContainSubstring("6 horas e 8 minutos."))
		})

		It("should refuse employees of another company", func() {
			rec := serve(httptest.NewRequest(http.MethodGet, attendance.ManagerRecordsURL(f.bruno.ID), nil))
			Expect(rec.Code).To(Equal(http.StatusFound))
			Expect(rec.Header().Get("Location")).To(Equal("/menu/"))
			Expect(firstFlash(rec)).To(Equal(internal.MsgEmployeeOutOfScope))
		})

		It("should re-render an inverted range", func() {
			rec := serve(postForm(attendance.ManagerRecordsURL(f.ana.ID), url.Values{
				"data_inicial": {"2025-01-05"},
				"data_final":   {"2025-01-02"},
			}))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("A data inicial não pode ser maior que a data final."))
		})

		It("should download a spreadsheet", func() {
			rec := serve(postForm(attendance.ManagerRecordsURL(f.ana.ID), url.Values{"formato": {"xlsx"}}))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
			Expect(rec.Header().Get("Content-Disposition")).To(MatchRegexp(`^attachment; filename="pontos_\d{8}_\d{6}\.xlsx"$`))
			Expect(rec.Body.Bytes()).To(HavePrefix("PK"))
		})

		It("should download a pdf", func() {
			rec := serve(postForm(attendance.ManagerRecordsURL(f.ana.ID), url.Values{"formato": {"pdf"}}))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/pdf"))
			Expect(rec.Body.Bytes()).To(HavePrefix("%PDF"))
		})
	})

	Describe("employee filter", func() {
		It("should show the employee's own records", func() {
			p := principalOf(f.ana)
			serve, _ := login(p)

			rec := serve(httptest.NewRequest(http.MethodGet, attendance.OwnRecordsPath, nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("Pontos de Ana"))

			rec = serve(postForm(attendance.OwnRecordsPath, url.Values{}))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring("Nenhum ponto encontrado no período."))
		})

		It("should send a tampered session back to login", func() {
			p := principalOf(f.ana)
			serve, current := login(p)
			other := f.bruno.ID
			current.EmployeeID = &other

			rec := serve(httptest.NewRequest(http.MethodGet, attendance.OwnRecordsPath, nil))
			Expect(rec.Code).To(Equal(http.StatusFound))
			Expect(rec.Header().Get("Location")).To(Equal("/login/"))
			Expect(firstFlash(rec)).To(Equal(internal.MsgSessionMismatch))
		})
	})
})
