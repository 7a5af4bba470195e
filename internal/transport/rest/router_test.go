package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/frahmantamala/timeclock/api"
	"github.com/frahmantamala/timeclock/internal"
	"github.com/frahmantamala/timeclock/internal/attendance"
	attendancePostgres "github.com/frahmantamala/timeclock/internal/attendance/postgres"
	"github.com/frahmantamala/timeclock/internal/auth"
	authPostgres "github.com/frahmantamala/timeclock/internal/auth/postgres"
	"github.com/frahmantamala/timeclock/internal/company"
	companyPostgres "github.com/frahmantamala/timeclock/internal/company/postgres"
	"github.com/frahmantamala/timeclock/internal/employee"
	employeePostgres "github.com/frahmantamala/timeclock/internal/employee/postgres"
	"github.com/frahmantamala/timeclock/internal/session"
	"github.com/frahmantamala/timeclock/internal/testsupport"
	"github.com/frahmantamala/timeclock/internal/transport/rest"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var csrfInput = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

var _ = Describe("Router", func() {
	var (
		ctx      context.Context
		router   *chi.Mux
		sessions *session.Manager
		bakery   *company.Company
	)

	BeforeEach(func() {
		db, err := testsupport.OpenDB()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(db.Close)
		ctx = context.Background()

		base, mgr, err := testsupport.NewBaseHandler(db)
		Expect(err).NotTo(HaveOccurred())
		sessions = mgr
		lg := testsupport.Logger()

		authService := auth.NewService(authPostgres.NewRepository(db.Gorm), bcrypt.MinCost, lg)
		companies := company.NewService(companyPostgres.NewCompanyRepository(db.Gorm), lg)
		employees := employee.NewService(employeePostgres.NewEmployeeRepository(db.Gorm), companies, authService, lg)
		records := attendance.NewService(attendancePostgres.NewAttendanceRepository(db.Gorm), time.UTC, lg)

		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Handlers{
			Auth:       auth.NewHandler(base, authService),
			RBAC:       auth.NewRBACAuthorization(sessions, lg),
			Company:    company.NewHandler(base, companies),
			Employee:   employee.NewHandler(base, employees),
			Attendance: attendance.NewHandler(base, records, companies),
			Health:     rest.NewHealthHandler(db.SQL),
			OpenAPI:    api.Spec,
			ErrorPage:  base.ServerError,
			Logger:     lg,
		})

		_, err = authService.CreateManager(ctx, auth.ManagerDTO{CPF: "00000000000", Password: "gerente123"})
		Expect(err).NotTo(HaveOccurred())

		bakery, err = companies.Create(ctx, company.CompanyDTO{
			Name: "Padaria Central", Street: "Rua A", Number: "1", Neighborhood: "Centro", City: "Recife", State: "PE", PostalCode: "50000000",
		})
		Expect(err).NotTo(HaveOccurred())
		_, err = employees.CreateEmployee(ctx, bakery.ID, employee.CreateEmployeeDTO{
			Name: "Ana", Email: "ana@example.com", CPF: "12345678901", Password: "segredo123",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	postForm := func(path string, values url.Values) *http.Request {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}

	// login returns the response of a successful login, whose cookies carry the session.
	login := func(cpf, password string) *httptest.ResponseRecorder {
		rec := serve(postForm(auth.LoginPath, url.Values{"cpf": {cpf}, "senha": {password}}))
		Expect(rec.Code).To(Equal(http.StatusFound))
		return rec
	}

	It("should send anonymous visitors to the login page", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/", nil))
		Expect(rec.Code).To(Equal(http.StatusFound))
		Expect(rec.Header().Get("Location")).To(Equal(auth.LoginPath))

		rec = serve(httptest.NewRequest(http.MethodGet, "/menu/", nil))
		Expect(rec.Code).To(Equal(http.StatusFound))
		Expect(rec.Header().Get("Location")).To(Equal(auth.LoginPath))
		Expect(testsupport.Flashes(sessions, rec)[0].Message).To(Equal(internal.MsgAccessDenied))
	})

	It("should land managers on the menu", func() {
		session := login("000.000.000-00", "gerente123")
		Expect(session.Header().Get("Location")).To(Equal(auth.MenuPath))

		rec := serve(testsupport.WithCookies(httptest.NewRequest(http.MethodGet, "/menu/", nil), session))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Padaria Central"))
	})

	It("should land employees on their records and keep them out of manager pages", func() {
		session := login("12345678901", "segredo123")
		Expect(session.Header().Get("Location")).To(Equal(attendance.OwnRecordsPath))

		rec := serve(testsupport.WithCookies(httptest.NewRequest(http.MethodGet, attendance.OwnRecordsPath, nil), session))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Pontos de Ana"))

		rec = serve(testsupport.WithCookies(httptest.NewRequest(http.MethodGet, "/menu/", nil), session))
		Expect(rec.Code).To(Equal(http.StatusFound))
		Expect(rec.Header().Get("Location")).To(Equal(auth.LoginPath))
	})

	It("should keep managers out of employee pages", func() {
		session := login("00000000000", "gerente123")
		rec := serve(testsupport.WithCookies(httptest.NewRequest(http.MethodGet, attendance.OwnRecordsPath, nil), session))
		Expect(rec.Code).To(Equal(http.StatusFound))
		Expect(rec.Header().Get("Location")).To(Equal(auth.LoginPath))
	})

	It("should re-render wrong credentials", func() {
		rec := serve(postForm(auth.LoginPath, url.Values{"cpf": {"00000000000"}, "senha": {"errada123"}}))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Usuário e/ou senha incorreto(s)!"))
	})

	Describe("CSRF", func() {
		var session *httptest.ResponseRecorder

		BeforeEach(func() {
			session = login("00000000000", "gerente123")
		})

		companyForm := func(token string) url.Values {
			values := url.Values{
				"nome": {"Mercado Sul"}, "logradouro": {"Rua B"}, "numero": {"2"}, "bairro": {"Centro"},
				"cidade": {"Olinda"}, "estado": {"PE"}, "cep": {"53000-000"},
			}
			if token != "" {
				values.Set("csrf_token", token)
			}
			return values
		}

		It("should accept a post echoing the session token", func() {
			page := serve(testsupport.WithCookies(httptest.NewRequest(http.MethodGet, company.CreatePath, nil), session))
			Expect(page.Code).To(Equal(http.StatusOK))
			match := csrfInput.FindStringSubmatch(page.Body.String())
			Expect(match).To(HaveLen(2))

			rec := serve(testsupport.WithCookies(postForm(company.CreatePath, companyForm(match[1])), session))
			Expect(rec.Code).To(Equal(http.StatusFound))
			Expect(rec.Header().Get("Location")).To(Equal(auth.MenuPath))
		})

		It("should end the session on a missing token", func() {
			rec := serve(testsupport.WithCookies(postForm(company.CreatePath, companyForm("")), session))
			Expect(rec.Code).To(Equal(http.StatusFound))
			Expect(rec.Header().Get("Location")).To(Equal(auth.LoginPath))
			Expect(testsupport.Flashes(sessions, rec)[0].Message).To(Equal(internal.MsgInvalidCSRFToken))

			again := serve(testsupport.WithCookies(httptest.NewRequest(http.MethodGet, "/menu/", nil), session))
			Expect(again.Code).To(Equal(http.StatusFound))
			Expect(again.Header().Get("Location")).To(Equal(auth.LoginPath))
		})
	})

	It("should log out", func() {
		session := login("00000000000", "gerente123")
		rec := serve(testsupport.WithCookies(httptest.NewRequest(http.MethodGet, "/logout/", nil), session))
		Expect(rec.Code).To(Equal(http.StatusFound))
		Expect(rec.Header().Get("Location")).To(Equal(auth.LoginPath))

		again := serve(testsupport.WithCookies(httptest.NewRequest(http.MethodGet, "/menu/", nil), session))
		Expect(again.Header().Get("Location")).To(Equal(auth.LoginPath))
	})

	It("should tag responses with a trace id", func() {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Trace-ID", "trace-123")
		rec := serve(req)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("X-Trace-ID")).To(Equal("trace-123"))
	})

	It("should report database health", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/healthz", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))

		var body rest.HealthResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body.Status).To(Equal(rest.HealthHealthy))
	})

	It("should serve the OpenAPI document", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/openapi.yml", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(HavePrefix("openapi: 3.0.3"))
	})

	It("should document every mounted route", func() {
		doc, err := api.Load(ctx)
		Expect(err).NotTo(HaveOccurred())

		var missing []string
		err = chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			if route == "/openapi.yml" || strings.HasPrefix(route, "/swagger/") {
				return nil
			}
			item := doc.Paths.Find(route)
			if item == nil || item.GetOperation(method) == nil {
				missing = append(missing, method+" "+route)
			}
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(missing).To(BeEmpty())
	})
})
