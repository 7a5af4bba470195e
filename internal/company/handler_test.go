package company_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/frahmantamala/timeclock/internal"
	"github.com/frahmantamala/timeclock/internal/company"
	companyPostgres "github.com/frahmantamala/timeclock/internal/company/postgres"
	"github.com/frahmantamala/timeclock/internal/session"
	"github.com/frahmantamala/timeclock/internal/testsupport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Company Handler Integration", func() {
	var (
		service  *company.Service
		sessions *session.Manager
		router   *chi.Mux
		manager  *internal.Principal
		ctx      context.Context
	)

	BeforeEach(func() {
		db, err := testsupport.OpenDB()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(db.Close)

		base, mgr, err := testsupport.NewBaseHandler(db)
		Expect(err).NotTo(HaveOccurred())
		sessions = mgr

		service = company.NewService(companyPostgres.NewCompanyRepository(db.Gorm), testsupport.Logger())
		handler := company.NewHandler(base, service)

		router = chi.NewRouter()
		router.Get("/menu/", handler.Menu)
		router.Get("/criar/empresa/", handler.CreatePage)
		router.Post("/criar/empresa/", handler.Create)
		router.Get("/editar/empresa/{id}/", handler.EditPage)
		router.Post("/editar/empresa/{id}/", handler.Edit)

		manager = &internal.Principal{UserID: 1, IsManager: true}
		ctx = context.Background()
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		req, _, err := testsupport.AsPrincipal(ctx, sessions, req, manager)
		Expect(err).NotTo(HaveOccurred())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	postForm := func(path string, values url.Values) *http.Request {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}

	formValues := func() url.Values {
		return url.Values{
			"nome":       {"Padaria Central"},
			"logradouro": {"Rua das Flores"},
			"numero":     {"120"},
			"bairro":     {"Boa Vista"},
			"cidade":     {"Recife"},
			"estado":     {"PE"},
			"cep":        {"50050120"},
		}
	}

	It("should create a company and redirect to the menu", func() {
		rec := serve(postForm("/criar/empresa/", formValues()))
		Expect(rec.Code).To(Equal(http.StatusFound))
		Expect(rec.Header().Get("Location")).To(Equal("/menu/"))

		flashes := testsupport.Flashes(sessions, rec)
		Expect(flashes).To(HaveLen(1))
		Expect(flashes[0].Level).To(Equal(session.LevelSuccess))

		menu := serve(httptest.NewRequest(http.MethodGet, "/menu/", nil))
		Expect(menu.Code).To(Equal(http.StatusOK))
		Expect(menu.Body.String()).To(ContainSubstring("Padaria Central"))
		Expect(menu.Body.String()).To(ContainSubstring("CEP 50050-120"))
	})

	It("should re-render the form with field errors", func() {
		values := formValues()
		values.Set("cep", "123")
		rec := serve(postForm("/criar/empresa/", values))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("O CEP deve conter 8 dígitos numéricos"))
		Expect(rec.Body.String()).To(ContainSubstring(`value="Padaria Central"`))
	})

	It("should prefill the edit form", func() {
		created, err := service.Create(ctx, company.CompanyDTOFromForm(formValues().Get))
		Expect(err).NotTo(HaveOccurred())

		rec := serve(httptest.NewRequest(http.MethodGet, company.EditPath(created.ID), nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`value="Rua das Flores"`))
	})

	It("should flash and redirect for unknown companies", func() {
		rec := serve(httptest.NewRequest(http.MethodGet, "/editar/empresa/42/", nil))
		Expect(rec.Code).To(Equal(http.StatusFound))
		Expect(rec.Header().Get("Location")).To(Equal("/menu/"))

		flashes := testsupport.Flashes(sessions, rec)
		Expect(flashes).To(ConsistOf(session.Flash{Level: session.LevelError, Message: internal.MsgCompanyNotFound}))
	})
})
