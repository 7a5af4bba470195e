package rest

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/timeclock/internal/attendance"
	"github.com/frahmantamala/timeclock/internal/auth"
	"github.com/frahmantamala/timeclock/internal/company"
	"github.com/frahmantamala/timeclock/internal/employee"
	"github.com/frahmantamala/timeclock/internal/transport/middleware"
	"github.com/frahmantamala/timeclock/internal/transport/swagger"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers is everything the router mounts.
type Handlers struct {
	Auth           *auth.Handler
	RBAC           *auth.RBACAuthorization
	Company        *company.Handler
	Employee       *employee.Handler
	Attendance     *attendance.Handler
	Health         *HealthHandler
	OpenAPI        []byte
	AllowedOrigins []string
	// ErrorPage renders the generic 500 page after a recovered panic.
	ErrorPage func(w http.ResponseWriter, r *http.Request, err error)
	Logger    *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, h Handlers) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(h.Logger))
	router.Use(middleware.RecoveryMiddleware(h.Logger, h.ErrorPage))
	router.Use(middleware.CORS(h.AllowedOrigins))

	if h.Health != nil {
		router.Get("/healthz", h.Health.Health)
		router.Get("/ping", h.Health.Ping)
	}
	if len(h.OpenAPI) > 0 {
		router.Get(swagger.SpecPath, swagger.SpecHandler(h.OpenAPI))
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Group(func(r chi.Router) {
		r.Use(h.Auth.SessionMiddleware)
		r.Use(h.Auth.CSRFMiddleware)

		r.Get("/", h.Auth.Home)
		r.Get(auth.LoginPath, h.Auth.LoginPage)
		r.Post(auth.LoginPath, h.Auth.Login)
		r.Get("/logout/", h.Auth.Logout)

		r.Group(func(mr chi.Router) {
			mr.Use(h.RBAC.RequireManager())

			mr.Get(auth.MenuPath, h.Company.Menu)
			mr.Get(company.CreatePath, h.Company.CreatePage)
			mr.Post(company.CreatePath, h.Company.Create)
			mr.Get("/editar/empresa/{id}/", h.Company.EditPage)
			mr.Post("/editar/empresa/{id}/", h.Company.Edit)

			mr.Get(employee.ListPath, h.Employee.List)
			mr.Get(employee.CreatePath, h.Employee.CreatePage)
			mr.Post(employee.CreatePath, h.Employee.Create)
			mr.Get("/editar/funcionarios/{id}/", h.Employee.EditPage)
			mr.Post("/editar/funcionarios/{id}/", h.Employee.Edit)

			mr.Get(attendance.ClockPath, h.Attendance.ClockPage)
			mr.Post(attendance.ClockPath, h.Attendance.Clock)
			mr.Get(attendance.ManagerRecordsPath, h.Attendance.ManagerFilterPage)
			mr.Post(attendance.ManagerRecordsPath, h.Attendance.ManagerFilter)
		})

		r.Group(func(er chi.Router) {
			er.Use(h.RBAC.RequireEmployee())

			er.Get(attendance.OwnRecordsPath, h.Attendance.EmployeeFilterPage)
			er.Post(attendance.OwnRecordsPath, h.Attendance.EmployeeFilter)
		})
	})
}
