package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/timeclock/internal"
	"github.com/frahmantamala/timeclock/internal/session"
)

// Guard decides whether a principal may reach a page.
type Guard func(p *internal.Principal) bool

func AllowManager(p *internal.Principal) bool {
	return p.Authenticated() && p.IsManager
}

// AllowEmployee admits authenticated non-managers that are linked to an employee.
func AllowEmployee(p *internal.Principal) bool {
	return p.Authenticated() && !p.IsManager && p.EmployeeID != nil
}

// Flasher is the part of the session manager the guards need.
type Flasher interface {
	SetFlash(w http.ResponseWriter, r *http.Request, level session.Level, message string)
}

type RBACAuthorization struct {
	flasher Flasher
	logger  *slog.Logger
}

func NewRBACAuthorization(flasher Flasher, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		flasher: flasher,
		logger:  logger,
	}
}

// Check runs next when guard admits the request principal. Anything else is sent to the login page.
func (ra *RBACAuthorization) Check(next http.Handler, guard Guard, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, _ := internal.PrincipalFromContext(r.Context())
		if guard(principal) {
			next.ServeHTTP(w, r)
			return
		}

		if !principal.Authenticated() {
			ra.logger.InfoContext(r.Context(), "anonymous access redirected to login", "path", r.URL.Path)
		} else {
			ra.logger.WarnContext(r.Context(), "access denied",
				"user_id", principal.UserID,
				"required_role", name,
				"path", r.URL.Path)
		}
		ra.flasher.SetFlash(w, r, session.LevelError, internal.MsgAccessDenied)
		http.Redirect(w, r, LoginPath, http.StatusFound)
	})
}

func (ra *RBACAuthorization) Middleware(guard Guard, name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next, guard, name)
	}
}

func (ra *RBACAuthorization) RequireManager() func(http.Handler) http.Handler {
	return ra.Middleware(AllowManager, "manager")
}

func (ra *RBACAuthorization) RequireEmployee() func(http.Handler) http.Handler {
	return ra.Middleware(AllowEmployee, "employee")
}
