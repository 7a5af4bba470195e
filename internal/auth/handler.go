package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/frahmantamala/timeclock/internal"
	"github.com/frahmantamala/timeclock/internal/session"
	"github.com/frahmantamala/timeclock/internal/transport"
	"github.com/frahmantamala/timeclock/pkg/logger"
)

const CSRFField = "csrf_token"

const msgLoggedOut = "Você saiu do sistema."

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (*internal.Principal, error)
	PrincipalByUserID(ctx context.Context, userID int64) (*internal.Principal, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(base *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: base,
		Service:     svc,
	}
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if p, ok := internal.PrincipalFromContext(r.Context()); ok && p.Authenticated() {
		h.Redirect(w, r, LandingPage(p))
		return
	}
	h.Render(w, r, http.StatusOK, "login", transport.Page{Title: "Login"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.ParseForm(r); err != nil {
		h.Render(w, r, http.StatusBadRequest, "login", transport.Page{Title: "Login", Form: transport.FormWithError(nil, err)})
		return
	}

	dto := LoginDTOFromForm(r.PostForm.Get)
	principal, err := h.Service.Authenticate(ctx, dto)
	if err != nil {
		appErr, ok := internal.IsAppError(err)
		if ok && (appErr.Type == internal.ErrorTypeValidation || appErr.Type == internal.ErrorTypeUnauthorized) {
			h.Render(w, r, http.StatusOK, "login", transport.Page{
				Title: "Login",
				Form:  transport.FormWithError(r.PostForm, err),
			})
			return
		}
		h.ServerError(w, r, err)
		return
	}

	// a new login always gets a fresh session id
	if current, ok := session.FromContext(ctx); ok {
		if err := h.Sessions.Destroy(ctx, w, current); err != nil {
			h.Logger.WarnContext(ctx, "failed to destroy previous session", "error", err)
		}
	}

	if _, err := h.Sessions.Start(ctx, w, principal.UserID, principal.EmployeeID); err != nil {
		h.ServerError(w, r, err)
		return
	}

	h.Redirect(w, r, LandingPage(principal))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	current, _ := session.FromContext(ctx)
	if err := h.Sessions.Destroy(ctx, w, current); err != nil {
		h.Logger.WarnContext(ctx, "failed to destroy session", "error", err)
	}
	h.RedirectWithFlash(w, r, LoginPath, session.LevelInfo, msgLoggedOut)
}

// Home sends the visitor to the page matching their role.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	p, _ := internal.PrincipalFromContext(r.Context())
	h.Redirect(w, r, LandingPage(p))
}

// SessionMiddleware puts the session and its principal into the request context.
// Requests without a usable session continue anonymously.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !h.Sessions.HasCookie(r) {
			next.ServeHTTP(w, r)
			return
		}

		s, err := h.Sessions.Load(ctx, r)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) && !errors.Is(err, session.ErrSessionExpired) && !errors.Is(err, session.ErrInvalidToken) {
				h.ServerError(w, r, err)
				return
			}
			h.Logger.InfoContext(ctx, "discarding session cookie", "reason", err.Error())
			h.Sessions.ClearCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		principal, err := h.Service.PrincipalByUserID(ctx, s.UserID)
		if err != nil {
			if !errors.Is(err, ErrUserNotFound) {
				h.ServerError(w, r, err)
				return
			}
			h.Logger.InfoContext(ctx, "session user no longer active", "user_id", s.UserID)
			if err := h.Sessions.Destroy(ctx, w, s); err != nil {
				h.Logger.WarnContext(ctx, "failed to destroy session", "error", err)
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx = session.NewContext(ctx, s)
		ctx = internal.ContextWithPrincipal(ctx, principal)
		ctx = logger.With(ctx, "user_id", principal.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CSRFMiddleware requires state-changing requests of a session to echo its token.
func (h *Handler) CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		s, ok := session.FromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		token := r.PostFormValue(CSRFField)
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.CSRFToken)) != 1 {
			h.Logger.WarnContext(r.Context(), "csrf token mismatch", "user_id", s.UserID, "path", r.URL.Path)
			if err := h.Sessions.Destroy(r.Context(), w, s); err != nil {
				h.Logger.WarnContext(r.Context(), "failed to destroy session", "error", err)
			}
			h.RedirectWithFlash(w, r, LoginPath, session.LevelError, internal.MsgInvalidCSRFToken)
			return
		}

		next.ServeHTTP(w, r)
	})
}
