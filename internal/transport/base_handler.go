package transport

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/timeclock/internal"
	"github.com/frahmantamala/timeclock/internal/session"
	"github.com/frahmantamala/timeclock/internal/transport/view"
	"github.com/frahmantamala/timeclock/pkg/logger"
)

const (
	LoginURL = "/login/"
	MenuURL  = "/menu/"
)

// BaseHandler provides common functionality for page handlers
type BaseHandler struct {
	Logger   *slog.Logger
	Views    *view.Renderer
	Sessions *session.Manager
}

// NewBaseHandler creates a base handler with logger, templates and session manager
func NewBaseHandler(lg *slog.Logger, views *view.Renderer, sessions *session.Manager) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg, Views: views, Sessions: sessions}
}

// Render writes an HTML page, filling the request-scoped fields of p.
func (h *BaseHandler) Render(w http.ResponseWriter, r *http.Request, status int, page string, p Page) {
	if principal, ok := internal.PrincipalFromContext(r.Context()); ok {
		p.Principal = principal
	}
	if s, ok := session.FromContext(r.Context()); ok {
		p.CSRFToken = s.CSRFToken
	}
	if h.Sessions != nil {
		p.Flashes = h.Sessions.PopFlashes(w, r)
	}
	if p.Form == nil {
		p.Form = NewForm(nil)
	}

	var buf bytes.Buffer
	if err := h.Views.Render(&buf, page, p); err != nil {
		h.ServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.Logger.ErrorContext(r.Context(), "failed to write page", "page", page, "error", err)
	}
}

func (h *BaseHandler) Redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *BaseHandler) Flash(w http.ResponseWriter, r *http.Request, level session.Level, message string) {
	if h.Sessions == nil {
		return
	}
	h.Sessions.SetFlash(w, r, level, message)
}

func (h *BaseHandler) RedirectWithFlash(w http.ResponseWriter, r *http.Request, url string, level session.Level, message string) {
	h.Flash(w, r, level, message)
	h.Redirect(w, r, url)
}

// HandleServiceError turns non-validation service errors into a flash plus redirect, or a 500 page.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if appErr, ok := internal.IsAppError(err); ok {
		switch appErr.Type {
		case internal.ErrorTypeNotFound, internal.ErrorTypeForbidden, internal.ErrorTypeConflict, internal.ErrorTypeValidation:
			h.Logger.WarnContext(r.Context(), "request refused", "code", appErr.Code, "path", r.URL.Path)
			h.RedirectWithFlash(w, r, fallback, session.LevelError, appErr.GetDetailedMessage())
			return
		case internal.ErrorTypeUnauthorized:
			h.RedirectWithFlash(w, r, LoginURL, session.LevelError, appErr.Message)
			return
		}
	}
	h.ServerError(w, r, err)
}

// ServerError logs err and renders the generic error page.
func (h *BaseHandler) ServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.Logger.ErrorContext(r.Context(), "internal server error", "error", err, "method", r.Method, "path", r.URL.Path)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	if h.Views == nil || h.Views.Render(w, "error", Page{Title: "Erro"}) != nil {
		_, _ = w.Write([]byte("Erro interno do servidor."))
	}
}

// SelectedCompanyID reads the company picked from the menu. It is only a hint, callers re-check it.
func (h *BaseHandler) SelectedCompanyID(r *http.Request) (int64, error) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		return 0, internal.ErrCompanyNotSelected
	}
	id, ok := s.SelectedCompany()
	if !ok {
		return 0, internal.ErrCompanyNotSelected
	}
	return id, nil
}

// ParseForm reads an url-encoded body.
func (h *BaseHandler) ParseForm(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return internal.NewValidationError("formulário inválido", internal.ErrCodeValidationFailed).WithCause(err)
	}
	return nil
}

// ParseID parses a positive integer identifier.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid identifier")
	}
	return id, nil
}
