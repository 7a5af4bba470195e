package company

import (
	"context"
	"fmt"
	"net/http"

	"github.com/frahmantamala/timeclock/internal"
	"github.com/frahmantamala/timeclock/internal/session"
	"github.com/frahmantamala/timeclock/internal/transport"
	"github.com/go-chi/chi"
)

const (
	CreatePath = "/criar/empresa/"

	msgCreated = "Empresa cadastrada com sucesso!"
	msgUpdated = "Empresa atualizada com sucesso!"
)

func EditPath(id int64) string {
	return fmt.Sprintf("/editar/empresa/%d/", id)
}

type ServiceAPI interface {
	List(ctx context.Context) ([]*Company, error)
	Get(ctx context.Context, id int64) (*Company, error)
	Create(ctx context.Context, dto CompanyDTO) (*Company, error)
	Update(ctx context.Context, id int64, dto CompanyDTO) (*Company, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

type formData struct {
	Action string
}

func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	companies, err := h.Service.List(r.Context())
	if err != nil {
		h.ServerError(w, r, err)
		return
	}
	h.Render(w, r, http.StatusOK, "menu", transport.Page{Title: "Empresas", Data: companies})
}

func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, "Cadastrar empresa", CreatePath, transport.NewForm(nil))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := h.ParseForm(r); err != nil {
		h.HandleServiceError(w, r, err, transport.MenuURL)
		return
	}

	dto := CompanyDTOFromForm(r.PostForm.Get)
	c, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		if internal.IsValidation(err) {
			h.renderForm(w, r, "Cadastrar empresa", CreatePath, transport.FormWithError(r.PostForm, err))
			return
		}
		h.HandleServiceError(w, r, err, transport.MenuURL)
		return
	}

	h.Logger.InfoContext(r.Context(), "company created through form", "company_id", c.ID)
	h.RedirectWithFlash(w, r, transport.MenuURL, session.LevelSuccess, msgCreated)
}

func (h *Handler) EditPage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.companyID(w, r)
	if !ok {
		return
	}

	c, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, r, err, transport.MenuURL)
		return
	}

	h.renderForm(w, r, "Editar empresa", EditPath(c.ID), transport.NewForm(FormValues(c)))
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.companyID(w, r)
	if !ok {
		return
	}
	if err := h.ParseForm(r); err != nil {
		h.HandleServiceError(w, r, err, transport.MenuURL)
		return
	}

	dto := CompanyDTOFromForm(r.PostForm.Get)
	if _, err := h.Service.Update(r.Context(), id, dto); err != nil {
		if internal.IsValidation(err) {
			h.renderForm(w, r, "Editar empresa", EditPath(id), transport.FormWithError(r.PostForm, err))
			return
		}
		h.HandleServiceError(w, r, err, transport.MenuURL)
		return
	}

	h.RedirectWithFlash(w, r, transport.MenuURL, session.LevelSuccess, msgUpdated)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, title, action string, form *transport.Form) {
	h.Render(w, r, http.StatusOK, "company_form", transport.Page{
		Title: title,
		Form:  form,
		Data:  formData{Action: action},
	})
}

func (h *Handler) companyID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := transport.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.RedirectWithFlash(w, r, transport.MenuURL, session.LevelError, internal.MsgCompanyNotFound)
		return 0, false
	}
	return id, true
}
