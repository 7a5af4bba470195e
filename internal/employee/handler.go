package employee

import (
	"context"
	"net/http"

	"github.com/frahmantamala/timeclock/internal"
	"github.com/frahmantamala/timeclock/internal/company"
	"github.com/frahmantamala/timeclock/internal/session"
	"github.com/frahmantamala/timeclock/internal/transport"
	"github.com/go-chi/chi"
)

const (
	msgCreated = "Funcionário cadastrado com sucesso!"
	msgUpdated = "Funcionário atualizado com sucesso!"
)

type ServiceAPI interface {
	Company(ctx context.Context, id int64) (*company.Company, error)
	ListByCompany(ctx context.Context, companyID int64) ([]*Employee, error)
	Get(ctx context.Context, companyID, employeeID int64) (*Employee, error)
	CreateEmployee(ctx context.Context, companyID int64, dto CreateEmployeeDTO) (*Employee, error)
	UpdateEmployee(ctx context.Context, companyID, employeeID int64, dto UpdateEmployeeDTO) (*Employee, error)
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

type listData struct {
	Company   *company.Company
	Employees []*Employee
}

type formData struct {
	Action      string
	Editing     bool
	CompanyID   int64
	CompanyName string
}

// List shows the employees of ?empresa= and remembers that company for the following pages.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		companyID int64
		err       error
	)
	if raw := r.URL.Query().Get("empresa"); raw != "" {
		if companyID, err = transport.ParseID(raw); err != nil {
			h.RedirectWithFlash(w, r, transport.MenuURL, session.LevelError, internal.MsgCompanyNotFound)
			return
		}
	} else if companyID, err = h.SelectedCompanyID(r); err != nil {
		h.HandleServiceError(w, r, err, transport.MenuURL)
		return
	}

	c, err := h.Service.Company(ctx, companyID)
	if err != nil {
		h.HandleServiceError(w, r, err, transport.MenuURL)
		return
	}

	if s, ok := session.FromContext(ctx); ok {
		s.SelectCompany(c.ID)
		if err := h.Sessions.Save(ctx, s); err != nil {
			h.ServerError(w, r, err)
			return
		}
	}

	employees, err := h.Service.ListByCompany(ctx, c.ID)
	if err != nil {
		h.ServerError(w, r, err)
		return
	}

	h.Render(w, r, http.StatusOK, "employees", transport.Page{
		Title: "Funcionários",
		Data:  listData{Company: c, Employees: employees},
	})
}

func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	c, ok := h.selectedCompany(w, r)
	if !ok {
		return
	}
	h.renderForm(w, r, "Cadastrar funcionário", formData{
		Action:      CreatePath,
		CompanyID:   c.ID,
		CompanyName: c.Name,
	}, transport.NewForm(nil))
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := h.selectedCompany(w, r)
	if !ok {
		return
	}
	if err := h.ParseForm(r); err != nil {
		h.HandleServiceError(w, r, err, ListURL(c.ID))
		return
	}

	dto := CreateEmployeeDTOFromForm(r.PostForm.Get)
	if _, err := h.Service.CreateEmployee(r.Context(), c.ID, dto); err != nil {
		if internal.IsValidation(err) {
			h.renderForm(w, r, "Cadastrar funcionário", formData{
				Action:      CreatePath,
				CompanyID:   c.ID,
				CompanyName: c.Name,
			}, transport.FormWithError(r.PostForm, err))
			return
		}
		h.HandleServiceError(w, r, err, ListURL(c.ID))
		return
	}

	h.RedirectWithFlash(w, r, ListURL(c.ID), session.LevelSuccess, msgCreated)
}

func (h *Handler) EditPage(w http.ResponseWriter, r *http.Request) {
	c, ok := h.selectedCompany(w, r)
	if !ok {
		return
	}
	employeeID, ok := h.employeeID(w, r, c.ID)
	if !ok {
		return
	}

	e, err := h.Service.Get(r.Context(), c.ID, employeeID)
	if err != nil {
		h.HandleServiceError(w, r, err, ListURL(c.ID))
		return
	}

	h.renderForm(w, r, "Editar funcionário", formData{
		Action:      EditPath(e.ID),
		Editing:     true,
		CompanyID:   c.ID,
		CompanyName: c.Name,
	}, transport.NewForm(FormValues(e)))
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	c, ok := h.selectedCompany(w, r)
	if !ok {
		return
	}
	employeeID, ok := h.employeeID(w, r, c.ID)
	if !ok {
		return
	}
	if err := h.ParseForm(r); err != nil {
		h.HandleServiceError(w, r, err, ListURL(c.ID))
		return
	}

	dto := UpdateEmployeeDTOFromForm(r.PostForm.Get)
	if _, err := h.Service.UpdateEmployee(r.Context(), c.ID, employeeID, dto); err != nil {
		if internal.IsValidation(err) {
			h.renderForm(w, r, "Editar funcionário", formData{
				Action:      EditPath(employeeID),
				Editing:     true,
				CompanyID:   c.ID,
				CompanyName: c.Name,
			}, transport.FormWithError(r.PostForm, err))
			return
		}
		h.HandleServiceError(w, r, err, ListURL(c.ID))
		return
	}

	h.RedirectWithFlash(w, r, ListURL(c.ID), session.LevelSuccess, msgUpdated)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, title string, data formData, form *transport.Form) {
	h.Render(w, r, http.StatusOK, "employee_form", transport.Page{
		Title: title,
		Form:  form,
		Data:  data,
	})
}

// selectedCompany re-validates the company stored in the session.
func (h *Handler) selectedCompany(w http.ResponseWriter, r *http.Request) (*company.Company, bool) {
	companyID, err := h.SelectedCompanyID(r)
	if err != nil {
		h.HandleServiceError(w, r, err, transport.MenuURL)
		return nil, false
	}
	c, err := h.Service.Company(r.Context(), companyID)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeNotFound {
			err = internal.ErrCompanyNotSelected
		}
		h.HandleServiceError(w, r, err, transport.MenuURL)
		return nil, false
	}
	return c, true
}

func (h *Handler) employeeID(w http.ResponseWriter, r *http.Request, companyID int64) (int64, bool) {
	id, err := transport.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.RedirectWithFlash(w, r, ListURL(companyID), session.LevelError, internal.MsgEmployeeNotFound)
		return 0, false
	}
	return id, true
}
