package attendance

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/frahmantamala/timeclock/internal"
	"github.com/frahmantamala/timeclock/internal/company"
	employeeDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/employee"
	"github.com/frahmantamala/timeclock/internal/report"
	"github.com/frahmantamala/timeclock/internal/session"
	"github.com/frahmantamala/timeclock/internal/transport"
)

const (
	ClockPath          = "/ponto/"
	ManagerRecordsPath = "/funcionarios/pontos/"
	OwnRecordsPath     = "/pontos/"

	msgPickEmployee = "Selecione uma empresa e depois um funcionário!"
	msgOpened       = "Ponto Aberto para %s às %s."
	msgClosed       = "Ponto Fechado para %s. Horas trabalhadas: %s"
	clockLayout     = "15:04:05"
)

// ManagerRecordsURL is the filter page of one employee.
func ManagerRecordsURL(employeeID int64) string {
	return fmt.Sprintf("%s?funcionario=%d", ManagerRecordsPath, employeeID)
}

type ServiceAPI interface {
	Clock(ctx context.Context, companyID int64, dto ClockDTO) (*ClockResult, error)
	Employee(ctx context.Context, companyID, employeeID int64) (*employeeDatamodel.Employee, error)
	FilterForManager(ctx context.Context, companyID, employeeID int64, dto FilterDTO) (*Listing, error)
	OwnEmployee(ctx context.Context, principal *internal.Principal, sessionEmployeeID *int64) (*employeeDatamodel.Employee, error)
	FilterForEmployee(ctx context.Context, principal *internal.Principal, sessionEmployeeID *int64, dto FilterDTO) (*Listing, error)
	Now() time.Time
	Location() *time.Location
}

type CompanyReader interface {
	Get(ctx context.Context, id int64) (*company.Company, error)
}

type Handler struct {
	*transport.BaseHandler
	Service   ServiceAPI
	Companies CompanyReader
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI, companies CompanyReader) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
		Companies:   companies,
	}
}

type clockData struct {
	CompanyID   int64
	CompanyName string
}

type recordsData struct {
	Action       string
	EmployeeName string
	Filtered     bool
	Records      []RecordView
}

func (h *Handler) ClockPage(w http.ResponseWriter, r *http.Request) {
	c, ok := h.selectedCompany(w, r)
	if !ok {
		return
	}
	h.renderClock(w, r, c, transport.NewForm(nil))
}

// Clock registers an entry or exit for the CPF typed on the company terminal.
func (h *Handler) Clock(w http.ResponseWriter, r *http.Request) {
	c, ok := h.selectedCompany(w, r)
	if !ok {
		return
	}
	if err := h.ParseForm(r); err != nil {
		h.HandleServiceError(w, r, err, ClockPath)
		return
	}

	result, err := h.Service.Clock(r.Context(), c.ID, ClockDTOFromForm(r.PostForm.Get))
	if err != nil {
		if internal.IsValidation(err) {
			h.renderClock(w, r, c, transport.FormWithError(r.PostForm, err))
			return
		}
		h.HandleServiceError(w, r, err, ClockPath)
		return
	}

	h.RedirectWithFlash(w, r, ClockPath, session.LevelSuccess, h.clockMessage(result))
}

func (h *Handler) clockMessage(result *ClockResult) string {
	if result.State == StateClosed {
		return fmt.Sprintf(msgClosed, result.EmployeeName, result.Worked)
	}
	entry := result.Record.EntryAt.In(h.Service.Location()).Format(clockLayout)
	return fmt.Sprintf(msgOpened, result.EmployeeName, entry)
}

func (h *Handler) renderClock(w http.ResponseWriter, r *http.Request, c *company.Company, form *transport.Form) {
	h.Render(w, r, http.StatusOK, "clock", transport.Page{
		Title: "Registrar ponto",
		Form:  form,
		Data:  clockData{CompanyID: c.ID, CompanyName: c.Name},
	})
}

func (h *Handler) ManagerFilterPage(w http.ResponseWriter, r *http.Request) {
	c, employeeID, ok := h.managerScope(w, r)
	if !ok {
		return
	}
	emp, err := h.Service.Employee(r.Context(), c.ID, employeeID)
	if err != nil {
		h.HandleServiceError(w, r, err, transport.MenuURL)
		return
	}
	h.renderRecords(w, r, http.StatusOK, recordsData{
		Action:       ManagerRecordsURL(emp.ID),
		EmployeeName: emp.Name,
	}, transport.NewForm(nil))
}

func (h *Handler) ManagerFilter(w http.ResponseWriter, r *http.Request) {
	c, employeeID, ok := h.managerScope(w, r)
	if !ok {
		return
	}
	if err := h.ParseForm(r); err != nil {
		h.HandleServiceError(w, r, err, ManagerRecordsURL(employeeID))
		return
	}

	ctx := r.Context()
	data := recordsData{Action: ManagerRecordsURL(employeeID)}

	dto, formErr := FilterDTOFromForm(r.PostForm.Get)
	if formErr != nil {
		emp, err := h.Service.Employee(ctx, c.ID, employeeID)
		if err != nil {
			h.HandleServiceError(w, r, err, transport.MenuURL)
			return
		}
		data.EmployeeName = emp.Name
		h.renderRecords(w, r, http.StatusOK, data, transport.FormWithError(r.PostForm, formErr))
		return
	}

	listing, err := h.Service.FilterForManager(ctx, c.ID, employeeID, dto)
	if err != nil {
		if internal.IsValidation(err) {
			emp, empErr := h.Service.Employee(ctx, c.ID, employeeID)
			if empErr != nil {
				h.HandleServiceError(w, r, empErr, transport.MenuURL)
				return
			}
			data.EmployeeName = emp.Name
			h.renderRecords(w, r, http.StatusOK, data, transport.FormWithError(r.PostForm, err))
			return
		}
		h.HandleServiceError(w, r, err, transport.MenuURL)
		return
	}

	h.respond(w, r, data, dto, listing)
}

func (h *Handler) EmployeeFilterPage(w http.ResponseWriter, r *http.Request) {
	principal, sessionEmployeeID := h.employeeScope(r)
	emp, err := h.Service.OwnEmployee(r.Context(), principal, sessionEmployeeID)
	if err != nil {
		h.refuseEmployee(w, r, err)
		return
	}
	h.renderRecords(w, r, http.StatusOK, recordsData{
		Action:       OwnRecordsPath,
		EmployeeName: emp.Name,
	}, transport.NewForm(nil))
}

func (h *Handler) EmployeeFilter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, sessionEmployeeID := h.employeeScope(r)

	emp, err := h.Service.OwnEmployee(ctx, principal, sessionEmployeeID)
	if err != nil {
		h.refuseEmployee(w, r, err)
		return
	}
	if err := h.ParseForm(r); err != nil {
		h.HandleServiceError(w, r, err, OwnRecordsPath)
		return
	}

	data := recordsData{Action: OwnRecordsPath, EmployeeName: emp.Name}

	dto, formErr := FilterDTOFromForm(r.PostForm.Get)
	if formErr != nil {
		h.renderRecords(w, r, http.StatusOK, data, transport.FormWithError(r.PostForm, formErr))
		return
	}

	listing, err := h.Service.FilterForEmployee(ctx, principal, sessionEmployeeID, dto)
	if err != nil {
		if internal.IsValidation(err) {
			h.renderRecords(w, r, http.StatusOK, data, transport.FormWithError(r.PostForm, err))
			return
		}
		h.refuseEmployee(w, r, err)
		return
	}

	h.respond(w, r, data, dto, listing)
}

// respond shows the listing on the page, or sends it as the requested document.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, data recordsData, dto FilterDTO, listing *Listing) {
	if !dto.Export() {
		data.EmployeeName = listing.EmployeeName
		data.Filtered = true
		data.Records = listing.Records
		h.renderRecords(w, r, http.StatusOK, data, transport.NewForm(r.PostForm))
		return
	}

	exporter, err := report.ForFormat(dto.Format)
	if err != nil {
		h.ServerError(w, r, err)
		return
	}

	doc := h.document(listing)
	var buf bytes.Buffer
	if err := exporter.Export(&buf, doc); err != nil {
		h.ServerError(w, r, err)
		return
	}

	h.Logger.InfoContext(r.Context(), "attendance exported",
		"employee_id", listing.EmployeeID,
		"format", dto.Format,
		"rows", len(doc.Rows))

	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename(exporter, doc)))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.Logger.ErrorContext(r.Context(), "failed to write export", "error", err)
	}
}

func (h *Handler) document(listing *Listing) report.Document {
	loc := h.Service.Location()
	clock := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.In(loc).Format(clockLayout)
	}

	doc := report.Document{
		EmployeeName: listing.EmployeeName,
		GeneratedAt:  h.Service.Now().In(loc),
		Rows:         make([]report.Row, 0, len(listing.Records)),
	}
	for _, rec := range listing.Records {
		doc.Rows = append(doc.Rows, report.Row{
			Date:   rec.Date,
			Entry:  clock(rec.Entry),
			Exit:   clock(rec.Exit),
			Worked: rec.Worked,
		})
	}
	return doc
}

func (h *Handler) renderRecords(w http.ResponseWriter, r *http.Request, status int, data recordsData, form *transport.Form) {
	h.Render(w, r, status, "records", transport.Page{
		Title: "Pontos",
		Form:  form,
		Data:  data,
	})
}

// managerScope resolves the selected company and the ?funcionario= parameter.
func (h *Handler) managerScope(w http.ResponseWriter, r *http.Request) (*company.Company, int64, bool) {
	raw := r.URL.Query().Get("funcionario")
	if raw == "" {
		h.RedirectWithFlash(w, r, transport.MenuURL, session.LevelError, msgPickEmployee)
		return nil, 0, false
	}
	employeeID, err := transport.ParseID(raw)
	if err != nil {
		h.RedirectWithFlash(w, r, transport.MenuURL, session.LevelError, internal.MsgEmployeeNotFound)
		return nil, 0, false
	}
	c, ok := h.selectedCompany(w, r)
	if !ok {
		return nil, 0, false
	}
	return c, employeeID, true
}

func (h *Handler) employeeScope(r *http.Request) (*internal.Principal, *int64) {
	principal, _ := internal.PrincipalFromContext(r.Context())
	var sessionEmployeeID *int64
	if s, ok := session.FromContext(r.Context()); ok {
		sessionEmployeeID = s.EmployeeID
	}
	return principal, sessionEmployeeID
}

// refuseEmployee sends refused employee requests back to the login page.
func (h *Handler) refuseEmployee(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeForbidden {
		h.Logger.WarnContext(r.Context(), "employee page refused", "code", appErr.Code)
		h.RedirectWithFlash(w, r, transport.LoginURL, session.LevelError, appErr.Message)
		return
	}
	h.HandleServiceError(w, r, err, transport.LoginURL)
}

func (h *Handler) selectedCompany(w http.ResponseWriter, r *http.Request) (*company.Company, bool) {
	companyID, err := h.SelectedCompanyID(r)
	if err != nil {
		h.HandleServiceError(w, r, err, transport.MenuURL)
		return nil, false
	}
	c, err := h.Companies.Get(r.Context(), companyID)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeNotFound {
			err = internal.ErrCompanyNotSelected
		}
		h.HandleServiceError(w, r, err, transport.MenuURL)
		return nil, false
	}
	return c, true
}
