package employee

import (
	"fmt"
	"net/url"
	"time"

	employeeDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/timeclock/internal/core/datamodel/user"
)

const (
	ListPath   = "/funcionarios/"
	CreatePath = "/criar/funcionarios/"
)

func ListURL(companyID int64) string {
	return fmt.Sprintf("%s?empresa=%d", ListPath, companyID)
}

func EditPath(id int64) string {
	return fmt.Sprintf("/editar/funcionarios/%d/", id)
}

// Account is an employee row together with its login.
type Account struct {
	Employee *employeeDatamodel.Employee
	User     *userDatamodel.User
}

type Employee struct {
	ID          int64
	Name        string
	Email       string
	CompanyID   int64
	CompanyName string
	UserID      int64
	CPF         string
	IsActive    bool
	CreatedAt   time.Time
}

func FromAccount(a Account) *Employee {
	e := &Employee{
		ID:        a.Employee.ID,
		Name:      a.Employee.Name,
		Email:     a.Employee.Email,
		CompanyID: a.Employee.CompanyID,
		CreatedAt: a.Employee.CreatedAt,
	}
	if a.Employee.Company != nil {
		e.CompanyName = a.Employee.Company.Name
	}
	if a.User != nil {
		e.UserID = a.User.ID
		e.CPF = a.User.CPF
		e.IsActive = a.User.IsActive
	}
	return e
}

// FormValues fills the edit form; the password is never echoed back.
func FormValues(e *Employee) url.Values {
	values := url.Values{}
	values.Set("nome", e.Name)
	values.Set("email", e.Email)
	values.Set("cpf", e.CPF)
	return values
}
