package service

import (
	"context"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/iliyamo/complaints-admin-portal/internal/gateway"
	"github.com/iliyamo/complaints-admin-portal/internal/model"
)

// EmployeeAPI is the part of the backend the admin dashboard uses.
type EmployeeAPI interface {
	ListEmployees(ctx context.Context) ([]model.Employee, error)
	CreateEmployee(ctx context.Context, req gateway.CreateEmployeeRequest) (model.Employee, error)
}

// EmployeeDraft is the employee creation form.
type EmployeeDraft struct {
	Name          string `json:"name"`
	NationalID    string `json:"national_id"`
	Identifier    string `json:"identifier"`
	Password      string `json:"password"`
	DestinationID int64  `json:"destination_id"`
}

// DefaultEmployeeDraft is the form after a reset.
func DefaultEmployeeDraft() EmployeeDraft { return EmployeeDraft{DestinationID: 1} }

// FieldErrors maps a form field (by its JSON name) to its message.
type FieldErrors map[string]string

// ValidateEmployee checks d locally. An empty map means valid.
func ValidateEmployee(d EmployeeDraft) FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(d.Name) == "" {
		errs["name"] = "الاسم مطلوب"
	}
	if strings.TrimSpace(d.NationalID) == "" {
		errs["national_id"] = "الهوية الوطنية مطلوبة"
	}
	switch {
	case strings.TrimSpace(d.Identifier) == "":
		errs["identifier"] = "المعرف مطلوب"
	case !strings.HasPrefix(d.Identifier, "+"):
		errs["identifier"] = "يجب أن يبدأ المعرف بعلامة +"
	}
	switch {
	case strings.TrimSpace(d.Password) == "":
		errs["password"] = "كلمة المرور مطلوبة"
	case utf8.RuneCountInString(d.Password) < 6:
		errs["password"] = "يجب أن تكون كلمة المرور 6 أحرف على الأقل"
	}
	if d.DestinationID < 1 {
		errs["destination_id"] = "رقم الجهة مطلوب"
	}
	return errs
}

// SubmitOutcome tells the dashboard what to do after a submit.
type SubmitOutcome string

const (
	OutcomeCreated SubmitOutcome = "created" // close the form and refetch the list
	OutcomeInvalid SubmitOutcome = "invalid" // show field errors
	OutcomeFailed  SubmitOutcome = "failed"  // show the message, keep the form
	OutcomeCancel  SubmitOutcome = "cancel"  // session rejected; close and redirect
)

// SubmitResult is the outcome of EmployeeForm.Submit.
type SubmitResult struct {
	Outcome  SubmitOutcome   `json:"outcome"`
	Message  string          `json:"message"`
	Fields   FieldErrors     `json:"fields,omitempty"`
	Employee *model.Employee `json:"employee,omitempty"`
	Draft    EmployeeDraft   `json:"draft"`
}

// EmployeeForm validates and submits new employees for one session.
type EmployeeForm struct {
	api     EmployeeAPI
	session SessionTerminator
	log     *zap.Logger

	mu    sync.Mutex
	draft EmployeeDraft
}

func NewEmployeeForm(api EmployeeAPI, session SessionTerminator, log *zap.Logger) *EmployeeForm {
	if log == nil {
		log = zap.NewNop()
	}
	return &EmployeeForm{api: api, session: session, log: log, draft: DefaultEmployeeDraft()}
}

// Draft returns the current form contents.
func (f *EmployeeForm) Draft() EmployeeDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Submit validates d and, when valid, creates the employee. The returned
// error is non-nil for every outcome except created; the result always
// describes what to show.
func (f *EmployeeForm) Submit(ctx context.Context, d EmployeeDraft) (SubmitResult, error) {
	f.mu.Lock()
	f.draft = d
	f.mu.Unlock()

	if errs := ValidateEmployee(d); len(errs) > 0 {
		return SubmitResult{Outcome: OutcomeInvalid, Message: MsgEmployeeFormHasErrors, Fields: errs, Draft: d},
			&ValidationError{Message: MsgEmployeeFormHasErrors, Fields: errs}
	}

	emp, err := f.api.CreateEmployee(ctx, gateway.CreateEmployeeRequest{
		Name:          d.Name,
		NationalID:    d.NationalID,
		Identifier:    d.Identifier,
		Password:      d.Password,
		DestinationID: d.DestinationID,
	})
	if err != nil {
		res := SubmitResult{
			Outcome: OutcomeFailed,
			Message: UserMessage(err, MsgEmployeeCreateFailed, MsgEmployeeCreateRetry),
			Draft:   d,
		}
		if gateway.IsAuthRejected(err) {
			res.Outcome = OutcomeCancel
			if lerr := f.session.Logout(context.WithoutCancel(ctx)); lerr != nil {
				f.log.Error("employees: logout after 401 failed", zap.Error(lerr))
			}
		}
		return res, err
	}

	reset := DefaultEmployeeDraft()
	f.mu.Lock()
	f.draft = reset
	f.mu.Unlock()
	return SubmitResult{Outcome: OutcomeCreated, Message: MsgEmployeeCreated, Employee: &emp, Draft: reset}, nil
}
