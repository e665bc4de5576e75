package service

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/complaints-admin-portal/internal/gateway"
	"github.com/iliyamo/complaints-admin-portal/internal/model"
	"github.com/iliyamo/complaints-admin-portal/internal/repository"
)

func validDraft() EmployeeDraft {
	return EmployeeDraft{Name: "Sam", NationalID: "0101", Identifier: "+963922222222", Password: "secret1", DestinationID: 2}
}

func TestValidateEmployee(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(*EmployeeDraft)
		field string
		msg   string
	}{
		{"empty name", func(d *EmployeeDraft) { d.Name = "" }, "name", "الاسم مطلوب"},
		{"blank name", func(d *EmployeeDraft) { d.Name = "   " }, "name", "الاسم مطلوب"},
		{"empty national id", func(d *EmployeeDraft) { d.NationalID = "" }, "national_id", "الهوية الوطنية مطلوبة"},
		{"empty identifier", func(d *EmployeeDraft) { d.Identifier = "" }, "identifier", "المعرف مطلوب"},
		{"identifier without plus", func(d *EmployeeDraft) { d.Identifier = "12345" }, "identifier", "يجب أن يبدأ المعرف بعلامة +"},
		{"empty password", func(d *EmployeeDraft) { d.Password = "" }, "password", "كلمة المرور مطلوبة"},
		{"short password", func(d *EmployeeDraft) { d.Password = "abc" }, "password", "يجب أن تكون كلمة المرور 6 أحرف على الأقل"},
		{"zero destination", func(d *EmployeeDraft) { d.DestinationID = 0 }, "destination_id", "رقم الجهة مطلوب"},
		{"negative destination", func(d *EmployeeDraft) { d.DestinationID = -4 }, "destination_id", "رقم الجهة مطلوب"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDraft()
			tc.edit(&d)
			errs := ValidateEmployee(d)
			if len(errs) != 1 || errs[tc.field] != tc.msg {
				t.Fatalf("ValidateEmployee = %v, want only %s=%q", errs, tc.field, tc.msg)
			}
		})
	}
	if errs := ValidateEmployee(validDraft()); len(errs) != 0 {
		t.Fatalf("valid draft produced errors: %v", errs)
	}
	if errs := ValidateEmployee(EmployeeDraft{}); len(errs) != 5 {
		t.Fatalf("empty draft should fail every field, got %v", errs)
	}
}

func TestSubmitInvalidNeverCallsBackend(t *testing.T) {
	api := &fakeBackend{}
	f := NewEmployeeForm(api, signedIn(repository.NewMemorySessionStore(), admin), nil)

	d := validDraft()
	d.Password = "abc"
	res, err := f.Submit(context.Background(), d)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if res.Outcome != OutcomeInvalid || res.Fields["password"] == "" || res.Message != MsgEmployeeFormHasErrors {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(api.createdBodies) != 0 {
		t.Fatal("invalid form reached the backend")
	}
	if f.Draft() != d {
		t.Fatal("invalid draft should be kept for editing")
	}
}

func TestSubmitCreatedResetsDraft(t *testing.T) {
	api := &fakeBackend{create: func(req gateway.CreateEmployeeRequest) (model.Employee, error) {
		return model.Employee{ID: 11, Name: req.Name, DestinationID: uint64(req.DestinationID)}, nil
	}}
	f := NewEmployeeForm(api, signedIn(repository.NewMemorySessionStore(), admin), nil)

	res, err := f.Submit(context.Background(), validDraft())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Outcome != OutcomeCreated || res.Message != MsgEmployeeCreated || res.Employee == nil || res.Employee.ID != 11 {
		t.Fatalf("unexpected result %+v", res)
	}
	if f.Draft() != DefaultEmployeeDraft() || res.Draft.DestinationID != 1 {
		t.Fatalf("draft not reset: %+v", f.Draft())
	}
	sent := api.createdBodies[0]
	if sent.Identifier != "+963922222222" || sent.DestinationID != 2 || sent.Password != "secret1" {
		t.Fatalf("unexpected request %+v", sent)
	}
}

func TestSubmitBusinessFailureKeepsDraft(t *testing.T) {
	api := &fakeBackend{create: func(gateway.CreateEmployeeRequest) (model.Employee, error) {
		return model.Employee{}, &gateway.BusinessError{Op: "create_employee", Message: "identifier taken"}
	}}
	session := signedIn(repository.NewMemorySessionStore(), admin)
	f := NewEmployeeForm(api, session, nil)

	res, err := f.Submit(context.Background(), validDraft())
	if err == nil || res.Outcome != OutcomeFailed || res.Message != "identifier taken" {
		t.Fatalf("unexpected result %+v err=%v", res, err)
	}
	if f.Draft() != validDraft() {
		t.Fatal("draft should be kept after a failure")
	}
	if !session.IsAuthenticated() {
		t.Fatal("business failure must not sign out")
	}
}

func TestSubmitAuthRejectedCancels(t *testing.T) {
	api := &fakeBackend{create: func(gateway.CreateEmployeeRequest) (model.Employee, error) {
		return model.Employee{}, errUnauthorized
	}}
	session := signedIn(repository.NewMemorySessionStore(), admin)
	f := NewEmployeeForm(api, session, nil)

	res, err := f.Submit(context.Background(), validDraft())
	if !gateway.IsAuthRejected(err) || res.Outcome != OutcomeCancel {
		t.Fatalf("expected cancel outcome, got %+v err=%v", res, err)
	}
	if session.IsAuthenticated() {
		t.Fatal("session should be torn down")
	}
}

func TestEmployeeListRefresh(t *testing.T) {
	session := signedIn(repository.NewMemorySessionStore(), admin)
	fail := false
	api := &fakeBackend{employees: func() ([]model.Employee, error) {
		if fail {
			return nil, errUnauthorized
		}
		return []model.Employee{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}, nil
	}}
	l := NewEmployeeList(api, session, nil)

	if err := l.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := l.Snapshot(); len(got.Employees) != 2 || got.Error != "" {
		t.Fatalf("unexpected state %+v", got)
	}

	fail = true
	if err := l.Refresh(context.Background()); !gateway.IsAuthRejected(err) {
		t.Fatalf("expected auth rejection, got %v", err)
	}
	if session.IsAuthenticated() {
		t.Fatal("401 while listing employees should sign out")
	}
}
