package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/iliyamo/complaints-admin-portal/internal/gateway"
	"github.com/iliyamo/complaints-admin-portal/internal/model"
)

// EmployeeListState is a copy of what the dashboard renders.
type EmployeeListState struct {
	Loading   bool             `json:"loading"`
	Employees []model.Employee `json:"employees"`
	Error     string           `json:"error,omitempty"`
}

// EmployeeList holds the employees fetched for the admin dashboard.
type EmployeeList struct {
	api     EmployeeAPI
	session SessionTerminator
	log     *zap.Logger

	mu        sync.Mutex
	loading   bool
	employees []model.Employee
	errMsg    string
}

func NewEmployeeList(api EmployeeAPI, session SessionTerminator, log *zap.Logger) *EmployeeList {
	if log == nil {
		log = zap.NewNop()
	}
	return &EmployeeList{api: api, session: session, log: log}
}

// Refresh refetches the employees; see ComplaintList.Refresh.
func (l *EmployeeList) Refresh(ctx context.Context) error {
	l.mu.Lock()
	if l.loading {
		l.mu.Unlock()
		return ErrRefreshInFlight
	}
	l.loading = true
	l.errMsg = ""
	l.mu.Unlock()

	list, err := l.api.ListEmployees(ctx)

	l.mu.Lock()
	l.loading = false
	if err == nil {
		l.employees = list
		l.mu.Unlock()
		return nil
	}
	l.errMsg = UserMessage(err, MsgEmployeesFailed, MsgEmployeesRetry)
	l.mu.Unlock()

	if gateway.IsAuthRejected(err) {
		if lerr := l.session.Logout(context.WithoutCancel(ctx)); lerr != nil {
			l.log.Error("employees: logout after 401 failed", zap.Error(lerr))
		}
	} else {
		l.log.Error("employees: fetch failed", zap.Error(err))
	}
	return err
}

// Snapshot copies the current state.
func (l *EmployeeList) Snapshot() EmployeeListState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return EmployeeListState{
		Loading:   l.loading,
		Employees: append([]model.Employee{}, l.employees...),
		Error:     l.errMsg,
	}
}
