package handler

import (
	"net/http" // HTTP status codes

	"github.com/labstack/echo/v4" // echo request context
	"go.uber.org/zap"             // structured logging

	"github.com/iliyamo/complaints-admin-portal/internal/gateway"    // auth rejection check
	"github.com/iliyamo/complaints-admin-portal/internal/middleware" // login redirect
	"github.com/iliyamo/complaints-admin-portal/internal/service"    // employee controllers
)

// EmployeeHandler serves the admin dashboard.
type EmployeeHandler struct {
	Log *zap.Logger
}

func NewEmployeeHandler(log *zap.Logger) *EmployeeHandler { return &EmployeeHandler{Log: log} }

// Dashboard fetches the employee list and renders it with the creation form.
func (h *EmployeeHandler) Dashboard(c echo.Context) error {
	ws, ctl, ok := workspace(c)
	if !ok {
		return middleware.RedirectToLogin(c)
	}
	if err := refresh(c.Request().Context(), ctl.Employees.Refresh); gateway.IsAuthRejected(err) {
		return middleware.RedirectToLogin(c)
	}
	user, _ := ws.Session.User()
	return c.JSON(http.StatusOK, echo.Map{
		"view":  "dashboard",
		"user":  user,
		"state": ctl.Employees.Snapshot(),
		"draft": ctl.Form.Draft(),
	})
}

// Create submits the employee form. On success the list is refetched so
// the new employee shows up.
func (h *EmployeeHandler) Create(c echo.Context) error {
	_, ctl, ok := workspace(c)
	if !ok {
		return middleware.RedirectToLogin(c)
	}
	var draft service.EmployeeDraft
	if err := c.Bind(&draft); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx := c.Request().Context()
	res, err := ctl.Form.Submit(ctx, draft)
	switch res.Outcome {
	case service.OutcomeCreated:
		if rerr := refresh(ctx, ctl.Employees.Refresh); rerr != nil {
			h.Log.Warn("employees: refetch after create failed", zap.Error(rerr))
		}
		return c.JSON(http.StatusCreated, echo.Map{
			"outcome":  res.Outcome,
			"message":  res.Message,
			"employee": res.Employee,
			"draft":    res.Draft,
			"state":    ctl.Employees.Snapshot(),
		})
	case service.OutcomeCancel:
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"outcome":  res.Outcome,
			"error":    res.Message,
			"redirect": middleware.LoginPath,
		})
	case service.OutcomeInvalid:
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"outcome": res.Outcome,
			"error":   res.Message,
			"fields":  res.Fields,
		})
	}
	return respondError(c, err, service.MsgEmployeeCreateFailed, service.MsgEmployeeCreateRetry)
}
