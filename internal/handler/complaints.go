package handler

import (
	"context"  // background refresh on first visit
	"errors"   // errors inspects controller failures
	"net/http" // HTTP status codes
	"strconv"  // complaint id parsing

	"github.com/labstack/echo/v4" // echo request context

	"github.com/iliyamo/complaints-admin-portal/internal/gateway"    // auth rejection check
	"github.com/iliyamo/complaints-admin-portal/internal/middleware" // login redirect
	"github.com/iliyamo/complaints-admin-portal/internal/model"      // complaint statuses
	"github.com/iliyamo/complaints-admin-portal/internal/service"    // complaint controllers
)

// ComplaintHandler serves the complaint list view and status updates.
type ComplaintHandler struct{}

func NewComplaintHandler() *ComplaintHandler { return &ComplaintHandler{} }

type statusOption struct {
	Value model.ComplaintStatus `json:"value"`
	Label string                `json:"label"`
}

type statusReq struct {
	Status    model.ComplaintStatus `json:"status" form:"status"`
	PushToken string                `json:"push_token" form:"push_token"`
}

// Home renders the complaint list view. The list is fetched on the first
// visit; later visits show the held copy until an explicit refresh. Only
// employees get the status controls.
func (h *ComplaintHandler) Home(c echo.Context) error {
	ws, ctl, ok := workspace(c)
	if !ok {
		return middleware.RedirectToLogin(c)
	}
	if !ctl.Complaints.Loaded() {
		if err := ctl.Complaints.Refresh(c.Request().Context()); gateway.IsAuthRejected(err) {
			return middleware.RedirectToLogin(c)
		}
	}

	user, _ := ws.Session.User()
	view := echo.Map{
		"view":     "complaints",
		"user":     user,
		"editable": user.CanEditComplaints(),
		"state":    ctl.Complaints.Snapshot(),
	}
	if user.CanEditComplaints() {
		opts := make([]statusOption, 0, 4)
		for _, s := range model.EditableStatuses() {
			opts = append(opts, statusOption{Value: s, Label: s.Label()})
		}
		view["statuses"] = opts
	}
	return c.JSON(http.StatusOK, view)
}

// List returns the held collection, refetching it on ?refresh=1 or when
// nothing was loaded yet.
func (h *ComplaintHandler) List(c echo.Context) error {
	_, ctl, ok := workspace(c)
	if !ok {
		return middleware.RedirectToLogin(c)
	}
	if c.QueryParam("refresh") == "1" || !ctl.Complaints.Loaded() {
		if err := refresh(c.Request().Context(), ctl.Complaints.Refresh); err != nil {
			return respondError(c, err, service.MsgComplaintsFailed, service.MsgComplaintsRetry)
		}
	}
	return c.JSON(http.StatusOK, ctl.Complaints.Snapshot())
}

// UpdateStatus runs the status update for one complaint.
func (h *ComplaintHandler) UpdateStatus(c echo.Context) error {
	_, ctl, ok := workspace(c)
	if !ok {
		return middleware.RedirectToLogin(c)
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid complaint id"})
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if !req.Status.Known() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	res, err := ctl.Status.SetStatus(c.Request().Context(), id, req.Status, req.PushToken)
	if err != nil {
		return respondError(c, err, service.MsgStatusFailed, service.MsgStatusRetry)
	}
	body := echo.Map{"message": "Complaint status updated", "result": res}
	if cpl, ok := ctl.Complaints.Find(id); ok {
		body["complaint"] = cpl
	}
	return c.JSON(http.StatusOK, body)
}

// refresh runs fn and treats "already refreshing" as success: the caller
// gets the held state, like a disabled refresh button.
func refresh(ctx context.Context, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil && !errors.Is(err, service.ErrRefreshInFlight) {
		return err
	}
	return nil
}
