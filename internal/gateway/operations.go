package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/iliyamo/complaints-admin-portal/internal/model"
)

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Identifier  string `json:"identifier"`
	Password    string `json:"password"`
	DeviceToken string `json:"device_token"`
}

// LoginResult is the data part of a successful login.
type LoginResult struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// CreateEmployeeRequest is the body of POST /api/admin/employees.
type CreateEmployeeRequest struct {
	Name          string `json:"name"`
	NationalID    string `json:"national_id"`
	Identifier    string `json:"identifier"`
	Password      string `json:"password"`
	DestinationID int64  `json:"destination_id"`
}

type statusRequest struct {
	Status model.ComplaintStatus `json:"status"`
}

// Login exchanges credentials for a token. It is the only call sent
// without a bearer token. A success envelope lacking the token is treated
// as malformed so token and user always arrive together.
func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	var out LoginResult
	if err := c.do(ctx, "login", http.MethodPost, "/api/auth/login", req, false, &out); err != nil {
		return LoginResult{}, err
	}
	if out.Token == "" || out.User.ID == 0 {
		return LoginResult{}, &TransportError{Op: "login", StatusCode: http.StatusOK, Err: fmt.Errorf("%w: missing token or user", ErrMalformedEnvelope)}
	}
	return out, nil
}

// ListEmployees fetches GET /api/admin/employees.
func (c *Client) ListEmployees(ctx context.Context) ([]model.Employee, error) {
	var out []model.Employee
	if err := c.do(ctx, "list_employees", http.MethodGet, "/api/admin/employees", nil, true, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Employee{}
	}
	return out, nil
}

// CreateEmployee posts a new employee and returns the record the backend stored.
func (c *Client) CreateEmployee(ctx context.Context, req CreateEmployeeRequest) (model.Employee, error) {
	var out model.Employee
	if err := c.do(ctx, "create_employee", http.MethodPost, "/api/admin/employees", req, true, &out); err != nil {
		return model.Employee{}, err
	}
	return out, nil
}

// ListComplaints fetches GET /api/employee/complaints.
func (c *Client) ListComplaints(ctx context.Context) ([]model.Complaint, error) {
	var out []model.Complaint
	if err := c.do(ctx, "list_complaints", http.MethodGet, "/api/employee/complaints", nil, true, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Complaint{}
	}
	return out, nil
}

// UpdateComplaintStatus sends PUT /api/employee/complaints/{id}.
func (c *Client) UpdateComplaintStatus(ctx context.Context, id uint64, status model.ComplaintStatus) error {
	path := fmt.Sprintf("/api/employee/complaints/%d", id)
	return c.do(ctx, "update_complaint_status", http.MethodPut, path, statusRequest{Status: status}, true, nil)
}
