package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/complaints-admin-portal/internal/gateway"
	"github.com/iliyamo/complaints-admin-portal/internal/service"
)

func TestRespondErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &service.ValidationError{Message: service.MsgFillAllFields}, http.StatusBadRequest},
		{"field errors", &service.ValidationError{Message: "bad", Fields: service.FieldErrors{"name": "required"}}, http.StatusUnprocessableEntity},
		{"unauthorized", &gateway.TransportError{Op: "x", StatusCode: http.StatusUnauthorized}, http.StatusUnauthorized},
		{"in flight", service.ErrUpdateInFlight, http.StatusConflict},
		{"business", &gateway.BusinessError{Op: "x", Message: "nope"}, http.StatusBadRequest},
		{"transport", &gateway.TransportError{Op: "x", Err: errors.New("dial")}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
			if err := respondError(c, tc.err, "business", "transport"); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestIsClientError(t *testing.T) {
	if !isClientError(&service.ValidationError{Message: "x"}) {
		t.Fatal("validation is a client error")
	}
	if isClientError(&gateway.TransportError{Op: "x", Err: errors.New("dial")}) {
		t.Fatal("network failure is not a client error")
	}
}
