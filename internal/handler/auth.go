package handler

import (
	"net/http" // HTTP status codes
	"strings"  // trims form input

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing
	"go.uber.org/zap"             // structured logging

	"github.com/iliyamo/complaints-admin-portal/internal/middleware" // session id and redirects
	"github.com/iliyamo/complaints-admin-portal/internal/service"    // portal controllers
)

// AuthHandler serves the login view and the login/logout actions.
type AuthHandler struct {
	Portal *service.Portal
	Log    *zap.Logger
}

func NewAuthHandler(p *service.Portal, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Portal: p, Log: log}
}

// ----- DTOs -----

type loginReq struct {
	Identifier string `json:"identifier" form:"identifier"`
	Password   string `json:"password" form:"password"`
}

// LoginView returns the login view-model. Signed-in sessions never get
// here; RedirectIfAuthenticated sends them home.
func (h *AuthHandler) LoginView(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"view":   "login",
		"fields": []string{"identifier", "password"},
	})
}

// Login authenticates through the backend and stores the session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	user, err := h.Portal.Login(c.Request().Context(), middleware.SessionID(c), strings.TrimSpace(req.Identifier), req.Password)
	if err != nil {
		if !isClientError(err) {
			h.Log.Error("login failed", zap.Error(err))
		}
		return respondError(c, err, service.MsgLoginFailed, service.MsgLoginRetry)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Login successful!",
		"user":     user,
		"redirect": user.HomePath(),
	})
}

// Logout clears token and user of the session.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.Portal.Logout(c.Request().Context(), middleware.SessionID(c)); err != nil {
		h.Log.Error("logout failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"redirect": middleware.LoginPath})
}
