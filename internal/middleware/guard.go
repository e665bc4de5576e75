package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/complaints-admin-portal/internal/config"
	"github.com/iliyamo/complaints-admin-portal/internal/service"
	"github.com/iliyamo/complaints-admin-portal/internal/utils"
)

// Context keys set by the session middleware.
const (
	ctxSessionID = "sid"
	ctxWorkspace = "workspace"
	ctxRole      = "role"
	ctxUserID    = "user_id"
)

// LoginPath is where signed-out sessions are sent.
const LoginPath = "/login"

// SessionCookie makes sure every request carries a portal session id. A
// missing or untrusted cookie is replaced by a freshly signed one. The
// cookie holds no credentials; it only names the session store scope.
func SessionCookie(cfg config.SessionConfig, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if ck, err := c.Cookie(cfg.CookieName); err == nil && ck.Value != "" {
				if sid, err := utils.ParseSessionToken(cfg.Secret, ck.Value); err == nil {
					c.Set(ctxSessionID, sid)
					return next(c)
				}
			}
			tok, err := utils.NewSessionToken(cfg.Secret, cfg.TTL)
			if err != nil {
				log.Error("session: cannot sign cookie", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": service.MsgUnexpected})
			}
			c.SetCookie(&http.Cookie{
				Name:     cfg.CookieName,
				Value:    tok.Token,
				Path:     "/",
				Expires:  tok.Exp,
				MaxAge:   int(time.Until(tok.Exp).Seconds()),
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})
			c.Set(ctxSessionID, tok.SID)
			return next(c)
		}
	}
}

// RouteGuard admits a request only when its session is signed in. The
// hydrated workspace is stored in the context for handlers. Browsers are
// redirected to the login view; JSON callers get 401 with the redirect target.
func RouteGuard(p *service.Portal, log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ws, err := p.Workspace(c.Request().Context(), SessionID(c))
			if err != nil {
				log.Error("session: store unavailable", zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "session store unavailable"})
			}
			user, ok := ws.Session.User()
			if !ws.Session.IsAuthenticated() || !ok {
				return RedirectToLogin(c)
			}
			c.Set(ctxWorkspace, ws)
			c.Set(ctxRole, user.Role)
			c.Set(ctxUserID, strconv.FormatUint(user.ID, 10))
			return next(c)
		}
	}
}

// RedirectIfAuthenticated sends signed-in sessions away from the login view
// to their home page.
func RedirectIfAuthenticated(p *service.Portal) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ws, err := p.Workspace(c.Request().Context(), SessionID(c))
			if err == nil && ws.Session.IsAuthenticated() {
				if u, ok := ws.Session.User(); ok {
					return c.Redirect(http.StatusFound, u.HomePath())
				}
			}
			return next(c)
		}
	}
}

// RedirectToLogin answers a signed-out request the way its caller expects.
func RedirectToLogin(c echo.Context) error {
	if WantsJSON(c) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "redirect": LoginPath})
	}
	return c.Redirect(http.StatusFound, LoginPath)
}

// SessionID returns the portal session id set by SessionCookie.
func SessionID(c echo.Context) string {
	sid, _ := c.Get(ctxSessionID).(string)
	return sid
}

// Workspace returns the workspace admitted by RouteGuard.
func Workspace(c echo.Context) *service.Workspace {
	ws, _ := c.Get(ctxWorkspace).(*service.Workspace)
	return ws
}

// WantsJSON reports whether the caller is a script rather than a browser
// navigation: it asked for JSON, marked itself as XHR, or is not a GET.
func WantsJSON(c echo.Context) bool {
	r := c.Request()
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") {
		return true
	}
	accept := r.Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON) && !strings.Contains(accept, "text/html")
}
