package middleware

import "github.com/labstack/echo/v4"

// sessionKey identifies the caller for rate limiting: the portal session
// id when SessionCookie ran, otherwise "anon".
func sessionKey(c echo.Context) string {
	if sid := SessionID(c); sid != "" {
		return sid
	}
	return "anon"
}
