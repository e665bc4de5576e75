package handler // declare the package name; contains HTTP handlers

import (
	"net/http" // net/http provides status codes

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health answers load balancer probes. storeKind names the session store
// backend the process ended up with ("redis", "mysql" or "memory").
func Health(storeKind string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "session_store": storeKind})
	}
}
