package handler // handler holds the HTTP handlers of the portal

import (
	"errors"   // errors inspects typed failures
	"net/http" // net/http provides status codes

	"github.com/labstack/echo/v4" // echo request context

	"github.com/iliyamo/complaints-admin-portal/internal/gateway"    // backend error taxonomy
	"github.com/iliyamo/complaints-admin-portal/internal/middleware" // login redirect helper
	"github.com/iliyamo/complaints-admin-portal/internal/service"    // controller errors and messages
)

// respondError maps a controller error to an HTTP answer. business and
// transport are the fallbacks used when the backend gave no message.
//
//   validation     -> 400 (422 when field errors are present)
//   auth rejected  -> 401 with the login redirect
//   in flight      -> 409
//   success:false  -> 400
//   transport      -> 502
//   anything else  -> 500
func respondError(c echo.Context, err error, business, transport string) error {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		if len(ve.Fields) > 0 {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": ve.Message, "fields": ve.Fields})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Message})
	case gateway.IsAuthRejected(err):
		return c.JSON(http.StatusUnauthorized, echo.Map{
			"error":    service.UserMessage(err, business, transport),
			"redirect": middleware.LoginPath,
		})
	case errors.Is(err, service.ErrRefreshInFlight), errors.Is(err, service.ErrUpdateInFlight):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case gateway.IsBusiness(err):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": service.UserMessage(err, business, transport)})
	}
	var te *gateway.TransportError
	if errors.As(err, &te) {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": service.UserMessage(err, business, transport)})
	}
	c.Logger().Error(err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": service.MsgUnexpected})
}

// isClientError reports failures caused by the caller's input or the
// backend's verdict, which are not worth an error log.
func isClientError(err error) bool {
	return errors.Is(err, service.ErrValidation) || gateway.IsBusiness(err) || gateway.IsAuthRejected(err)
}

// workspace returns the admitted workspace and its user. RouteGuard
// guarantees both on guarded routes.
func workspace(c echo.Context) (*service.Workspace, service.Controllers, bool) {
	ws := middleware.Workspace(c)
	if ws == nil {
		return nil, service.Controllers{}, false
	}
	return ws, ws.Controllers(), true
}
