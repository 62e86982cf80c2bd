package handler

import (
	"github.com/labstack/echo/v4"

	apperrors "bienesraices/internal/errors"
	"bienesraices/internal/view"
)

// Context keys shared with the router middleware.
const (
	CSRFContextKey    = "csrf"
	SessionContextKey = "session"
)

// SessionCookie holds the session token.
const SessionCookie = "token"

func csrfToken(c echo.Context) string {
	tok, _ := c.Get(CSRFContextKey).(string)
	return tok
}

func render(c echo.Context, status int, name string, data view.Data) error {
	data.CSRFToken = csrfToken(c)
	return c.Render(status, name, data)
}

// renderFormError shows expected failures on the form they came from.
// Anything else goes to the error handler.
func renderFormError(c echo.Context, name, page string, form map[string]string, err error) error {
	if !apperrors.IsExpected(err) {
		return err
	}
	status := apperrors.MapErrorToHTTP(err).StatusCode
	return render(c, status, name, view.Data{
		Page:   page,
		Errors: apperrors.Messages(err),
		Form:   form,
	})
}
