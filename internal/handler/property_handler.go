package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"bienesraices/internal/auth"
	apperrors "bienesraices/internal/errors"
	"bienesraices/internal/service"
	"bienesraices/internal/view"
)

// PropertyHandler serves the logged-in area.
type PropertyHandler struct {
	accounts service.AccountService
}

// NewPropertyHandler creates a new property handler.
func NewPropertyHandler(accounts service.AccountService) *PropertyHandler {
	return &PropertyHandler{accounts: accounts}
}

// MyProperties godoc
// @Summary Logged-in landing page
// @Tags properties
// @Produce html
// @Success 200 {string} string "HTML page"
// @Failure 302 {string} string "Redirect to /auth/login without a valid session"
// @Router /mis-propiedades [get]
func (h *PropertyHandler) MyProperties(c echo.Context) error {
	claims, ok := c.Get(SessionContextKey).(*auth.Claims)
	if !ok {
		return c.Redirect(http.StatusFound, "/auth/login")
	}
	id, err := claims.AccountID()
	if err != nil {
		return c.Redirect(http.StatusFound, "/auth/login")
	}

	account, err := h.accounts.GetAccount(c.Request().Context(), id)
	if errors.Is(err, apperrors.ErrAccountNotFound) {
		// token outlived its account
		return c.Redirect(http.StatusFound, "/auth/login")
	}
	if err != nil {
		return err
	}

	return render(c, http.StatusOK, view.MyProperties, view.Data{
		Page: "Mis propiedades",
		Data: account,
	})
}
