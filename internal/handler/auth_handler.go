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

const (
	pageLogin    = "Iniciar sesión"
	pageRegister = "Crear cuenta"
	pageConfirm  = "Confirmar cuenta"
	pageRecover  = "Recuperar cuenta"
	pageReset    = "Nueva contraseña"
)

// AuthHandler serves the account lifecycle pages.
type AuthHandler struct {
	accounts     service.AccountService
	cookieSecure bool
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(accounts service.AccountService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{accounts: accounts, cookieSecure: cookieSecure}
}

// LoginForm godoc
// @Summary Login page
// @Tags auth
// @Produce html
// @Success 200 {string} string "HTML page"
// @Router /auth/login [get]
func (h *AuthHandler) LoginForm(c echo.Context) error {
	return render(c, http.StatusOK, view.Login, view.Data{Page: pageLogin})
}

// Login godoc
// @Summary Log in
// @Description Sets the session cookie and redirects to the user's properties.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce html
// @Param email formData string true "Email"
// @Param password formData string true "Password"
// @Success 302 {string} string "Redirect to /mis-propiedades"
// @Failure 400 {string} string "Login page with field errors"
// @Failure 401 {string} string "Login page with invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var in service.LoginInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	token, _, err := h.accounts.Authenticate(c.Request().Context(), in)
	if err != nil {
		return renderFormError(c, view.Login, pageLogin, map[string]string{"email": in.Email}, err)
	}

	c.SetCookie(h.sessionCookie(token, int(auth.SessionTokenExpiry.Seconds())))
	return c.Redirect(http.StatusFound, "/mis-propiedades")
}

// Logout godoc
// @Summary Log out
// @Tags auth
// @Produce html
// @Success 302 {string} string "Redirect to /auth/login"
// @Router /auth/cerrar-sesion [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.sessionCookie("", -1))
	return c.Redirect(http.StatusFound, "/auth/login")
}

// RegisterForm godoc
// @Summary Registration page
// @Tags auth
// @Produce html
// @Success 200 {string} string "HTML page"
// @Router /auth/registro [get]
func (h *AuthHandler) RegisterForm(c echo.Context) error {
	return render(c, http.StatusOK, view.Register, view.Data{Page: pageRegister})
}

// Register godoc
// @Summary Create an account
// @Description Stores an unconfirmed account and emails its confirmation link.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce html
// @Param nombre formData string true "Name"
// @Param email formData string true "Email"
// @Param password formData string true "Password, at least 6 characters"
// @Param repetir_password formData string true "Password again"
// @Success 200 {string} string "Confirmation pending page"
// @Failure 400 {string} string "Registration page with field errors"
// @Failure 409 {string} string "Registration page, email taken"
// @Router /auth/registro [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var in service.RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if _, err := h.accounts.Register(c.Request().Context(), in); err != nil {
		form := map[string]string{"nombre": in.Name, "email": in.Email}
		return renderFormError(c, view.Register, pageRegister, form, err)
	}

	return render(c, http.StatusOK, view.Message, view.Data{
		Page:    pageConfirm,
		Message: "Se ha enviado un mensaje a tu correo para confirmar tu cuenta",
	})
}

// Confirm godoc
// @Summary Confirm an account
// @Tags auth
// @Produce html
// @Param token path string true "Confirmation token"
// @Success 200 {string} string "Account confirmed page"
// @Failure 404 {string} string "Invalid token page"
// @Router /auth/confirmar/{token} [get]
func (h *AuthHandler) Confirm(c echo.Context) error {
	if _, err := h.accounts.Confirm(c.Request().Context(), c.Param("token")); err != nil {
		return renderTokenError(c, pageConfirm, err)
	}

	return render(c, http.StatusOK, view.Confirm, view.Data{
		Page:    pageConfirm,
		Message: "Cuenta confirmada",
	})
}

// RecoverForm godoc
// @Summary Password recovery page
// @Tags auth
// @Produce html
// @Success 200 {string} string "HTML page"
// @Router /auth/recuperar [get]
func (h *AuthHandler) RecoverForm(c echo.Context) error {
	return render(c, http.StatusOK, view.Recover, view.Data{Page: pageRecover})
}

// Recover godoc
// @Summary Request a password reset
// @Description Emails a link to choose a new password.
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce html
// @Param email formData string true "Email"
// @Success 200 {string} string "Reset pending page"
// @Failure 400 {string} string "Recovery page with field errors"
// @Failure 403 {string} string "Recovery page, account not confirmed; confirmation email resent"
// @Failure 404 {string} string "Recovery page, unknown email"
// @Router /auth/recuperar [post]
func (h *AuthHandler) Recover(c echo.Context) error {
	var in service.RecoverInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if _, err := h.accounts.RequestPasswordReset(c.Request().Context(), in); err != nil {
		return renderFormError(c, view.Recover, pageRecover, map[string]string{"email": in.Email}, err)
	}

	return render(c, http.StatusOK, view.Message, view.Data{
		Page:    "Actualizar contraseña",
		Message: "Se ha enviado un mensaje a tu correo para actualizar tu contraseña",
	})
}

// ResetForm godoc
// @Summary New password page
// @Tags auth
// @Produce html
// @Param token path string true "Reset token"
// @Success 200 {string} string "HTML page"
// @Failure 404 {string} string "Invalid token page"
// @Router /auth/actualizar-password/{token} [get]
func (h *AuthHandler) ResetForm(c echo.Context) error {
	if err := h.accounts.CheckResetToken(c.Request().Context(), c.Param("token")); err != nil {
		return renderTokenError(c, "Actualizar contraseña", err)
	}
	return render(c, http.StatusOK, view.ResetPassword, view.Data{Page: pageReset})
}

// Reset godoc
// @Summary Choose a new password
// @Tags auth
// @Accept x-www-form-urlencoded
// @Produce html
// @Param token path string true "Reset token"
// @Param password formData string true "New password, at least 6 characters"
// @Param repetir_password formData string true "New password again"
// @Success 200 {string} string "Password updated page"
// @Failure 400 {string} string "New password page with field errors"
// @Failure 404 {string} string "Invalid token page"
// @Router /auth/actualizar-password/{token} [post]
func (h *AuthHandler) Reset(c echo.Context) error {
	var in service.ResetInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	err := h.accounts.CompletePasswordReset(c.Request().Context(), c.Param("token"), in)
	if errors.Is(err, apperrors.ErrInvalidToken) {
		return renderTokenError(c, "Actualizar contraseña", err)
	}
	if err != nil {
		return renderFormError(c, view.ResetPassword, pageReset, nil, err)
	}

	return render(c, http.StatusOK, view.Confirm, view.Data{
		Page:    "Actualizar contraseña",
		Message: "Contraseña actualizada correctamente",
	})
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func renderTokenError(c echo.Context, page string, err error) error {
	if !apperrors.IsExpected(err) {
		return err
	}
	httpErr := apperrors.MapErrorToHTTP(err)
	return render(c, httpErr.StatusCode, view.Confirm, view.Data{
		Page:    page,
		Message: httpErr.Message,
		Failed:  true,
	})
}
