package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bienesraices/internal/auth"
	apperrors "bienesraices/internal/errors"
	"bienesraices/internal/model"
	"bienesraices/internal/service"
	"bienesraices/internal/view"
)

// MockAccountService is a mock implementation of service.AccountService.
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, in service.RegisterInput) (*model.Account, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountService) Confirm(ctx context.Context, token string) (*model.Account, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountService) Authenticate(ctx context.Context, in service.LoginInput) (string, *model.Account, error) {
	args := m.Called(ctx, in)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*model.Account), args.Error(2)
}

func (m *MockAccountService) RequestPasswordReset(ctx context.Context, in service.RecoverInput) (*model.Account, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *MockAccountService) CheckResetToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAccountService) CompletePasswordReset(ctx context.Context, token string, in service.ResetInput) error {
	args := m.Called(ctx, token, in)
	return args.Error(0)
}

func (m *MockAccountService) GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func newContext(t *testing.T, method, target string, form url.Values) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	renderer, err := view.NewRenderer()
	require.NoError(t, err)
	e := echo.New()
	e.Renderer = renderer

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(CSRFContextKey, "csrf-token")
	return c, rec
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name         string
		setupMock    func(*MockAccountService)
		wantStatus   int
		wantErr      bool
		wantCookie   bool
		wantContains string
	}{
		{
			name: "successful login",
			setupMock: func(m *MockAccountService) {
				m.On("Authenticate", mock.Anything, service.LoginInput{Email: "ana@x.com", Password: "secret1"}).
					Return("signed.jwt.value", &model.Account{}, nil)
			},
			wantStatus: http.StatusFound,
			wantCookie: true,
		},
		{
			name: "invalid credentials",
			setupMock: func(m *MockAccountService) {
				m.On("Authenticate", mock.Anything, mock.Anything).Return("", nil, apperrors.ErrInvalidCredentials)
			},
			wantStatus:   http.StatusUnauthorized,
			wantContains: "Usuario o contraseña inválido",
		},
		{
			name: "store failure goes to the error handler",
			setupMock: func(m *MockAccountService) {
				m.On("Authenticate", mock.Anything, mock.Anything).Return("", nil, errors.New("db down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := new(MockAccountService)
			tt.setupMock(accounts)
			h := NewAuthHandler(accounts, true)

			c, rec := newContext(t, http.MethodPost, "/auth/login", url.Values{"email": {"ana@x.com"}, "password": {"secret1"}})
			err := h.Login(c)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantContains)

			cookies := rec.Result().Cookies()
			if tt.wantCookie {
				require.Len(t, cookies, 1)
				assert.Equal(t, SessionCookie, cookies[0].Name)
				assert.Equal(t, "signed.jwt.value", cookies[0].Value)
				assert.True(t, cookies[0].HttpOnly)
				assert.True(t, cookies[0].Secure)
				assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
				assert.Equal(t, int(auth.SessionTokenExpiry.Seconds()), cookies[0].MaxAge)
			} else {
				assert.Empty(t, cookies)
			}
			accounts.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Register_RendersAllFieldErrors(t *testing.T) {
	accounts := new(MockAccountService)
	verr := &apperrors.ValidationError{}
	verr.Add("nombre", "El nombre no puede ir vacío")
	verr.Add("repetir_password", "Las contraseñas no coinciden")
	accounts.On("Register", mock.Anything, mock.AnythingOfType("service.RegisterInput")).Return(nil, verr)

	c, rec := newContext(t, http.MethodPost, "/auth/registro", url.Values{
		"email": {"ana@x.com"}, "password": {"secret1"}, "repetir_password": {"secret2"},
	})
	require.NoError(t, NewAuthHandler(accounts, false).Register(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "El nombre no puede ir vacío")
	assert.Contains(t, body, "Las contraseñas no coinciden")
	assert.Contains(t, body, `value="csrf-token"`)
	assert.NotContains(t, body, "secret1")
}

func TestAuthHandler_ResetForm(t *testing.T) {
	accounts := new(MockAccountService)
	accounts.On("CheckResetToken", mock.Anything, "good").Return(nil)
	accounts.On("CheckResetToken", mock.Anything, "bad").Return(apperrors.ErrInvalidToken)
	h := NewAuthHandler(accounts, false)

	c, rec := newContext(t, http.MethodGet, "/", nil)
	c.SetParamNames("token")
	c.SetParamValues("good")
	require.NoError(t, h.ResetForm(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Nueva contraseña")

	c, rec = newContext(t, http.MethodGet, "/", nil)
	c.SetParamNames("token")
	c.SetParamValues("bad")
	require.NoError(t, h.ResetForm(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "El token no es válido")
}

func TestAuthHandler_Logout(t *testing.T) {
	c, rec := newContext(t, http.MethodPost, "/auth/cerrar-sesion", url.Values{})
	require.NoError(t, NewAuthHandler(new(MockAccountService), false).Logout(c))

	assert.Equal(t, http.StatusFound, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestPropertyHandler_MyProperties(t *testing.T) {
	id := uuid.New()

	t.Run("renders the account", func(t *testing.T) {
		accounts := new(MockAccountService)
		accounts.On("GetAccount", mock.Anything, id).Return(&model.Account{ID: id, Name: "Ana"}, nil)

		c, rec := newContext(t, http.MethodGet, "/mis-propiedades", nil)
		c.Set(SessionContextKey, &auth.Claims{UserID: id.String()})
		require.NoError(t, NewPropertyHandler(accounts).MyProperties(c))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Hola Ana")
	})

	t.Run("deleted account", func(t *testing.T) {
		accounts := new(MockAccountService)
		accounts.On("GetAccount", mock.Anything, id).Return(nil, apperrors.ErrAccountNotFound)

		c, rec := newContext(t, http.MethodGet, "/mis-propiedades", nil)
		c.Set(SessionContextKey, &auth.Claims{UserID: id.String()})
		require.NoError(t, NewPropertyHandler(accounts).MyProperties(c))

		assert.Equal(t, http.StatusFound, rec.Code)
	})

	t.Run("no session", func(t *testing.T) {
		c, rec := newContext(t, http.MethodGet, "/mis-propiedades", nil)
		require.NoError(t, NewPropertyHandler(new(MockAccountService)).MyProperties(c))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/auth/login", rec.Header().Get(echo.HeaderLocation))
	})
}
