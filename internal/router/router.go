package router

import (
	"errors"
	"net/http"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"bienesraices/docs"
	"bienesraices/internal/auth"
	"bienesraices/internal/config"
	"bienesraices/internal/handler"
	"bienesraices/internal/view"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger *zap.Logger,
	jwtService *auth.JWTService,
	authHandler *handler.AuthHandler,
	propertyHandler *handler.PropertyHandler,
) {
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		Skipper:        skipInfra,
		TokenLookup:    "form:_csrf",
		ContextKey:     handler.CSRFContextKey,
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: http.SameSiteLaxMode,
	}))

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/auth/login")
	})

	authGroup := e.Group("/auth")
	authGroup.GET("/login", authHandler.LoginForm)
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/cerrar-sesion", authHandler.Logout)

	authGroup.GET("/registro", authHandler.RegisterForm)
	authGroup.POST("/registro", authHandler.Register)

	authGroup.GET("/confirmar/:token", authHandler.Confirm)

	authGroup.GET("/recuperar", authHandler.RecoverForm)
	authGroup.POST("/recuperar", authHandler.Recover)

	authGroup.GET("/actualizar-password/:token", authHandler.ResetForm)
	authGroup.POST("/actualizar-password/:token", authHandler.Reset)

	// Secured routes (require a session cookie). Attached per route: a
	// root-level group would also catch unknown paths.
	requireSession := echojwt.WithConfig(echojwt.Config{
		TokenLookup: "cookie:" + handler.SessionCookie,
		ContextKey:  handler.SessionContextKey,
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return jwtService.ValidateToken(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.Redirect(http.StatusFound, "/auth/login")
		},
	})

	e.GET("/mis-propiedades", propertyHandler.MyProperties, requireSession)
}

func skipInfra(c echo.Context) bool {
	path := c.Request().URL.Path
	return path == "/healthz" || strings.HasPrefix(path, "/swagger/")
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper:      skipInfra,
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
				zap.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}

var statusMessages = map[int]string{
	http.StatusBadRequest:       "La petición no es válida",
	http.StatusForbidden:        "El formulario expiró, recarga la página e intenta de nuevo",
	http.StatusNotFound:         "La página que buscas no existe",
	http.StatusMethodNotAllowed: "Método no permitido",
}

const genericFailure = "Hubo un error, intenta de nuevo más tarde"

// errorHandler renders the error page. Server failures are logged with
// their cause; the page only ever shows a generic message for them.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
		}

		message, ok := statusMessages[status]
		if !ok {
			message = genericFailure
		}

		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.Error(err),
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}

		csrf, _ := c.Get(handler.CSRFContextKey).(string)
		if rerr := c.Render(status, view.Error, view.Data{Page: "Error", Message: message, CSRFToken: csrf}); rerr != nil {
			logger.Error("render error page", zap.Error(rerr))
			_ = c.String(status, message)
		}
	}
}
