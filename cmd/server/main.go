package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm/logger"

	_ "bienesraices/docs" // swagger docs

	"bienesraices/internal/auth"
	"bienesraices/internal/cache"
	"bienesraices/internal/config"
	"bienesraices/internal/db"
	"bienesraices/internal/handler"
	"bienesraices/internal/logging"
	"bienesraices/internal/mail"
	"bienesraices/internal/repository"
	"bienesraices/internal/router"
	"bienesraices/internal/service"
	"bienesraices/internal/view"
)

const shutdownTimeout = 10 * time.Second

// @title Bienes Raíces
// @version 1.0
// @description Account registration, confirmation, login and password recovery pages of the Bienes Raíces listings site.
// @host localhost:3003
// @BasePath /
// @schemes http
func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Open(db.Config{
		Driver:          cfg.DB.Driver,
		DSN:             cfg.DB.MySQLDSN(),
		Path:            cfg.DB.Path,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		ConnMaxIdleTime: cfg.DB.ConnMaxIdleTime,
		LogLevel:        gormLogLevel(cfg.LogLevel),
	})
	if err != nil {
		return err
	}
	log.Info("connected to database", zap.String("driver", cfg.DB.Driver))

	if cfg.ResetDB {
		log.Warn("RESET_DB set, dropping all tables")
		if err := db.DropAll(gormDB); err != nil {
			log.Warn("drop tables", zap.Error(err))
		}
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	cacheClient := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	defer func() { _ = cacheClient.Close() }()
	if cacheClient.Enabled() {
		if err := cacheClient.Ping(ctx); err != nil {
			log.Warn("cache unreachable, continuing without it", zap.Error(err))
		}
	}

	mailer, err := newMailer(cfg, log)
	if err != nil {
		return err
	}
	notifier, err := mail.NewNotifier(mailer, cfg.Mail.From, cfg.BaseURL)
	if err != nil {
		return err
	}

	renderer, err := view.NewRenderer()
	if err != nil {
		return err
	}

	accountRepo := repository.NewAccountRepository(gormDB)
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	accountService, err := service.NewAccountService(accountRepo, auth.NewBcryptHasher(), jwtService, notifier, cacheClient, log)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	router.Register(
		e,
		cfg,
		log,
		jwtService,
		handler.NewAuthHandler(accountService, cfg.CookieSecure),
		handler.NewPropertyHandler(accountService),
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := ":" + cfg.ServerPort
		log.Info("server listening", zap.String("addr", addr), zap.String("base_url", cfg.BaseURL))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info("shutting down")

		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutCtx)
	})

	return g.Wait()
}

func newMailer(cfg *config.Config, log *zap.Logger) (mail.Mailer, error) {
	if !cfg.Mail.SMTPEnabled() {
		log.Warn("EMAIL_HOST not set, emails are written to the log")
		return mail.NewLogMailer(log), nil
	}
	return mail.NewSMTPMailer(mail.SMTPSettings{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.User,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	})
}

func gormLogLevel(level string) logger.LogLevel {
	if level == "debug" {
		return logger.Info
	}
	return logger.Warn
}
