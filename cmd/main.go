package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shulehub/api/handler"
	apiMiddleware "shulehub/api/middleware"
	"shulehub/api/routes"
	"shulehub/config"
	"shulehub/internal/repository"
	"shulehub/internal/service"
	"shulehub/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("configuration invalid")
	}

	db, err := config.ConnectDB(cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("database connection failed")
	}
	store := repository.NewStore(db)

	validate := validator.New()

	jwtManager := utils.JWTManager{
		Secret:         []byte(cfg.JWTSecret),
		Issuer:         cfg.JWTIssuer,
		AccessTokenTTL: cfg.AccessTokenTTL,
	}
	accessIssuer := service.JWTAccessIssuer{Manager: &jwtManager}
	mfaIssuer := service.MFATokenIssuerJWT{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.MFATokenTTL,
	}

	emailSender := service.NewResendEmailSender(cfg.ResendAPIKey, cfg.EmailFrom, cfg.AppBaseURL)
	hasher := service.BcryptHasher{Cost: cfg.BcryptCost}
	totpProvider := service.NewTOTPProvider(cfg.JWTIssuer)

	authConfig := service.AuthConfig{
		AccessTokenTTL:       cfg.AccessTokenTTL,
		RefreshTokenTTL:      cfg.RefreshTokenTTL,
		VerificationTokenTTL: cfg.VerificationTokenTTL,
		ResetTokenTTL:        cfg.ResetTokenTTL,
		MFATokenTTL:          cfg.MFATokenTTL,
		MaxLoginAttempts:     cfg.MaxLoginAttempts,
		LockoutDuration:      cfg.LockoutDuration,
		RequireVerifiedEmail: cfg.RequireVerifiedEmail,
		MFAIssuer:            cfg.JWTIssuer,
	}

	authService := service.NewAuthService(store, emailSender, hasher, accessIssuer, mfaIssuer, totpProvider, service.RealClock{}, authConfig)
	registrationService := service.NewRegistrationService(store, hasher, emailSender, service.RealClock{}, authConfig, logger)
	userService := service.NewUserService(store)

	var authRate, globalRate apiMiddleware.RateLimiter
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		authRate = &apiMiddleware.RedisFixedWindow{Client: redisClient, Limit: cfg.AuthRateLimit, Window: cfg.AuthRateWindow, Prefix: "rl:auth"}
		globalRate = &apiMiddleware.RedisFixedWindow{Client: redisClient, Limit: cfg.GlobalRateLimit, Window: cfg.GlobalRateWindow, Prefix: "rl:global"}
	} else {
		authRate = apiMiddleware.NewMemoryFixedWindow(cfg.AuthRateLimit, cfg.AuthRateWindow)
		globalRate = apiMiddleware.NewMemoryFixedWindow(cfg.GlobalRateLimit, cfg.GlobalRateWindow)
	}

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status": v.Status,
				"method": v.Method,
				"uri":    v.URI,
				"ip":     v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	production := cfg.Production()
	authMiddleware := apiMiddleware.AuthMiddleware{JWT: &jwtManager, Auth: authService}
	router := &routes.Router{
		Echo:           app,
		Auth:           handler.NewAuthHandler(authService, validate, logger, production),
		Registration:   handler.NewRegistrationHandler(registrationService, validate, logger, production),
		Users:          handler.NewUserHandler(userService, validate, logger, production),
		AuthMiddleware: authMiddleware,
		AuthRate:       authRate,
		GlobalRate:     globalRate,
		Logger:         logger,
	}
	router.RegisterRoutes()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := service.NewSweeper(store, logger, cfg.SweepInterval)
	go sweeper.Run(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("shutdown")
		}
	}()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.WithField("addr", cfg.HTTPAddr).Info("server started")
	if err := app.StartServer(server); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Fatal("server stopped")
	}
}
