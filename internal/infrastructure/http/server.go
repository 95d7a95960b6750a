package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/jsiptv/mobipay/internal/adapter/handler/http"
	"github.com/jsiptv/mobipay/internal/config"
	"github.com/jsiptv/mobipay/internal/domain/provider"
	"github.com/jsiptv/mobipay/internal/domain/repository"
	"github.com/jsiptv/mobipay/internal/logger"
	"github.com/jsiptv/mobipay/internal/middleware/auth"
	"github.com/jsiptv/mobipay/internal/usecase"
)

// Dependencies collects everything the route table needs
type Dependencies struct {
	Ledger       repository.TransactionLedger
	Clients      repository.ClientRegistry
	Panel        provider.SubscriberProvider
	Pricing      *usecase.PricingService
	Provisioning *usecase.ProvisioningService
	Registration *usecase.RegistrationService
	Receipts     usecase.ReceiptGenerator
	Notifier     usecase.Notifier
}

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
	deps   Dependencies
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func NewServer(cfg *config.Config, log *zap.Logger, deps Dependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(logger.NewEchoRequestLogger(log))

	s := &Server{
		config: cfg,
		logger: log,
		echo:   e,
		deps:   deps,
	}
	s.setupRoutes()

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": s.config.Service.Name,
		})
	})

	lookupHandler := handlers.NewLookupHandler(s.logger, s.deps.Panel, s.deps.Pricing)
	registerHandler := handlers.NewRegisterHandler(s.logger, s.deps.Registration)
	subscriptionHandler := handlers.NewSubscriptionHandler(s.logger, s.deps.Panel, s.deps.Pricing)
	bouquetsHandler := handlers.NewBouquetsHandler(s.logger, s.deps.Panel)
	webhookHandler := handlers.NewWebhookHandler(s.logger, s.deps.Provisioning)
	adminHandler := handlers.NewAdminHandler(s.logger, s.deps.Ledger, s.deps.Clients, s.deps.Receipts, s.deps.Notifier)

	hmacSecrets := make(map[string]string, len(s.config.HMAC.Keys))
	for _, key := range s.config.HMAC.Keys {
		hmacSecrets[key.KeyID] = key.Secret
	}

	v1 := s.echo.Group("/api/v1")

	// Public storefront routes
	v1.GET("/lookup", lookupHandler.Lookup)
	v1.POST("/register", registerHandler.Register)
	v1.POST("/subscription/extend", subscriptionHandler.Extend)
	v1.POST("/subscription/client-info", subscriptionHandler.ClientInfo)
	v1.GET("/bouquets", bouquetsHandler.List)

	// Payment processor webhook, authenticated by request signature
	v1.POST("/payment/callback", webhookHandler.HandleCallback, auth.HMACMiddleware(auth.HMACConfig{
		Secrets: hmacSecrets,
		Skew:    s.config.HMAC.Skew,
		Logger:  s.logger,
	}))

	// Administrative inspection
	admin := v1.Group("/admin", auth.JWTMiddleware(auth.JWTConfig{
		Secret: s.config.Admin.JWTSecret,
		Logger: s.logger,
	}))
	admin.GET("/transactions/:id", adminHandler.GetTransaction)
	admin.POST("/clients/:username/resend-receipt", adminHandler.ResendReceipt)
}
