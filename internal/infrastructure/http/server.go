package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/safesuite/provisioning/internal/adapter/handler/http"
	"github.com/safesuite/provisioning/internal/config"
	"github.com/safesuite/provisioning/internal/infrastructure/database"
	"github.com/safesuite/provisioning/internal/infrastructure/notify"
	"github.com/safesuite/provisioning/internal/infrastructure/provider/apps"
	"github.com/safesuite/provisioning/internal/middleware/auth"
	"github.com/safesuite/provisioning/internal/usecase"
	apperrors "github.com/safesuite/provisioning/pkg/errors"
	"github.com/safesuite/provisioning/pkg/logger"
	"github.com/safesuite/provisioning/pkg/retry"
)

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
	repos  *database.Repositories
	guard  usecase.DuplicateGuard
}

// customValidator adapts validator/v10 to Echo's Validator interface.
type customValidator struct {
	validate *validator.Validate
}

func (v *customValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// NewServer wires the full request path: webhook intake, the protected admin
// surface, and the health probe. guard may be nil when Redis is not
// configured; dedup then relies on the durable event store alone.
func NewServer(cfg *config.Config, log *zap.Logger, repos *database.Repositories, guard usecase.DuplicateGuard) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &customValidator{validate: validator.New()}
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		httpErr := apperrors.ToHTTPError(err)
		if jsonErr := c.JSON(httpErr.Code, echo.Map{"error": fmt.Sprintf("%v", httpErr.Message)}); jsonErr != nil {
			log.Error("Failed to write error response", zap.Error(jsonErr))
		}
	}

	// Middleware
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.AdminBaseURL},
		AllowMethods: []string{echo.GET, echo.POST},
	}))

	return &Server{
		config: cfg,
		logger: log,
		echo:   e,
		repos:  repos,
		guard:  guard,
	}
}

func (s *Server) Start() error {
	s.setupRoutes()

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
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	// Provisioning pipeline
	provisioner := apps.NewClient(&s.config.Apps, retry.DefaultPolicy(), s.logger)
	syncService := usecase.NewSyncService(provisioner, s.repos.Audit, s.logger)

	notifier := notify.NewSlackNotifier(s.config.Notify.Slack, s.logger)
	escalation := usecase.NewEscalationService(notifier, s.repos.Audit, s.config.Service.AdminBaseURL, s.logger)

	var purchases usecase.PurchaseNotifier
	if s.config.Notify.Brevo.APIKey != "" {
		purchases = notify.NewBrevoMailer(s.config.Notify.Brevo, s.logger)
	}

	dispatcher := usecase.NewWebhookDispatcher(
		s.config.Service.StripeWebhookSecret,
		syncService,
		escalation,
		s.repos.Events,
		s.guard,
		purchases,
		s.logger,
	)

	remediation := usecase.NewRemediationService(provisioner, syncService, s.repos.Audit, s.logger)

	// Handlers
	webhookHandler := handlers.NewWebhookHandler(dispatcher, s.logger)
	remediationHandler := handlers.NewRemediationHandler(remediation, s.logger)
	auditHandler := handlers.NewAuditHandler(s.repos.Audit, s.logger)

	// Webhook route (outside API versioning); signature verification is its
	// own authentication.
	s.echo.POST("/webhook", webhookHandler.HandleWebhook)

	// Operator surface, JWT-protected.
	jwtConfig := auth.JWTConfig{
		Secret: s.config.Auth.JWTSecret,
		Logger: s.logger,
	}

	v1 := s.echo.Group("/api/v1")
	admin := v1.Group("/admin", auth.JWTMiddleware(jwtConfig))
	admin.GET("/status", remediationHandler.CheckStatus)
	admin.POST("/reprovision", remediationHandler.Reprovision)
	admin.GET("/audit-logs", auditHandler.List)
}
