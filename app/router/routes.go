// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/amirphl/marketplace-settlement/app/dto"
	"github.com/amirphl/marketplace-settlement/app/handlers"
	"github.com/amirphl/marketplace-settlement/app/middleware"
	businessflow "github.com/amirphl/marketplace-settlement/business_flow"
	"github.com/amirphl/marketplace-settlement/config"
	"github.com/amirphl/marketplace-settlement/models"
	"github.com/amirphl/marketplace-settlement/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cache"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	apiPrefix   = "/api/v1"
	healthPath  = apiPrefix + "/health"
	webhookPath = apiPrefix + "/payments/webhook"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	Shutdown(ctx context.Context) error
	GetApp() *fiber.App
}

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Auth    *handlers.AuthHandler
	Payment *handlers.PaymentHandler
	Seller  *handlers.SellerHandler
	Ad      *handlers.AdHandler
	Account *handlers.AccountHandler
	Admin   *handlers.AdminHandler
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app      *fiber.App
	cfg      *config.ProductionConfig
	handlers Handlers
	auth     *middleware.AuthMiddleware
	logger   *zap.Logger
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(cfg *config.ProductionConfig, h Handlers, auth *middleware.AuthMiddleware, logger *zap.Logger) Router {
	r := &FiberRouter{
		cfg:      cfg,
		handlers: h,
		auth:     auth,
		logger:   logger,
	}

	r.app = fiber.New(fiber.Config{
		AppName:      "Marketplace Settlement API",
		ServerHeader: "marketplace-settlement",
		ErrorHandler: r.errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ProxyHeader:  cfg.Server.ProxyHeader,
		TrustProxy:   len(cfg.Server.TrustedProxies) > 0,
		TrustProxyConfig: fiber.TrustProxyConfig{
			Proxies: cfg.Server.TrustedProxies,
		},
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})

	return r
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	r.setupMiddleware()

	if r.cfg.Metrics.Enabled {
		r.app.Get(r.cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	api := r.app.Group(apiPrefix)
	api.Get("/health", r.healthCheck)

	// Webhook deliveries come from a handful of processor addresses and are exempt
	api.Use(r.rateLimiter(r.cfg.Security.GlobalRateLimit, func(c fiber.Ctx) bool {
		return c.Path() == healthPath || c.Path() == webhookPath
	}))

	authn := r.auth.Authenticate()
	seller := models.AccountRoleSeller
	admin := models.AccountRoleAdmin

	// Auth routes with stricter rate limiting
	auth := api.Group("/auth")
	auth.Use(r.rateLimiter(r.cfg.Security.AuthRateLimit, nil))
	auth.Post("/register", r.handlers.Auth.Register)
	auth.Post("/login", r.handlers.Auth.Login)
	auth.Post("/refresh", r.handlers.Auth.RefreshToken)
	auth.Post("/logout", authn, r.handlers.Auth.Logout)

	payments := api.Group("/payments")
	payments.Post("/webhook", r.handlers.Payment.Webhook)
	payments.Post("/create-intent", authn,
		r.auth.RequireEligibility(businessflow.GuardRequirement{}),
		r.handlers.Payment.CreatePaymentIntent)
	payments.Get("/onboarding-link", authn,
		r.auth.RequireEligibility(businessflow.RoleRequirement(seller)),
		r.handlers.Seller.GetOnboardingLink)

	users := api.Group("/users", authn)
	users.Get("/me", r.auth.RequireEligibility(businessflow.IdentityRequirement()), r.handlers.Account.GetMe)
	users.Get("/me/purchases", r.auth.RequireEligibility(businessflow.IdentityRequirement()), r.handlers.Account.ListPurchases)
	users.Get("/me/earnings", r.auth.RequireEligibility(businessflow.RoleRequirement(seller)), r.handlers.Account.ListEarnings)
	users.Get("/payments/:paymentId", r.auth.RequireEligibility(businessflow.IdentityRequirement()), r.handlers.Account.GetPayment)
	users.Get("/seller-stats", r.auth.RequireEligibility(businessflow.RoleRequirement(seller)), r.handlers.Account.GetSellerStats)
	users.Post("/seller-profile", r.auth.RequireEligibility(businessflow.RoleRequirement(seller)), r.handlers.Seller.CreateSellerProfile)
	users.Patch("/seller-profile", r.auth.RequireEligibility(businessflow.SellerBankRequirement()), r.handlers.Seller.UpdateSellerProfile)
	users.Post("/seller-profile/sync", r.auth.RequireEligibility(businessflow.RoleRequirement(seller)), r.handlers.Seller.SyncOnboarding)

	ads := api.Group("/ads")
	ads.Post("", authn, r.auth.RequireEligibility(businessflow.SellerBankRequirement()), r.handlers.Ad.CreateAd)
	ads.Get("/mine", authn, r.auth.RequireEligibility(businessflow.RoleRequirement(seller)), r.handlers.Ad.ListMyAds)
	ads.Patch("/:adId/price", authn, r.auth.RequireEligibility(businessflow.SellerBankRequirement()), r.handlers.Ad.UpdateAdPrice)
	ads.Get("/:adId", r.handlers.Ad.GetAd)

	adminGroup := api.Group("/admin", authn, r.auth.RequireEligibility(businessflow.RoleRequirement(admin)))
	adminGroup.Patch("/accounts/:accountId/suspension", r.handlers.Admin.SetSuspension)
	adminGroup.Patch("/accounts/:accountId/verification", r.handlers.Admin.SetVerification)
	adminGroup.Get("/payments/export", r.handlers.Admin.ExportPayments)

	r.app.Use(r.notFoundHandler)

	r.logger.Info("Routes configured", zap.Int("route_count", len(r.app.GetRoutes())))
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: generateRequestID,
	}))

	sec := r.cfg.Security
	hstsMaxAge := 0
	if sec.TLSEnabled {
		hstsMaxAge = sec.HSTSMaxAge
	}
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             sec.XFrameOptions,
		HSTSMaxAge:                hstsMaxAge,
		HSTSExcludeSubdomains:     !sec.HSTSIncludeSubDoms,
		HSTSPreloadEnabled:        sec.HSTSPreload,
		ContentSecurityPolicy:     sec.CSPPolicy,
		ReferrerPolicy:            sec.ReferrerPolicy,
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-site",
		OriginAgentCluster:        "?1",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	r.app.Use(cors.New(cors.Config{
		AllowOrigins:     sec.AllowedOrigins,
		AllowMethods:     sec.AllowedMethods,
		AllowHeaders:     sec.AllowedHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: sec.AllowCredentials,
		MaxAge:           sec.CORSMaxAge,
	}))

	if r.cfg.Server.EnableCompression {
		r.app.Use(compress.New(compress.Config{
			Level: compress.LevelBestSpeed,
			Next: func(c fiber.Ctx) bool {
				// The webhook body is verified byte for byte
				return c.Path() == webhookPath
			},
		}))
	}

	// Only the health check is cacheable
	r.app.Use(cache.New(cache.Config{
		Next: func(c fiber.Ctx) bool {
			return c.Method() != fiber.MethodGet || c.Path() != healthPath
		},
		Expiration:          5 * time.Second,
		DisableCacheControl: false, // Cache-Control header stays enabled
	}))

	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${respHeader:X-Request-ID}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent}}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			return c.Path() == healthPath
		},
	}))

	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics(r.cfg.Metrics.Path))
	}

	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			r.logger.Error("Panic recovered",
				zap.Any("panic", e),
				zap.String("request_id", middleware.RequestID(c)),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
		},
	}))
}

func (r *FiberRouter) rateLimiter(limit int, next func(c fiber.Ctx) bool) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        limit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: next,
	})
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	r.logger.Info("Starting server", zap.String("address", address))
	return r.app.Listen(address, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown drains in-flight requests until ctx expires
func (r *FiberRouter) Shutdown(ctx context.Context) error {
	return r.app.ShutdownWithContext(ctx)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"service":   "marketplace-settlement-api",
		},
	})
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": middleware.RequestID(c),
			},
		},
	})
}

// errorHandler answers errors that escaped the handlers
func (r *FiberRouter) errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	errorCode := "INTERNAL_ERROR"
	message := "An internal server error occurred"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		if code < fiber.StatusInternalServerError {
			errorCode = strings.ToUpper(strings.ReplaceAll(http.StatusText(code), " ", "_"))
			message = e.Message
		}
	}

	if code >= fiber.StatusInternalServerError {
		r.logger.Error("Unhandled request error",
			zap.Error(err),
			zap.Int("status", code),
			zap.String("request_id", middleware.RequestID(c)),
			zap.String("path", c.Path()),
		)
	}

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code: errorCode,
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": middleware.RequestID(c),
			},
		},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
