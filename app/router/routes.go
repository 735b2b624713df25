// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/app/dto"
	"github.com/amirphl/Ijwi-ry-Abaturage/app/handlers"
	"github.com/amirphl/Ijwi-ry-Abaturage/app/middleware"
	"github.com/amirphl/Ijwi-ry-Abaturage/config"
	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
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
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app              *fiber.App
	authHandler      handlers.AuthHandlerInterface
	categoryHandler  handlers.CategoryHandlerInterface
	complaintHandler handlers.ComplaintHandlerInterface
	trackingHandler  handlers.TrackingHandlerInterface
	adminHandler     handlers.AdminComplaintHandlerInterface
	captchaHandler   handlers.CaptchaHandlerInterface
	authMiddleware   *middleware.AuthMiddleware
	uploadConfig     config.UploadConfig
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	authHandler handlers.AuthHandlerInterface,
	categoryHandler handlers.CategoryHandlerInterface,
	complaintHandler handlers.ComplaintHandlerInterface,
	trackingHandler handlers.TrackingHandlerInterface,
	adminHandler handlers.AdminComplaintHandlerInterface,
	captchaHandler handlers.CaptchaHandlerInterface,
	authMiddleware *middleware.AuthMiddleware,
	uploadConfig config.UploadConfig,
) Router {
	// Body limit must cover a full multipart submission (attachments included)
	app := fiber.New(fiber.Config{
		AppName:      "Ijwi ry'Abaturage API",
		ServerHeader: "Ijwi-ry-Abaturage",
		ErrorHandler: errorHandler,
		BodyLimit:    (utils.MaxUploadFiles + 1) * utils.MaxUploadFileSize,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:              app,
		authHandler:      authHandler,
		categoryHandler:  categoryHandler,
		complaintHandler: complaintHandler,
		trackingHandler:  trackingHandler,
		adminHandler:     adminHandler,
		captchaHandler:   captchaHandler,
		authMiddleware:   authMiddleware,
		uploadConfig:     uploadConfig,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	// Global middleware
	r.setupMiddleware()

	// API routes
	api := r.app.Group("/api")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	// Prometheus exposition endpoint
	r.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Stored attachments are served straight from the upload directory
	uploadPrefix := strings.TrimSuffix(r.uploadConfig.PublicPrefix, "/")
	if uploadPrefix == "" {
		uploadPrefix = "/uploads"
	}
	r.app.Use(uploadPrefix, static.New(r.uploadConfig.BaseDir, static.Config{
		ByteRange: true,
		MaxAge:    3600,
	}))

	// Apply general rate limiting to all API routes (aligned with nginx)
	api.Use(limiter.New(limiter.Config{
		Max:        2000,            // Maximum 2000 requests (matches nginx api zone)
		Expiration: 1 * time.Minute, // Per minute
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP() // Rate limit by IP
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
		Next: func(c fiber.Ctx) bool {
			// Skip rate limiting for health checks
			return c.Path() == "/api/health"
		},
	}))

	// Auth routes with stricter rate limiting
	auth := api.Group("/auth")

	// Apply stricter rate limiting to auth endpoints (aligned with nginx)
	auth.Use(limiter.New(limiter.Config{
		Max:        20,              // Maximum 20 requests (matches nginx auth zone)
		Expiration: 1 * time.Minute, // Per minute
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP() // Rate limit by IP
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
	}))

	// Auth endpoints
	auth.Post("/register", r.authHandler.Register)
	auth.Post("/login", r.authHandler.Login)
	auth.Get("/verify-email/:token", r.authHandler.VerifyEmail)
	auth.Post("/forgot-password", r.authHandler.ForgotPassword)
	auth.Post("/reset-password/:token", r.authHandler.ResetPassword)
	auth.Post("/refresh", r.authHandler.RefreshToken)
	auth.Get("/me", r.authMiddleware.Authenticate(), r.authHandler.Me)

	// Category endpoints (public reads, admin writes)
	categories := api.Group("/categories")
	categories.Get("/", r.categoryHandler.ListCategories)
	categories.Get("/tree", r.categoryHandler.ListCategoryTree)
	categories.Get("/:categoryId/subcategories", r.categoryHandler.ListSubcategories)
	categories.Post("/", r.authMiddleware.Authenticate(), r.authMiddleware.RequireAdmin(), r.categoryHandler.CreateCategory)
	categories.Patch("/:categoryId", r.authMiddleware.Authenticate(), r.authMiddleware.RequireAdmin(), r.categoryHandler.UpdateCategory)
	categories.Post("/subcategories", r.authMiddleware.Authenticate(), r.authMiddleware.RequireAdmin(), r.categoryHandler.CreateSubcategory)
	categories.Patch("/subcategories/:subcategoryId", r.authMiddleware.Authenticate(), r.authMiddleware.RequireAdmin(), r.categoryHandler.UpdateSubcategory)

	// Complaint submission and citizen endpoints
	complaints := api.Group("/complaints")
	complaints.Post("/", r.authMiddleware.OptionalAuth(), r.complaintHandler.SubmitComplaint)
	complaints.Get("/user", r.authMiddleware.Authenticate(), r.complaintHandler.ListUserComplaints)
	complaints.Post("/:complaintId/comments", r.authMiddleware.Authenticate(), r.complaintHandler.AddComment)

	// Admin complaint management
	admin := complaints.Group("/admin", r.authMiddleware.Authenticate(), r.authMiddleware.RequireAdmin())
	admin.Get("/", r.adminHandler.ListComplaints)
	admin.Get("/statistics", r.adminHandler.GetStatistics)
	admin.Get("/export", r.adminHandler.ExportComplaints)
	admin.Patch("/:complaintId/status", r.adminHandler.UpdateStatus)
	admin.Patch("/:complaintId/assign", r.adminHandler.AssignComplaint)
	admin.Patch("/:complaintId/priority", r.adminHandler.UpdatePriority)

	// Public tracking endpoints
	tracking := api.Group("/tracking")
	tracking.Post("/validate", r.trackingHandler.ValidateTrackingID)
	tracking.Get("/:trackingId", r.trackingHandler.GetComplaint)
	tracking.Get("/:trackingId/history", r.trackingHandler.GetStatusHistory)

	// Captcha endpoints for anonymous submissions
	captcha := api.Group("/captcha")
	captcha.Get("/generate", r.captchaHandler.Generate)
	captcha.Post("/verify", r.captchaHandler.Verify)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// SetupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		HSTSMaxAge:                31536000, // 1 year
		HSTSExcludeSubdomains:     false,
		ContentSecurityPolicy:     "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self' https:; connect-src 'self' https:; frame-ancestors 'none';",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginEmbedderPolicy: "require-corp",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "cross-origin",
		OriginAgentCluster:        "?1",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	// CORS middleware with production settings
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"https://ijwi-ry-abaturage.rw",
			"https://www.ijwi-ry-abaturage.rw",
			"https://api.ijwi-ry-abaturage.rw",
			"https://admin.ijwi-ry-abaturage.rw",
		},
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			"X-Request-ID",
			"Cache-Control",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
			"X-Response-Time",
			"Content-Disposition",
		},
		AllowCredentials: true,
		MaxAge:           utils.CORSMaxAge,
	}))

	// Compression middleware for performance
	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			// Skip compression for certain content types
			contentType := c.Get("Content-Type")
			return contains(contentType, "image/") ||
				contains(contentType, "video/") ||
				contains(contentType, "audio/")
		},
	}))

	// Cache middleware for static content
	r.app.Use(cache.New(cache.Config{
		Next: func(c fiber.Ctx) bool {
			// Only cache GET requests to public category listings
			return c.Method() != "GET" || !contains(c.Path(), "/categories")
		},
		Expiration: 10 * time.Minute,
	}))

	// Advanced logging middleware
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			// Skip logging for health checks in production
			return c.Path() == "/api/health" || c.Path() == "/metrics"
		},
	}))

	// Request metrics middleware
	r.app.Use(middleware.Metrics())

	// Custom security middleware
	r.app.Use(r.securityMiddleware)

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			// Log panic with request context
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Custom security middleware
func (r *FiberRouter) securityMiddleware(c fiber.Ctx) error {
	// Add security headers
	c.Set("X-Response-Time", utils.UTCNow().Format(time.RFC3339))
	c.Set("Server", "Ijwi-ry-Abaturage")

	return c.Next()
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   "1.0.0",
			"service":   "ijwi-ry-abaturage-api",
		},
	})
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	// Default error code
	code := fiber.StatusInternalServerError

	// Retrieve the custom status code if it's a fiber.*Error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Log the error
	log.Printf("Error %d: %v", code, err)

	// Get RequestID for tracing
	requestID := c.Locals("requestid")

	// Return JSON error response
	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// Helper functions

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// contains checks if a string contains a substring
func contains(str, substr string) bool {
	return strings.Contains(str, substr)
}
