// Package main provides the main entry point for the Ijwi ry'Abaturage citizen complaint platform
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirphl/Ijwi-ry-Abaturage/app/handlers"
	"github.com/amirphl/Ijwi-ry-Abaturage/app/middleware"
	"github.com/amirphl/Ijwi-ry-Abaturage/app/router"
	"github.com/amirphl/Ijwi-ry-Abaturage/app/services"
	businessflow "github.com/amirphl/Ijwi-ry-Abaturage/business_flow"
	"github.com/amirphl/Ijwi-ry-Abaturage/config"
	"github.com/amirphl/Ijwi-ry-Abaturage/models"
	"github.com/amirphl/Ijwi-ry-Abaturage/repository"
	"github.com/amirphl/Ijwi-ry-Abaturage/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	log.Println("Starting Ijwi ry'Abaturage application...")

	// Load production configuration
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Route application logs through the configured (rotating) writer
	log.SetOutput(config.LogWriter(cfg.Logging))

	// Initialize application
	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	// Setup routes
	app.router.SetupRoutes()

	// Setup graceful shutdown
	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers
	for _, fn := range app.stopFuncs {
		fn()
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pooling configuration
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pooling
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test the connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Keep the schema current with the registered models
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Subcategory{},
		&models.Complaint{},
		&models.Attachment{},
		&models.StatusHistory{},
		&models.Comment{},
		&models.NotificationLog{},
		&models.AuditLog{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the Cache client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled || cfg.Provider != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	// Override DB if provided in config
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically pings Redis
// to detect connectivity issues. The returned cancel function stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeNotificationService initializes the notification service
func initializeNotificationService(cfg *config.ProductionConfig) services.NotificationService {
	var smsProvider services.SMSProvider
	var emailProvider services.EmailProvider

	if cfg.SMS.Enabled {
		smsProvider = services.NewGatewaySMSProvider(cfg.SMS.Username, cfg.SMS.Password, cfg.SMS.FromNumber)
	} else {
		smsProvider = services.NewMockSMSProvider()
	}

	if cfg.Email.Username != "" {
		emailProvider = services.NewSMTPEmailProvider(cfg.Email.Host, cfg.Email.Port, cfg.Email.Username, cfg.Email.Password, cfg.Email.FromEmail)
	} else {
		emailProvider = services.NewMockEmailProvider()
	}

	return services.NewNotificationService(smsProvider, emailProvider)
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}

	if rc != nil {
		cancel := startCacheHealthMonitor(context.Background(), rc, cfg.Cache.CleanupInterval)
		stopFuncs = append(stopFuncs, cancel)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	subcategoryRepo := repository.NewSubcategoryRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	statusHistoryRepo := repository.NewStatusHistoryRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationLogRepo := repository.NewNotificationLogRepository(db)

	// Seed the administrator account and default categories
	if err := ensureAdminUser(db, userRepo, cfg.Admin, cfg.Security.BcryptCost); err != nil {
		return nil, err
	}
	if err := ensureDefaultCategories(categoryRepo, subcategoryRepo); err != nil {
		return nil, err
	}

	// Initialize services
	notificationService := initializeNotificationService(cfg)
	complaintNotifier := services.NewComplaintNotifier(notificationService, cfg.App.TrackingURL)

	captchaSvc, err := services.NewCaptchaServiceRotate(cfg.Captcha.TTL, cfg.Captcha.Padding, cfg.Captcha.ImageSize)
	if err != nil {
		return nil, err
	}

	fileStorage := services.NewFileStorageService(cfg.Upload.BaseDir, cfg.Upload.PublicPrefix, cfg.Upload.MaxFileSize)

	// Initialize token service
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	log.Printf("Token service initialized with issuer: %s, audience: %s", cfg.JWT.Issuer, cfg.JWT.Audience)

	// Initialize flows
	signupFlow := businessflow.NewSignupFlow(
		userRepo,
		auditRepo,
		notificationService,
		cfg.App.VerifyBaseURL,
		db,
	)

	loginFlow := businessflow.NewLoginFlow(
		userRepo,
		auditRepo,
		tokenService,
		notificationService,
		cfg.App.ResetBaseURL,
		db,
	)

	categoryFlow := businessflow.NewCategoryFlow(
		categoryRepo,
		subcategoryRepo,
		auditRepo,
		rc,
		&cfg.Cache,
		db,
	)

	complaintFlow := businessflow.NewComplaintFlow(
		complaintRepo,
		categoryRepo,
		subcategoryRepo,
		attachmentRepo,
		statusHistoryRepo,
		commentRepo,
		notificationLogRepo,
		auditRepo,
		complaintNotifier,
		captchaSvc,
		fileStorage,
		db,
	)

	commentFlow := businessflow.NewCommentFlow(
		commentRepo,
		complaintRepo,
		userRepo,
		notificationLogRepo,
		auditRepo,
		complaintNotifier,
		db,
	)

	complaintAdminFlow := businessflow.NewComplaintAdminFlow(
		complaintRepo,
		categoryRepo,
		statusHistoryRepo,
		userRepo,
		notificationLogRepo,
		auditRepo,
		complaintNotifier,
		rc,
		&cfg.Cache,
		db,
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(signupFlow, loginFlow)
	categoryHandler := handlers.NewCategoryHandler(categoryFlow)
	complaintHandler := handlers.NewComplaintHandler(complaintFlow, commentFlow)
	trackingHandler := handlers.NewTrackingHandler(complaintFlow)
	adminComplaintHandler := handlers.NewAdminComplaintHandler(complaintAdminFlow)
	captchaHandler := handlers.NewCaptchaHandler(captchaSvc)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Initialize router
	appRouter := router.NewFiberRouter(
		authHandler,
		categoryHandler,
		complaintHandler,
		trackingHandler,
		adminComplaintHandler,
		captchaHandler,
		authMiddleware,
		cfg.Upload,
	)

	// Create application struct from FiberRouter
	fiberRouter := appRouter.(*router.FiberRouter)
	application := &Application{
		router:    fiberRouter,
		config:    cfg,
		server:    fiberRouter.GetApp(),
		stopFuncs: stopFuncs,
	}

	return application, nil
}

// ensureAdminUser creates the configured administrator account when it does not exist yet
func ensureAdminUser(db *gorm.DB, userRepo repository.UserRepository, cfg config.AdminConfig, bcryptCost int) error {
	if cfg.Email == "" {
		return nil
	}

	existing, err := userRepo.ByEmail(context.Background(), cfg.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcryptCost)
	if err != nil {
		return err
	}

	admin := models.User{
		FirstName:    cfg.FirstName,
		LastName:     cfg.LastName,
		Email:        cfg.Email,
		PasswordHash: string(hash),
		Role:         models.UserRoleAdmin,
		IsVerified:   utils.ToPtr(true),
		CreatedAt:    utils.UTCNow(),
		UpdatedAt:    utils.UTCNow(),
	}
	if err := userRepo.Save(context.Background(), &admin); err != nil {
		return err
	}

	log.Printf("Seeded administrator account %s", cfg.Email)
	return nil
}

type seedCategory struct {
	name          string
	description   string
	subcategories []seedSubcategory
}

type seedSubcategory struct {
	name        string
	description string
}

func defaultCategories() []seedCategory {
	return []seedCategory{
		{
			name:        "Infrastructure",
			description: "Issues related to public infrastructure",
			subcategories: []seedSubcategory{
				{"Roads", "Issues with roads, highways, and streets"},
				{"Bridges", "Issues with bridges and overpasses"},
				{"Public Buildings", "Issues with government buildings and facilities"},
				{"Public Transport", "Issues with public transportation systems"},
			},
		},
		{
			name:        "Education",
			description: "Issues related to education services",
			subcategories: []seedSubcategory{
				{"Primary Schools", "Issues related to primary education"},
				{"Secondary Schools", "Issues related to secondary education"},
				{"Higher Education", "Issues related to universities and colleges"},
				{"Educational Programs", "Issues with educational programs and curriculum"},
			},
		},
		{
			name:        "Healthcare",
			description: "Issues related to healthcare services",
			subcategories: []seedSubcategory{
				{"Hospitals", "Issues with hospitals and medical centers"},
				{"Health Centers", "Issues with local health centers and clinics"},
				{"Medication", "Issues with medication availability and distribution"},
				{"Health Insurance", "Issues with health insurance and coverage"},
			},
		},
		{
			name:        "Public Safety",
			description: "Issues related to public safety and security",
			subcategories: []seedSubcategory{
				{"Police Services", "Issues with police services and law enforcement"},
				{"Fire Services", "Issues with fire services and emergency response"},
				{"Emergency Services", "Issues with emergency medical services"},
				{"Public Security", "Issues with public security and safety measures"},
			},
		},
		{
			name:        "Utilities",
			description: "Issues related to public utilities",
			subcategories: []seedSubcategory{
				{"Water Supply", "Issues with water supply and distribution"},
				{"Electricity", "Issues with electricity supply and distribution"},
				{"Waste Management", "Issues with waste collection and disposal"},
				{"Internet & Telecommunications", "Issues with internet and telecommunications services"},
			},
		},
	}
}

// ensureDefaultCategories seeds the built-in category tree, skipping entries that already exist
func ensureDefaultCategories(categoryRepo repository.CategoryRepository, subcategoryRepo repository.SubcategoryRepository) error {
	ctx := context.Background()

	for _, sc := range defaultCategories() {
		category, err := categoryRepo.ByName(ctx, sc.name)
		if err != nil {
			return err
		}
		if category == nil {
			category = &models.Category{
				Name:        sc.name,
				Description: utils.ToPtr(sc.description),
				IsActive:    utils.ToPtr(true),
				CreatedAt:   utils.UTCNow(),
				UpdatedAt:   utils.UTCNow(),
			}
			if err := categoryRepo.Save(ctx, category); err != nil {
				return err
			}
		}

		for _, sub := range sc.subcategories {
			existing, err := subcategoryRepo.ByFilter(ctx, models.SubcategoryFilter{Name: utils.ToPtr(sub.name), CategoryID: &category.ID}, "", 1, 0)
			if err != nil {
				return err
			}
			if len(existing) > 0 {
				continue
			}
			subcategory := models.Subcategory{
				Name:        sub.name,
				Description: utils.ToPtr(sub.description),
				CategoryID:  category.ID,
				IsActive:    utils.ToPtr(true),
				CreatedAt:   utils.UTCNow(),
				UpdatedAt:   utils.UTCNow(),
			}
			if err := subcategoryRepo.Save(ctx, &subcategory); err != nil {
				return err
			}
		}
	}

	return nil
}
