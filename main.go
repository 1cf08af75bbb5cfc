package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/perkpoint/loyalty-backend/database"
	"github.com/perkpoint/loyalty-backend/internal/errs"
	"github.com/perkpoint/loyalty-backend/internal/jobs"
	"github.com/perkpoint/loyalty-backend/internal/models"
	"github.com/perkpoint/loyalty-backend/internal/routes"
	"github.com/perkpoint/loyalty-backend/internal/services"
	"github.com/perkpoint/loyalty-backend/internal/storage"
	"gorm.io/gorm"
)

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		if err := godotenv.Load(".env"); err != nil {
			if err := godotenv.Load("environments/.env.development"); err != nil {
				log.Println("⚠️  No .env file found - checking environment variables")
			}
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	otpPepper := os.Getenv("OTP_PEPPER")
	if otpPepper == "" {
		log.Fatal("OTP_PEPPER is required")
	}
	internalKey := os.Getenv("INTERNAL_API_KEY")
	if internalKey == "" {
		log.Println("⚠️  INTERNAL_API_KEY not set - bot gateway endpoints disabled")
	}

	// Initialize storage
	var store storage.Store
	var db *gorm.DB

	if os.Getenv("USE_MEMORY_STORE") == "true" {
		log.Println("⚠️  Using in-memory storage (not for production!)")
		store = storage.NewMemoryStore()
	} else {
		log.Println("📦 Connecting to PostgreSQL database...")
		var err error
		db, err = database.Connect()
		if err != nil {
			log.Fatal(err)
		}

		log.Println("🔄 Running database migrations...")
		err = db.AutoMigrate(
			&models.Account{},
			&models.OTPCode{},
			&models.Company{},
			&models.Outlet{},
			&models.UserRole{},
			&models.EmployeeRole{},
			&models.CustomerRole{},
			&models.TariffPlan{},
			&models.Subscription{},
			&models.Promotion{},
			&models.CashbackSetting{},
			&models.Transaction{},
		)
		if err != nil {
			log.Fatal("Failed to migrate database:", err)
		}
		log.Println("✅ Database migrations completed!")

		store = storage.NewDatabaseStore(db)
	}

	// OTP delivery: Twilio when configured, log-only otherwise
	var notifier services.Notifier
	twilioNotifier, err := services.NewTwilioNotifier()
	if err != nil {
		log.Println("⚠️  Twilio credentials not found - OTP codes will be logged only")
		notifier = services.LogNotifier{}
	} else {
		log.Println("✅ Twilio notifier initialized")
		notifier = twilioNotifier
	}

	// Wire services; everything is passed explicitly, no globals
	otpService := services.NewOTPService(store, notifier, otpPepper)
	tokenService := services.NewTokenService(jwtSecret)
	accessService := services.NewAccessService(store)
	authService := services.NewAuthService(store, otpService, tokenService, accessService)
	cashbackService := services.NewCashbackService(store, otpService)

	maintenanceJob := jobs.NewMaintenanceJob(store)
	maintenanceJob.Start()

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "Perkpoint Loyalty Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				return c.Status(fiberErr.Code).JSON(fiber.Map{
					"error": fiberErr.Message,
				})
			}
			kind := errs.KindOf(err)
			if kind == errs.KindInternal {
				log.Printf("internal error on %s %s: %v", c.Method(), c.Path(), err)
			}
			return c.Status(kind.HTTPStatus()).JSON(fiber.Map{
				"error": errs.Message(err),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Internal-Key",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check endpoints
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "Perkpoint Loyalty Backend",
			"version": "1.0.0",
			"status":  "healthy",
			"storage": storageType(),
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		statusCode := 200
		if db != nil {
			sqlDB, err := db.DB()
			if err != nil || sqlDB.Ping() != nil {
				status = "unhealthy"
				statusCode = 503
			}
		}
		return c.Status(statusCode).JSON(fiber.Map{
			"status": status,
			"services": fiber.Map{
				"database": status == "healthy",
				"sms":      twilioNotifier != nil,
			},
		})
	})

	routes.SetupRoutes(app, routes.Deps{
		Store:       store,
		Tokens:      tokenService,
		Auth:        authService,
		Access:      accessService,
		Cashback:    cashbackService,
		InternalKey: internalKey,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		maintenanceJob.Stop()
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 Loyalty backend starting on port %s", port)
	log.Printf("📊 Storage: %s", storageType())
	log.Println("========================================")

	log.Fatal(app.Listen(":" + port))
}

func storageType() string {
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		return "In-Memory (Testing)"
	}
	return "PostgreSQL Database"
}
