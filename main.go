package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"userapi/internal/handlers"
	"userapi/internal/middleware"
	"userapi/internal/models"
	"userapi/internal/repositories"
	"userapi/internal/services"
	"userapi/pkg/jsend"
	"userapi/pkg/rabbitmq"
)

// Config holds the process-wide settings, read once at startup and
// passed into the constructors that need them.
type Config struct {
	AppPort     string
	DatabaseDSN string
	JWTSecret   string
	TokenTTL    time.Duration
	RabbitMQURL string
}

func loadConfig() Config {
	viper.SetDefault("APP_PORT", ":3000")
	viper.SetDefault("DATABASE_DSN", "db.sqlite")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("JWT_EXPIRES_IN", "24h")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.AutomaticEnv() // Load environment variables

	return Config{
		AppPort:     viper.GetString("APP_PORT"),
		DatabaseDSN: viper.GetString("DATABASE_DSN"),
		JWTSecret:   viper.GetString("JWT_SECRET"),
		TokenTTL:    viper.GetDuration("JWT_EXPIRES_IN"),
		RabbitMQURL: viper.GetString("RABBITMQ_URL"),
	}
}

// openDatabase opens the configured database. PostgreSQL DSNs are
// recognized by their URL or key=value form; anything else is treated
// as a SQLite file path. TranslateError is required so unique-index
// violations surface as gorm.ErrDuplicatedKey on either driver.
func openDatabase(dsn string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{TranslateError: true}
	if strings.HasPrefix(dsn, "postgres://") || strings.Contains(dsn, "host=") {
		return gorm.Open(postgres.Open(dsn), gormCfg)
	}
	return gorm.Open(sqlite.Open(dsn), gormCfg)
}

// newApp wires repositories, services, handlers and middleware into a
// Fiber app. The events publisher may be nil.
func newApp(cfg Config, db *gorm.DB, events services.EventPublisher) *fiber.App {
	userRepo := repositories.NewGORMUserRepository(db)

	authService := services.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	userService := services.NewUserService(userRepo, authService, events)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)

	app := fiber.New()

	app.Use(middleware.RequestID())
	app.Use(logger.New()) // Request logger

	authHandler.RegisterRoutes(app)
	userHandler.RegisterRoutes(app, middleware.AuthRequired(authService))

	app.Get("/about", handleAbout)
	app.Get("/ping", handlePing)
	app.Get("/health", handleHealth)

	return app
}

// handleAbout returns static service information.
func handleAbout(c *fiber.Ctx) error {
	return jsend.Success(c, fiber.StatusOK, fiber.Map{
		"name":        "userapi",
		"version":     "1.0.0",
		"description": "user account REST API",
	})
}

// handlePing always answers 200 with an empty body.
func handlePing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString("")
}

func handleHealth(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func main() {
	cfg := loadConfig()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	if cfg.TokenTTL <= 0 {
		log.Fatal("JWT_EXPIRES_IN must be a positive duration")
	}

	db, err := openDatabase(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Account events are optional: without a broker URL the service
	// runs with publishing disabled.
	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close() // Ensure the connection is closed on exit
		events = mqClient
	} else {
		log.Println("RABBITMQ_URL not set, user event publishing disabled")
	}

	app := newApp(cfg, db, events)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", cfg.AppPort)
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
