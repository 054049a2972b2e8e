package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"cleanpro-backend/controllers"
	"cleanpro-backend/database"
	"cleanpro-backend/middlewares"
	"cleanpro-backend/notifications"
	"cleanpro-backend/repositories"
	"cleanpro-backend/routes"
	"cleanpro-backend/services"
)

// envInt reads an int env var with a default fallback.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// buildNotifier returns an SMTP dispatcher when mail settings are present,
// otherwise a log-only dispatcher.
func buildNotifier(log zerolog.Logger) services.Notifier {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return &notifications.LogNotifier{Log: log}
	}
	return &notifications.SMTPNotifier{Config: notifications.SMTPConfig{
		Host:     host,
		Port:     envInt("SMTP_PORT", 587),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}}
}

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	if os.Getenv("LOG_PRETTY") == "true" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// ---- Database
	if err := database.Connect(); err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	if err := database.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	db := database.DB

	// ---- Wiring
	notifier := buildNotifier(log)
	directory := repositories.NewCustomerDirectory(db)

	appointmentSvc := services.NewAppointmentService(
		repositories.NewAppointmentRepository(db),
		directory,
		notifier,
		log,
	)
	invoiceSvc := services.NewInvoiceService(
		repositories.NewInvoiceRepository(db),
		directory,
		repositories.NewInvoiceNumberAllocator(db),
		repositories.NewCreditLedger(db),
		notifier,
		log,
	)

	// ---- Overdue sweep (daily, after midnight)
	scheduler := cron.New()
	sweepSchedule := os.Getenv("OVERDUE_SWEEP_CRON")
	if sweepSchedule == "" {
		sweepSchedule = "5 0 * * *"
	}
	if _, err := scheduler.AddFunc(sweepSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := invoiceSvc.SweepOverdue(ctx); err != nil {
			log.Error().Err(err).Msg("overdue sweep failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Str("schedule", sweepSchedule).Msg("invalid sweep schedule")
	}
	scheduler.Start()
	defer scheduler.Stop()

	// ---- Limits (configurable via env)
	bodyLimitBytes := envInt("BODY_LIMIT_BYTES", 0)
	if bodyLimitBytes <= 0 {
		bodyLimitBytes = envInt("BODY_LIMIT_MB", 4) * 1024 * 1024
	}

	// ---- Fiber app with global error handler + body limit
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    bodyLimitBytes,
	})

	// ---- CORS
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: false, // Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))

	// ---- Global rate limiter
	rlMax := envInt("RATE_LIMIT_MAX", 60)
	rlWindow := time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second
	app.Use(limiter.New(limiter.Config{
		Max:        rlMax,
		Expiration: rlWindow,
	}))

	// ---- Routes
	routes.Register(app, routes.Controllers{
		Auth:         controllers.NewAuthController(db),
		Customers:    controllers.NewCustomerController(db),
		Appointments: controllers.NewAppointmentController(appointmentSvc),
		Invoices:     controllers.NewInvoiceController(invoiceSvc),
	})

	// ---- Start
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Info().Str("port", port).Msg("starting API server")
	if err := app.Listen(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
