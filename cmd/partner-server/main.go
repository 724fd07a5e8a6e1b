package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pawcare/partner-api/internal/config"
	"github.com/pawcare/partner-api/internal/domain/partner"
	"github.com/pawcare/partner-api/internal/domain/quote"
	"github.com/pawcare/partner-api/internal/domain/record"
	"github.com/pawcare/partner-api/internal/domain/scheduling"
	"github.com/pawcare/partner-api/internal/platform/auth"
	"github.com/pawcare/partner-api/internal/platform/db"
	"github.com/pawcare/partner-api/internal/platform/events"
	"github.com/pawcare/partner-api/internal/platform/middleware"
	"github.com/pawcare/partner-api/internal/platform/notification"
	"github.com/pawcare/partner-api/internal/platform/otp"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "partner-server",
		Short: "Pet-care partner API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the partner API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Rollback last migration (not supported)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("WARNING: migrate down is destructive and not supported by the built-in runner.")
			fmt.Println("Write a forward migration that reverses the change instead.")
			return nil
		},
	})

	return cmd
}

// logEmailSender and logSMSSender are stand-in delivery providers: notices go
// to the log until a real gateway is configured.
type logEmailSender struct{ logger zerolog.Logger }

func (s logEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.logger.Info().Str("to", to).Str("subject", subject).Str("body", body).Msg("email notice")
	return nil
}

type logSMSSender struct{ logger zerolog.Logger }

func (s logSMSSender) SendSMS(_ context.Context, to, body string) error {
	s.logger.Info().Str("to", to).Str("body", body).Msg("sms notice")
	return nil
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.IsDev() && cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-only-secret-do-not-use-in-prod"
		logger.Warn().Msg("JWT_SECRET not set, using development default")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Redis (OTP store)
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	otpStore := otp.NewRedisStore(redisClient)

	// Session tokens
	signer := auth.NewSigner([]byte(cfg.JWTSecret), cfg.TokenTTL)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health checks
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/readyz", db.HealthHandler(pool))

	// API group
	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))
	apiV1.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	protected := apiV1.Group("", auth.Middleware(signer))

	// Partner accounts
	partnerRepo := partner.NewRepoPG(pool)
	partnerSvc := partner.NewService(partnerRepo, signer)
	partnerHandler := partner.NewHandler(partnerSvc)
	partnerHandler.RegisterPublicRoutes(apiV1)
	partnerHandler.RegisterRoutes(protected)

	// Slots
	schedRepo := scheduling.NewRepoPG(pool)
	schedSvc := scheduling.NewService(schedRepo)
	schedHandler := scheduling.NewHandler(schedSvc)
	schedHandler.RegisterRoutes(protected)

	// Customer notices
	notices := notification.NewManager(
		logEmailSender{logger: logger},
		logSMSSender{logger: logger},
		notification.NewTemplateEngine(),
	)
	recordRepo := record.NewRepoPG(pool)
	notifier := notification.NewStatusNotifier(notices, func(ctx context.Context, ev record.StatusChangedEvent) (string, map[string]string, error) {
		rec, err := recordRepo.GetByID(ctx, ev.RecordID)
		if err != nil {
			return "", nil, err
		}
		return ev.CustomerID.String(), map[string]string{
			"pet_name": rec.PetName,
			"service":  rec.ServiceName,
		}, nil
	}, logger)

	// Record lifecycle
	sink := events.Fanout{events.NewOutbox(pool), notifier}
	recordSvc := record.NewService(recordRepo, otpStore, schedSvc, sink, logger)
	recordSvc.SetOTPTTL(cfg.OTPTTL)
	recordHandler := record.NewHandler(recordSvc)
	recordHandler.RegisterRoutes(protected)

	// Pharmacy quotes
	quoteRepo := quote.NewRepoPG(pool)
	quoteSvc := quote.NewService(quoteRepo, logger)
	quoteHandler := quote.NewHandler(quoteSvc)
	quoteHandler.RegisterRoutes(protected)

	// Outbox publisher
	pubCtx, pubCancel := context.WithCancel(ctx)
	defer pubCancel()
	publisher := events.NewPublisher(pool, logger, events.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		PollEvery: cfg.OutboxPollEvery,
	})
	go publisher.Run(pubCtx)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	pubCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
