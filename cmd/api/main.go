package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // overview ?tz= needs zone data on images without /usr/share/zoneinfo

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/savemymoney/savemymoney-backend/internal/config"
	"github.com/savemymoney/savemymoney-backend/internal/handler"
	"github.com/savemymoney/savemymoney-backend/internal/middleware"
	"github.com/savemymoney/savemymoney-backend/internal/repository/storage"
	"github.com/savemymoney/savemymoney-backend/internal/service"
	ledgerstorage "github.com/savemymoney/savemymoney-backend/internal/storage"
	"github.com/savemymoney/savemymoney-backend/internal/websocket"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect the ledger store
	ledgerStore, err := ledgerstorage.OpenLedgerStore(ctx, cfg, cfg.MigrateOnStart)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Failed to open ledger store")
	}
	defer ledgerStore.Close()
	log.Info().Str("driver", ledgerStore.Driver).Msg("Ledger store ready")

	// Initialize export storage (optional)
	var exportRepo storage.ExportRepository
	if cfg.S3.Enabled() {
		s3Repo, err := storage.NewS3ExportRepository(ctx, cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize export storage")
		}
		exportRepo = s3Repo
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Export backups enabled")
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub()

	// Initialize services
	sessions := service.NewSessionRegistry(
		service.NewSubscriptionManager(ledgerStore),
		service.NewMutationBridge(ledgerStore),
		service.SessionOptions{PushOnSave: cfg.PushOnSave},
	)
	sessions.SetEventPublisher(hub)
	defer sessions.Close()

	budgetService := service.NewBudgetService()
	transactionService := service.NewTransactionService()
	transferService := service.NewTransferService(exportRepo)

	// Initialize auth
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}
	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	// Initialize handlers
	handlers := handler.Handlers{
		Document:    handler.NewDocumentHandler(sessions, hub),
		Budget:      handler.NewBudgetHandler(sessions, budgetService),
		Transaction: handler.NewTransactionHandler(sessions, transactionService),
		View:        handler.NewViewHandler(sessions),
		Transfer:    handler.NewTransferHandler(sessions, transferService),
		WebSocket:   handler.NewWebSocketHandler(hub, sessions, authMiddleware, cfg.CORSOrigins),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders:    []string{echo.HeaderContentDisposition},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"store":    ledgerStore.Driver,
			"sessions": sessions.Count(),
		})
	})

	// Register API routes
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, handlers)

	g, gctx := errgroup.WithContext(ctx)

	// Change notifications from the ledger store
	g.Go(func() error {
		return ledgerStore.Run(gctx)
	})

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Str("user_id", middleware.GetUserID(c)).
				Msg("request")

			return nil
		}
	}
}
