package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/condoflow/be-approval-levels/internal/client"
	"github.com/condoflow/be-approval-levels/internal/config"
	"github.com/condoflow/be-approval-levels/internal/database"
	"github.com/condoflow/be-approval-levels/internal/handler"
	"github.com/condoflow/be-approval-levels/internal/logger"
	"github.com/condoflow/be-approval-levels/internal/middleware"
	"github.com/condoflow/be-approval-levels/internal/repository"
	"github.com/condoflow/be-approval-levels/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       cfg.Service.LogLevel,
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Msg("Starting Approval Levels Service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	// Connect the change-notification stream. The service runs without it;
	// sessions just lose live convergence until the bus is back.
	var nc *nats.Conn
	if cfg.NATS.URL != "" {
		nc, err = nats.Connect(cfg.NATS.URL, nats.Name(cfg.Service.Name))
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.NATS.URL).Msg("NATS unavailable; change events disabled")
		} else {
			defer nc.Drain()
			log.Info().Str("url", cfg.NATS.URL).Msg("NATS connection established")
		}
	}

	// Initialize repositories
	levelRepo := repository.NewApprovalLevelRepository(db)
	approverRepo := repository.NewApproverRepository(db)
	auditRepo := repository.NewLevelAuditRepository(db)

	// Initialize services
	publisher := client.NewChangePublisher(nc, log.Logger)
	levelService := service.NewLevelService(levelRepo, auditRepo, publisher, log)
	directory := service.NewApproverDirectory(approverRepo)

	// Setup HTTP routes
	httpHandler := handler.NewHTTPHandler(levelService, directory, log)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Approval level routes
	mux.HandleFunc("/api/v1/approval-levels", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			httpHandler.ListLevels(w, r)
		case http.MethodPost:
			httpHandler.CreateLevel(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/v1/approval-levels/update", requireMethod(http.MethodPut, httpHandler.UpdateLevel))
	mux.HandleFunc("/api/v1/approval-levels/delete", requireMethod(http.MethodDelete, httpHandler.DeleteLevel))
	mux.HandleFunc("/api/v1/approval-levels/copy-defaults", requireMethod(http.MethodPost, httpHandler.CopyDefaults))
	mux.HandleFunc("/api/v1/approval-levels/resolve", requireMethod(http.MethodGet, httpHandler.ResolveLevel))
	mux.HandleFunc("/api/v1/approval-levels/audit", requireMethod(http.MethodGet, httpHandler.AuditTrail))
	mux.HandleFunc("/api/v1/approvers", requireMethod(http.MethodGet, httpHandler.ListApprovers))

	// Apply middleware
	var h http.Handler = mux
	h = middleware.RequestID(h)
	h = middleware.Logger(&log.Logger)(h)
	h = middleware.Recovery(&log.Logger)(h)
	h = middleware.CORS([]string{"*"})(h)
	h = middleware.Timeout(cfg.Server.RequestTimeout)(h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}

// requireMethod rejects requests whose method does not match.
func requireMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}
