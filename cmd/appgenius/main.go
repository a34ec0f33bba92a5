package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/appgenius/appgenius/internal/agent/registry"
	"github.com/appgenius/appgenius/internal/common/config"
	"github.com/appgenius/appgenius/internal/common/httpmw"
	"github.com/appgenius/appgenius/internal/common/logger"
	"github.com/appgenius/appgenius/internal/credentials"
	credsapi "github.com/appgenius/appgenius/internal/credentials/api"
	"github.com/appgenius/appgenius/internal/events/bus"
	genapi "github.com/appgenius/appgenius/internal/generation/api"
	"github.com/appgenius/appgenius/internal/generation/completion"
	"github.com/appgenius/appgenius/internal/generation/orchestrator"
	projectapi "github.com/appgenius/appgenius/internal/project/api"
	"github.com/appgenius/appgenius/internal/project/lifecycle"
	"github.com/appgenius/appgenius/internal/project/repository"
	"github.com/appgenius/appgenius/internal/streaming"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetDefault(log)

	log.Info("Starting AppGenius service...")

	// 3. Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Connect to the event bus. No NATS URL means in-memory.
	var eventBus bus.EventBus
	if cfg.NATS.URL != "" {
		natsBus, err := bus.NewNATSEventBus(cfg.NATS, log)
		if err != nil {
			log.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		eventBus = natsBus
		log.Info("Connected to NATS event bus", zap.String("url", cfg.NATS.URL))
	} else {
		eventBus = bus.NewMemoryEventBus(log)
		log.Info("Using in-memory event bus")
	}
	defer eventBus.Close()

	// 5. Open the repository. Postgres when a host is configured, SQLite
	// otherwise.
	var repo repository.Repository
	if cfg.Database.Host != "" {
		repo, err = repository.NewPostgresRepository(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		log.Info("Connected to PostgreSQL", zap.String("host", cfg.Database.Host))
	} else {
		repo, err = repository.NewSQLiteRepository(cfg.Database.SQLitePath)
		if err != nil {
			log.Fatal("Failed to open SQLite database", zap.Error(err))
		}
		log.Info("Opened SQLite database", zap.String("path", cfg.Database.SQLitePath))
	}
	defer repo.Close()

	// 6. Agent registry, fixed execution order
	agents := registry.Default()
	log.Info("Loaded agent registry", zap.Int("agents", len(agents)))

	// 7. Credentials manager: user keystore first, env fallback only when
	// enabled.
	providers := []credentials.Provider{credentials.NewStoreProvider(repo)}
	if cfg.Cerebras.AllowEnvFallback {
		providers = append(providers, credentials.NewEnvProvider("APPGENIUS_"))
		log.Warn("Environment credential fallback enabled; all users share the server key")
	}
	credsMgr := credentials.NewManager(log, providers...)

	// 8. Generation pipeline
	factory := completion.NewCerebrasFactory(cfg.Cerebras)
	tracker := lifecycle.NewTracker(repo, log)
	orch := orchestrator.New(agents, repo, tracker, eventBus, cfg.Generation, log)

	// 9. WebSocket hub, fed from the event bus
	hub := streaming.NewHub(log)
	go hub.Run(ctx)
	busSub, err := streaming.BridgeBus(eventBus, hub, log)
	if err != nil {
		log.Fatal("Failed to subscribe hub to event bus", zap.Error(err))
	}
	defer busSub.Unsubscribe()

	// 10. Setup HTTP server with Gin
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(httpmw.Recovery(log))
	router.Use(httpmw.RequestLogger(log))
	router.Use(httpmw.ErrorHandler(log))
	router.Use(httpmw.CORS())

	// 11. Register API routes
	v1 := router.Group("/api/v1")
	genapi.SetupRoutes(v1, orch, agents, repo, credsMgr, factory, log)
	projectapi.SetupRoutes(v1, repo, log)
	credsapi.SetupRoutes(v1, repo, log)
	streaming.SetupRoutes(v1, hub, log)

	startedAt := time.Now()
	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if err := repo.Ping(c.Request.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"uptime":  time.Since(startedAt).String(),
			"service": "appgenius",
		})
	})

	// 12. Create HTTP server
	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeoutDuration(),
		// No write timeout: generation responses stream for minutes.
	}

	// 13. Start server in goroutine
	go func() {
		log.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// 14. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down AppGenius service...")

	// 15. Graceful shutdown
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("AppGenius service stopped")
}
