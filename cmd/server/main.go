package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"branchvid/internal/auth"
	"branchvid/internal/config"
	"branchvid/internal/handler"
	"branchvid/internal/httputil"
	"branchvid/internal/middleware"
	"branchvid/internal/repository/postgres"
	postgresVideo "branchvid/internal/repository/postgres/videotree"
	"branchvid/internal/service"
	serviceAuth "branchvid/internal/service/auth"
	serviceVideo "branchvid/internal/service/videotree"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, logCloser := config.NewLogger(cfg)
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	jwtVerifier, err := auth.NewJWTVerifier(cfg.AuthJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if cfg.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix, cfg.SearchLanguage); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		logger.Info("schema ensured", "search_language", cfg.SearchLanguage)
	}

	// Repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:           pool,
		Tables:         tables,
		Logger:         logger,
		SearchLanguage: cfg.SearchLanguage,
	}
	treeRepo := postgresVideo.NewTreeRepository(repoConfig)
	nodeRepo := postgresVideo.NewNodeRepository(repoConfig)
	historyRepo := postgresVideo.NewHistoryRepository(repoConfig)
	userRepo := postgres.NewUserRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Services
	authorizer := serviceAuth.NewOwnerBasedAuthorizer(treeRepo, nodeRepo)
	nodeService := serviceVideo.NewNodeService(nodeRepo, authorizer, logger)
	historyService := serviceVideo.NewHistoryService(historyRepo, treeRepo, logger)
	treeService := serviceVideo.NewTreeService(treeRepo, nodeService, historyService, txManager, authorizer, logger)
	userService := service.NewUserService(userRepo, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := pool.Ping(pingCtx); err != nil {
			httputil.RespondError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"status": "ok",
			"time":   time.Now(),
		})
	})

	handler.RegisterRoutes(mux,
		handler.NewTreeHandler(treeService, logger),
		handler.NewHistoryHandler(historyService, logger),
		handler.NewUserHandler(userService, logger),
	)

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → RequestLogger → Authenticate → Routes
	var h http.Handler = mux
	h = middleware.Authenticate(jwtVerifier, userService, logger)(h)
	h = middleware.RequestLogger(logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}
