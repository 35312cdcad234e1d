package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mstream "github.com/haowjy/meridian-stream-go"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/ArthurLoboLobo/projeto-estudos/internal/auth"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/config"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/handler"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/handler/sse"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/middleware"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/repository/postgres"
	postgresStudy "github.com/ArthurLoboLobo/projeto-estudos/internal/repository/postgres/study"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/chunking"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/document"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/extraction"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/jobs"
	serviceLLM "github.com/ArthurLoboLobo/projeto-estudos/internal/service/llm"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/planning"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/prompts"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/retry"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/session"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/service/streaming"
	"github.com/ArthurLoboLobo/projeto-estudos/internal/storage"
)

const (
	maxLogFiles     = 10
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" || cfg.Debug {
		logLevel = slog.LevelDebug
	}

	var logOutput io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, maxLogFiles)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"text_provider", cfg.TextProvider,
		"storage_backend", cfg.StorageBackend,
	)

	// Create JWT verifier for Supabase authentication
	jwtVerifier, err := auth.NewJWTVerifier(cfg.SupabaseJWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if cfg.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, pool, tables, cfg.TablePrefix, logger); err != nil {
			log.Fatalf("Failed to apply schema: %v", err)
		}
	}

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	sessionRepo := postgresStudy.NewSessionRepository(repoConfig)
	documentRepo := postgresStudy.NewDocumentRepository(repoConfig)
	topicRepo := postgresStudy.NewTopicRepository(repoConfig)
	chatRepo := postgresStudy.NewChatRepository(repoConfig)
	chunkRepo := postgresStudy.NewChunkRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	objectStorage, err := storage.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create object storage: %v", err)
	}
	if closer, ok := objectStorage.(io.Closer); ok {
		defer closer.Close()
	}

	// Setup oracles (text, embeddings, vision)
	oracles, err := serviceLLM.NewProviderFactory(cfg, logger).Build()
	if err != nil {
		log.Fatalf("Failed to setup LLM providers: %v", err)
	}

	catalog, err := prompts.Load()
	if err != nil {
		log.Fatalf("Failed to load prompts: %v", err)
	}
	visionPrompt, err := catalog.Render(prompts.VisionExtraction, nil)
	if err != nil {
		log.Fatalf("Failed to render vision prompt: %v", err)
	}

	policy := retry.FromConfig(cfg, logger)
	tracker := jobs.NewTracker(logger)

	// Plan and chunking runs are mstream streams so clients can reattach
	streamRegistry := mstream.NewRegistry()
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	go streamRegistry.StartCleanup(cleanupCtx)
	runner := streaming.NewRunner(streamRegistry, cfg.Debug, logger)

	extractor := extraction.NewPipeline(
		extraction.NewPdftoppmRasterizer(cfg.PdftoppmPath, config.RasterDPI),
		oracles.Vision,
		visionPrompt,
		policy,
		config.MaxConcurrentPages,
		logger,
	)
	planner := planning.NewPlanner(oracles.Text, catalog, cfg.ModelPlan, logger)
	chunker := chunking.NewPipeline(
		oracles.Text,
		oracles.Embedder,
		catalog,
		cfg.ModelChunking,
		chunkRepo,
		documentRepo,
		txManager,
		logger,
	)

	sessionService := session.NewSessionService(sessionRepo, documentRepo, topicRepo, chatRepo, chunkRepo, objectStorage, logger)
	lifecycleService := session.NewLifecycleService(sessionRepo, documentRepo, topicRepo, chatRepo, txManager, planner, chunker, runner, logger)
	documentService := document.NewDocumentService(sessionRepo, documentRepo, objectStorage, extractor, policy, tracker, logger)

	sessionHandler := handler.NewSessionHandler(sessionService, logger)
	documentHandler := handler.NewDocumentHandler(documentService, logger)
	planHandler := handler.NewPlanHandler(lifecycleService, sse.DefaultConfig(), logger)
	sseHandler := handler.NewSSEHandler(lifecycleService, sse.DefaultConfig(), logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Session routes
	mux.HandleFunc("GET /api/sessions", sessionHandler.ListSessions)
	mux.HandleFunc("POST /api/sessions", sessionHandler.CreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", sessionHandler.GetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", sessionHandler.DeleteSession)
	mux.HandleFunc("GET /api/sessions/{id}/topics", sessionHandler.ListTopics)
	mux.HandleFunc("GET /api/sessions/{id}/chats", sessionHandler.ListChats)
	mux.HandleFunc("GET /api/sessions/{id}/chunks", sessionHandler.ListChunks)

	// Document routes
	mux.HandleFunc("POST /api/sessions/{id}/documents", documentHandler.UploadDocument)
	mux.HandleFunc("GET /api/sessions/{id}/documents", documentHandler.ListDocuments)
	mux.HandleFunc("DELETE /api/sessions/{id}/documents/{docId}", documentHandler.DeleteDocument)
	mux.HandleFunc("GET /api/documents/{id}/url", documentHandler.GetDocumentURL)

	// Plan routes
	mux.HandleFunc("POST /api/sessions/{id}/plan/generate", planHandler.GeneratePlan) // SSE
	mux.HandleFunc("POST /api/sessions/{id}/plan/revise", planHandler.RevisePlan)
	mux.HandleFunc("PUT /api/sessions/{id}/plan", planHandler.UpdatePlan)
	mux.HandleFunc("POST /api/sessions/{id}/plan/undo", planHandler.UndoPlan)
	mux.HandleFunc("PATCH /api/sessions/{id}/plan/topics/{orderIndex}", planHandler.SetTopicCompletion)
	mux.HandleFunc("POST /api/sessions/{id}/plan/finalize", planHandler.FinalizePlan)

	// Chunking
	mux.HandleFunc("POST /api/sessions/{id}/chunking", planHandler.StartChunking) // SSE

	// Reattach to a running or recently finished run (kind: plan | chunking)
	mux.HandleFunc("GET /api/sessions/{id}/runs/{kind}/stream", sseHandler.StreamRun) // SSE

	// Build middleware chain
	// Order: CORS → Recovery → Auth → Routes
	var h http.Handler = mux
	h = middleware.AuthMiddleware(jwtVerifier)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  5 * time.Minute, // Large PDF uploads
		WriteTimeout: 0,               // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", "error", err)
		}
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}

	// Background extraction, plan generation and chunking outlive their
	// requests; give them the rest of the timeout to settle statuses.
	if err := runner.Wait(shutdownCtx); err != nil {
		active := runner.Active()
		logger.Warn("streams still running at shutdown, cancelling",
			"streams", strings.Join(active, ","),
			"error", err,
		)
		for _, key := range active {
			runner.Cancel(key)
		}
	}
	if err := tracker.Wait(shutdownCtx); err != nil {
		logger.Warn("background jobs still running at shutdown",
			"jobs", strings.Join(tracker.Keys(), ","),
			"error", err,
		)
	}

	logger.Info("server stopped")
}
