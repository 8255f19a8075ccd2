package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/pathwise/compass-backend/internal/adaptive"
	"github.com/pathwise/compass-backend/internal/config"
	"github.com/pathwise/compass-backend/internal/database"
	"github.com/pathwise/compass-backend/internal/handler"
	"github.com/pathwise/compass-backend/internal/logger"
	"github.com/pathwise/compass-backend/internal/repository"
	"github.com/pathwise/compass-backend/internal/router"
	"github.com/pathwise/compass-backend/internal/scoring"
	"github.com/pathwise/compass-backend/internal/service"
	"github.com/pathwise/compass-backend/internal/session"
	"github.com/pathwise/compass-backend/internal/validator"
	"github.com/pathwise/compass-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Compass Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	studentRepo := repository.NewStudentRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	courseRepo := repository.NewCourseRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	studentService := service.NewStudentService(studentRepo, authService, log)
	attemptService := service.NewAttemptService(attemptRepo, resultRepo, rdb, cfg, log)
	questionService := service.NewQuestionService(questionRepo, cfg, log)
	courseService := service.NewCourseService(courseRepo)

	scoringEngine := scoring.NewEngine(courseService, log)

	// ─── Initialize Session Manager ───────────────────────────────────
	manager := session.NewManager(session.ManagerConfig{
		Log:      log,
		Attempts: attemptService,
		Scorer:   scoringEngine,
		Sections: questionService,
		NewAdapter: func() adaptive.Adapter {
			return adaptive.NewClient(cfg.AdaptiveEngineURL, log)
		},
		AdaptiveSeconds:  cfg.AdaptiveQuestionSeconds,
		HeartbeatSeconds: cfg.HeartbeatSeconds,
		IdleTimeout:      cfg.SessionIdleTimeout,
	})

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(studentService),
		Assessment: handler.NewAssessmentHandler(manager, attemptService),
		WS:         handler.NewWSHandler(manager, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	progressWorker := worker.NewProgressWorker(attemptRepo, rdb, log)
	go progressWorker.Start(workerCtx)
	go manager.Run(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the ticker and worker, wait for the outbox to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
