package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"neurohire/pipeline/internal/config"
	"neurohire/pipeline/internal/decisions"
	"neurohire/pipeline/internal/events"
	"neurohire/pipeline/internal/handlers"
	"neurohire/pipeline/internal/jobs"
	"neurohire/pipeline/internal/metrics"
	"neurohire/pipeline/internal/models"
	"neurohire/pipeline/internal/orchestrator"
	"neurohire/pipeline/internal/registry"
	"neurohire/pipeline/internal/repositories"
	"neurohire/pipeline/internal/routers"
	"neurohire/pipeline/internal/scorers"
	_ "neurohire/pipeline/internal/scorers/gemini"
	_ "neurohire/pipeline/internal/scorers/resumeapi"
	_ "neurohire/pipeline/internal/scorers/videoapi"
	"neurohire/pipeline/internal/scoring"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func registerRoutes(
	router *chi.Mux,
	applicationHandler *handlers.ApplicationHandler,
	assessmentHandler *handlers.AssessmentHandler,
	decisionHandler *handlers.DecisionHandler,
	jobHandler *handlers.JobHandler,
	healthHandler *handlers.HealthHandler,
) {
	routers.HealthRoutes(router, healthHandler)
	routers.PipelineRoutes(router, applicationHandler, assessmentHandler, decisionHandler, jobHandler)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// initDatabase initializes the PostgreSQL database connection
func initDatabase() (*gorm.DB, error) {
	host := getEnv("POSTGRES_HOST", "localhost")
	user := getEnv("POSTGRES_USER", "postgres")
	password := getEnv("POSTGRES_PASSWORD", "postgres")
	dbname := getEnv("POSTGRES_DB", "neurohire")
	port := getEnv("POSTGRES_PORT", "5432")
	sslmode := getEnv("POSTGRES_SSLMODE", "disable")

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, user, password, dbname, port, sslmode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Job{},
		&models.JobQuestion{},
		&models.Application{},
		&models.ResumeAnalysis{},
		&models.VideoSubmission{},
		&models.AggregateAssessment{},
		&models.Decision{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Configuration loaded",
		zap.String("resume_scorer", cfg.ResumeScorerProvider),
		zap.String("video_scorer", cfg.VideoScorerProvider),
		zap.Int("score_max_attempts", cfg.ScoreMaxAttempts),
		zap.Duration("scorer_timeout", cfg.ScorerTimeout))

	db, err := initDatabase()
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	resumeScorer, err := scorers.NewResumeScorer(cfg.ResumeScorerProvider)
	if err != nil {
		logger.Fatal("Failed to initialize resume scorer", zap.Error(err))
	}
	videoScorer, err := scorers.NewVideoScorer(cfg.VideoScorerProvider)
	if err != nil {
		logger.Fatal("Failed to initialize video scorer", zap.Error(err))
	}

	appRepo := &repositories.ApplicationRepository{DB: db}
	jobRepo := &repositories.JobRepository{DB: db}
	analysisRepo := &repositories.AnalysisRepository{DB: db}
	decisionRepo := &repositories.DecisionRepository{DB: db}

	aggregator := scoring.NewAggregator(db)
	progressEstimator := scoring.NewProgressEstimator(db)

	// Progress push channel; the poll endpoint stays the fallback.
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	publisher := events.NewProgressPublisher(rdb, logger)

	orch := orchestrator.New(
		logger,
		appRepo,
		jobRepo,
		analysisRepo,
		resumeScorer,
		videoScorer,
		aggregator,
		progressEstimator,
		publisher,
		orchestrator.Config{
			MaxAttempts: cfg.ScoreMaxAttempts,
			RetryDelay:  cfg.ScoreRetryDelay,
			Timeout:     cfg.ScorerTimeout,
		},
	)

	artifactRegistry := registry.New(appRepo, analysisRepo, decisionRepo, orch)
	recorder := decisions.NewRecorder(db)

	sweeper := jobs.NewStageSweeper(appRepo, analysisRepo, orch, &jobs.SweeperConfig{
		Schedule:       cfg.SweepSchedule,
		StaleFor:       cfg.SweepStaleFor,
		AnswerDeadline: cfg.AnswerDeadline,
	}, logger)
	if err := sweeper.Start(); err != nil {
		logger.Error("Failed to start stage sweeper", zap.Error(err))
	}

	applicationHandler := handlers.NewApplicationHandler(appRepo, artifactRegistry, logger)
	assessmentHandler := handlers.NewAssessmentHandler(progressEstimator, aggregator, analysisRepo, decisionRepo, logger)
	decisionHandler := handlers.NewDecisionHandler(recorder, cfg.JWTSecret, logger)
	jobHandler := handlers.NewJobHandler(jobRepo, logger)
	healthHandler := handlers.NewHealthHandler(db, resumeScorer, videoScorer, cfg)

	router := chi.NewRouter()

	// cors middleware
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{getEnv("FRONTEND_ORIGIN", "http://localhost:5173")},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	router.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Logger, chimiddleware.Recoverer, chimiddleware.Timeout(60*time.Second))
	router.Use(metrics.Middleware("pipeline"))

	registerRoutes(router, applicationHandler, assessmentHandler, decisionHandler, jobHandler, healthHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	serverAddr := ":" + port

	// http server with timeouts
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// starting server in a goroutine
	go func() {
		logger.Info("Scoring pipeline starting", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shutdown the server
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("Scoring pipeline shutting down...")

	sweeper.Stop()

	// let in-flight stage work persist its results
	orch.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("Scoring pipeline exited")
}
