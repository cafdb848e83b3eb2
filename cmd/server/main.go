package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/courseloom/courseloom-backend/internal/config"
	"github.com/courseloom/courseloom-backend/internal/database"
	"github.com/courseloom/courseloom-backend/internal/handler"
	"github.com/courseloom/courseloom-backend/internal/logger"
	"github.com/courseloom/courseloom-backend/internal/repository"
	"github.com/courseloom/courseloom-backend/internal/router"
	"github.com/courseloom/courseloom-backend/internal/service"
	"github.com/courseloom/courseloom-backend/internal/validator"
	"github.com/courseloom/courseloom-backend/internal/worker"
	"github.com/rs/zerolog"
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
		Msg("Starting CourseLoom Backend")

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
	accountRepo := repository.NewAccountRepository(pool)
	courseRepo := repository.NewCourseRepository(pool)
	lessonRepo := repository.NewLessonRepository(pool)
	quizRepo := repository.NewQuizRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	enrollmentRepo := repository.NewEnrollmentRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	payoutRepo := repository.NewPayoutRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, service.NewRedisRefreshStore(rdb))
	accountService := service.NewAccountService(accountRepo)
	notificationService := service.NewNotificationService(rdb, notificationRepo, log)
	courseService := service.NewCourseService(courseRepo)
	lessonService := service.NewLessonService(lessonRepo, courseService)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, lessonRepo, paymentRepo, courseService, notificationService)
	quizService := service.NewQuizService(quizRepo, questionRepo, attemptRepo, enrollmentService, courseService, notificationService)
	paymentService := service.NewPaymentService(paymentRepo, courseService, enrollmentService, notificationService)
	payoutService := service.NewPayoutService(payoutRepo, notificationService)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, authService, accountService, log),
		Course:       handler.NewCourseHandler(courseService, lessonService, quizService),
		Lesson:       handler.NewLessonHandler(lessonService),
		Quiz:         handler.NewQuizHandler(quizService),
		Enrollment:   handler.NewEnrollmentHandler(enrollmentService),
		Payment:      handler.NewPaymentHandler(paymentService),
		Payout:       handler.NewPayoutHandler(payoutService),
		Notification: handler.NewNotificationHandler(notificationService),
		WS:           handler.NewWSHandler(rdb, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	notificationWorker := worker.NewNotificationWorker(pool, rdb, log)
	go notificationWorker.Start(workerCtx)

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

	// 2. Stop the notification worker and wait for the queue to drain.
	workerCancel()
	time.Sleep(2 * time.Second)

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
