package router

import (
	"net/http"
	"time"

	"github.com/courseloom/courseloom-backend/internal/config"
	"github.com/courseloom/courseloom-backend/internal/handler"
	"github.com/courseloom/courseloom-backend/internal/middleware"
	"github.com/courseloom/courseloom-backend/internal/model"
	"github.com/courseloom/courseloom-backend/internal/response"
	"github.com/courseloom/courseloom-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth         *handler.AuthHandler
	Course       *handler.CourseHandler
	Lesson       *handler.LessonHandler
	Quiz         *handler.QuizHandler
	Enrollment   *handler.EnrollmentHandler
	Payment      *handler.PaymentHandler
	Payout       *handler.PayoutHandler
	Notification *handler.NotificationHandler
	WS           *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true // refresh cookie
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/refresh", handlers.Auth.Refresh)
		auth.POST("/logout", handlers.Auth.Logout)

		// Authenticated profile routes
		auth.GET("/me", middleware.RequireAuth(authService), handlers.Auth.Me)
		auth.PUT("/me", middleware.RequireAuth(authService), handlers.Auth.UpdateProfile)
		auth.PUT("/me/password", middleware.RequireAuth(authService), handlers.Auth.ChangePassword)
	}

	// ─── 2. Catalog Group (Public reads, authenticated writes) ─────────
	courses := router.Group("/api/v1/courses")
	{
		courses.GET("", handlers.Course.ListCourses)

		// Optional auth: owners and admins can see their unpublished courses.
		courses.GET("/:course_id", optionalAuth(authService), handlers.Course.GetCourse)

		authed := courses.Group("")
		authed.Use(middleware.RequireAuth(authService))
		{
			authed.GET("/:course_id/lessons", handlers.Course.ListCourseLessons)
			authed.GET("/:course_id/quizzes", handlers.Course.ListCourseQuizzes)
			authed.POST("/:course_id/enroll",
				middleware.RequireRole(model.RoleStudent),
				handlers.Enrollment.Enroll,
			)
		}
	}

	// ─── 3. Student Group ──────────────────────────────────────────────
	studentAPI := router.Group("/api/v1")
	studentAPI.Use(middleware.RequireAuth(authService))
	{
		studentAPI.GET("/lessons/:lesson_id", handlers.Lesson.GetLesson)
		studentAPI.POST("/lessons/:lesson_id/complete",
			middleware.RequireRole(model.RoleStudent),
			handlers.Enrollment.CompleteLesson,
		)

		studentAPI.GET("/enrollments",
			middleware.RequireRole(model.RoleStudent),
			handlers.Enrollment.ListOwnEnrollments,
		)

		studentAPI.GET("/quizzes/:quiz_id", handlers.Quiz.GetQuiz)
		studentAPI.GET("/quizzes/:quiz_id/questions",
			middleware.RequireRole(model.RoleStudent),
			handlers.Quiz.GetQuizQuestions,
		)
		studentAPI.POST("/quizzes/:quiz_id/submit",
			middleware.RequireRole(model.RoleStudent),
			handlers.Quiz.SubmitQuiz,
		)
		studentAPI.GET("/quizzes/:quiz_id/result",
			middleware.RequireRole(model.RoleStudent),
			handlers.Quiz.GetQuizResult,
		)
		studentAPI.GET("/quizzes/:quiz_id/status",
			middleware.RequireRole(model.RoleStudent),
			handlers.Quiz.GetQuizStatus,
		)

		studentAPI.GET("/payments",
			middleware.RequireRole(model.RoleStudent),
			handlers.Payment.ListOwnPayments,
		)
		studentAPI.POST("/payments",
			middleware.RequireRole(model.RoleStudent),
			handlers.Payment.CreatePayment,
		)
		studentAPI.POST("/payments/:payment_id/complete",
			middleware.RequireRole(model.RoleStudent, model.RoleAdmin),
			handlers.Payment.CompletePayment,
		)

		studentAPI.GET("/notifications", handlers.Notification.ListNotifications)
		studentAPI.POST("/notifications/read-all", handlers.Notification.MarkAllNotificationsRead)
		studentAPI.POST("/notifications/:notification_id/read", handlers.Notification.MarkNotificationRead)
	}

	// ─── 4. Instructor Group ───────────────────────────────────────────
	instructorAPI := router.Group("/api/v1/instructor")
	instructorAPI.Use(
		middleware.RequireAuth(authService),
		middleware.RequireRole(model.RoleInstructor, model.RoleAdmin),
	)
	{
		instructorAPI.GET("/courses", handlers.Course.ListOwnCourses)
		instructorAPI.POST("/courses", handlers.Course.CreateCourse)
		instructorAPI.PUT("/courses/:course_id", handlers.Course.UpdateCourse)
		instructorAPI.DELETE("/courses/:course_id", handlers.Course.DeleteCourse)
		instructorAPI.GET("/courses/:course_id/enrollments", handlers.Enrollment.ListCourseEnrollments)

		instructorAPI.POST("/courses/:course_id/lessons", handlers.Lesson.CreateLesson)
		instructorAPI.PUT("/lessons/:lesson_id", handlers.Lesson.UpdateLesson)
		instructorAPI.DELETE("/lessons/:lesson_id", handlers.Lesson.DeleteLesson)

		instructorAPI.POST("/courses/:course_id/quizzes", handlers.Quiz.CreateQuiz)
		instructorAPI.PUT("/quizzes/:quiz_id", handlers.Quiz.UpdateQuiz)
		instructorAPI.DELETE("/quizzes/:quiz_id", handlers.Quiz.DeleteQuiz)
		instructorAPI.POST("/quizzes/:quiz_id/questions", handlers.Quiz.AddQuestion)
		instructorAPI.PUT("/quizzes/:quiz_id/questions", handlers.Quiz.ReplaceQuestions)

		instructorAPI.GET("/payouts", handlers.Payout.ListOwnPayouts)
		instructorAPI.POST("/payouts", handlers.Payout.RequestPayout)
		instructorAPI.GET("/payouts/balance", handlers.Payout.GetBalance)
	}

	// ─── 5. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/notifications", handlers.WS.NotificationStream)
	}

	// ─── 6. Admin Group ────────────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(
		middleware.RequireAuth(authService),
		middleware.RequireRole(model.RoleAdmin),
	)
	{
		adminAPI.GET("/payouts", handlers.Payout.ListAllPayouts)
		adminAPI.GET("/payouts/export", handlers.Payout.ExportPayoutsCSV)
		adminAPI.PUT("/payouts/:payout_id/status", handlers.Payout.UpdatePayoutStatus)
	}

	return router
}

// optionalAuth attaches claims when a valid bearer token is present but
// never rejects the request. Anonymous callers proceed with no actor.
func optionalAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		const prefix = "Bearer "
		if len(authHeader) > len(prefix) {
			if claims, err := authService.ValidateAccessToken(authHeader[len(prefix):]); err == nil {
				c.Set(middleware.ContextKeyClaims, claims)
			}
		}
		c.Next()
	}
}
