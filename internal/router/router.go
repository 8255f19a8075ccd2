package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pathwise/compass-backend/internal/config"
	"github.com/pathwise/compass-backend/internal/handler"
	"github.com/pathwise/compass-backend/internal/middleware"
	"github.com/pathwise/compass-backend/internal/response"
	"github.com/pathwise/compass-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Assessment *handler.AssessmentHandler
	WS         *handler.WSHandler
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

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireStudentJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireStudentJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Assessment Group (JWT + Single Device) ─────────────────────
	assessment := router.Group("/api/v1/assessment")
	assessment.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		assessment.GET("/eligibility", handlers.Assessment.Eligibility)
		assessment.GET("/state", handlers.Assessment.State)
		assessment.POST("/grade", handlers.Assessment.SelectGrade)
		assessment.POST("/category", handlers.Assessment.SelectCategory)
		assessment.POST("/section/start", handlers.Assessment.StartSection)
		assessment.POST("/section/retry", handlers.Assessment.RetrySection)
		assessment.POST("/section/next", handlers.Assessment.NextSection)
		assessment.POST("/answer", handlers.Assessment.Answer)
		assessment.POST("/next", handlers.Assessment.Next)
		assessment.POST("/previous", handlers.Assessment.Previous)
		assessment.POST("/submit", handlers.Assessment.Submit)
		assessment.POST("/abandon", handlers.Assessment.Abandon)
		assessment.GET("/results/latest", handlers.Assessment.GetLatestResult)
		assessment.GET("/results/:id", handlers.Assessment.GetResult)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/assessment/stream", handlers.WS.AssessmentStream)
	}

	return router
}
