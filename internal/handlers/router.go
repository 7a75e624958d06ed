package handlers

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/coachingcourse/course-service/internal/services"
	"github.com/coachingcourse/course-service/internal/utils"
)

type HandlerManager struct {
	auth                *AuthMiddleware
	authHandler         *AuthHandler
	catalogHandler      *CatalogHandler
	quizHandler         *QuizHandler
	progressHandler     *ProgressHandler
	subscriptionHandler *SubscriptionHandler
	adminHandler        *AdminHandler
	healthHandler       *HealthHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	healthHandler *HealthHandler,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		auth:                NewAuthMiddleware(serviceManager.Auth(), logger),
		authHandler:         NewAuthHandler(serviceManager.Auth(), logger),
		catalogHandler:      NewCatalogHandler(serviceManager.Catalog(), logger),
		quizHandler:         NewQuizHandler(serviceManager.Quiz(), logger),
		progressHandler:     NewProgressHandler(serviceManager.Progress(), logger),
		subscriptionHandler: NewSubscriptionHandler(serviceManager.Subscription(), logger),
		adminHandler:        NewAdminHandler(serviceManager.Admin(), serviceManager.Subscription(), serviceManager.Export(), logger),
		healthHandler:       healthHandler,
	}
}

// NewRouter builds the gin engine with the shared middleware stack
func NewRouter(logger utils.Logger, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ContextLogger(logger))
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(cors.New(corsConfig(allowedOrigins)))
	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	config := cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", utils.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", utils.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	// credentials cannot be combined with a wildcard origin
	if len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
		config.AllowOrigins = nil
		config.AllowAllOrigins = true
		config.AllowCredentials = false
	}
	return config
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	if hm.healthHandler != nil {
		router.GET("/health", hm.healthHandler.Health)
	}

	authenticated := hm.auth.Authenticate()
	adminOnly := hm.auth.RequireAdmin()

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", hm.authHandler.Register)
			authRoutes.POST("/login", hm.authHandler.Login)
			authRoutes.GET("/user", authenticated, hm.authHandler.CurrentUser)
			authRoutes.POST("/logout", authenticated, hm.authHandler.Logout)
		}

		courses := api.Group("/courses")
		{
			courses.GET("", hm.catalogHandler.ListCourses)
			courses.GET("/:id", hm.catalogHandler.GetCourse)
			courses.POST("", authenticated, adminOnly, hm.catalogHandler.CreateCourse)
			courses.PUT("/:id", authenticated, adminOnly, hm.catalogHandler.UpdateCourse)
			courses.DELETE("/:id", authenticated, adminOnly, hm.catalogHandler.DeleteCourse)
		}

		modules := api.Group("/modules")
		{
			modules.GET("", hm.catalogHandler.ListModules)
			modules.GET("/:id", hm.catalogHandler.GetModule)
			modules.POST("", authenticated, adminOnly, hm.catalogHandler.CreateModule)
			modules.PUT("/:id", authenticated, adminOnly, hm.catalogHandler.UpdateModule)
			modules.DELETE("/:id", authenticated, adminOnly, hm.catalogHandler.DeleteModule)
		}

		sections := api.Group("/sections")
		{
			sections.GET("", hm.catalogHandler.ListSections)
			sections.GET("/:id", hm.catalogHandler.GetSection)
			sections.POST("", authenticated, adminOnly, hm.catalogHandler.CreateSection)
			sections.PUT("/:id", authenticated, adminOnly, hm.catalogHandler.UpdateSection)
			sections.DELETE("/:id", authenticated, adminOnly, hm.catalogHandler.DeleteSection)
		}

		quizzes := api.Group("/quizzes", authenticated)
		{
			quizzes.GET("", adminOnly, hm.quizHandler.ListQuizzes)
			quizzes.GET("/:id", hm.quizHandler.GetQuiz)
			quizzes.POST("", adminOnly, hm.quizHandler.CreateQuiz)
			quizzes.PUT("/:id", adminOnly, hm.quizHandler.UpdateQuiz)
			quizzes.DELETE("/:id", adminOnly, hm.quizHandler.DeleteQuiz)
			quizzes.POST("/:id/submit", hm.quizHandler.SubmitQuiz)
			quizzes.GET("/results/user/:userId", hm.quizHandler.ListUserResults)
		}

		progress := api.Group("/progress", authenticated)
		{
			progress.POST("", hm.progressHandler.RecordProgress)
			progress.GET("/user/:userId", hm.progressHandler.ListUserProgress)
			progress.GET("/user/:userId/module/:moduleId", hm.progressHandler.ListUserModuleProgress)
			progress.DELETE("/user/:userId", adminOnly, hm.progressHandler.ResetUserProgress)
		}

		subscriptions := api.Group("/subscriptions", authenticated)
		{
			subscriptions.GET("/me", hm.subscriptionHandler.ListMine)
			subscriptions.POST("", hm.subscriptionHandler.CreateSubscription)
			subscriptions.PUT("/:id/cancel", hm.subscriptionHandler.CancelSubscription)
			subscriptions.PUT("/:id/renew", hm.subscriptionHandler.RenewSubscription)
			subscriptions.GET("/access/:level", hm.subscriptionHandler.CheckAccess)
		}

		admin := api.Group("/admin", authenticated, adminOnly)
		{
			admin.GET("/users", hm.adminHandler.ListUsers)
			admin.GET("/users/:id", hm.adminHandler.GetUser)
			admin.PUT("/users/:id", hm.adminHandler.UpdateUser)
			admin.DELETE("/users/:id", hm.adminHandler.DeleteUser)
			admin.GET("/subscriptions", hm.adminHandler.ListSubscriptions)
			admin.GET("/stats", hm.adminHandler.Stats)
			admin.GET("/exports/quiz-results", hm.adminHandler.ExportQuizResults)
			admin.GET("/exports/users", hm.adminHandler.ExportUsers)
		}
	}
}
