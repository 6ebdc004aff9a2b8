package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/genaiplatform/backend/internal/api/handlers"
	"github.com/genaiplatform/backend/internal/api/middleware"
	"github.com/genaiplatform/backend/internal/auth"
	"github.com/genaiplatform/backend/internal/config"
	"github.com/genaiplatform/backend/internal/health"
	"github.com/genaiplatform/backend/internal/logger"
	"github.com/genaiplatform/backend/internal/services"
	"github.com/genaiplatform/backend/internal/websocket"
)

type Server struct {
	router   *gin.Engine
	config   *config.Config
	services *services.Container
	wsHub    *websocket.Hub
}

func NewServer(cfg *config.Config, db *gorm.DB, rdb *redis.Client, wsHub *websocket.Hub) *Server {
	svc := services.NewContainer(cfg, db, rdb, wsHub)

	router := gin.New()
	router.Use(logger.GinMiddleware())
	router.Use(logger.GinRecovery())

	server := &Server{
		router:   router,
		config:   cfg,
		services: svc,
		wsHub:    wsHub,
	}

	server.setupRoutes(db, rdb)
	return server
}

// Services exposes the container, mainly for the scheduler.
func (s *Server) Services() *services.Container {
	return s.services
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes(db *gorm.DB, rdb *redis.Client) {
	s.router.Use(middleware.CORS(s.config.CORSOrigin))

	checker := health.NewChecker(db, rdb)
	s.router.GET("/health/live", checker.Live)
	s.router.GET("/health/ready", checker.Ready)

	// websocket endpoint, token-authenticated via query parameter
	s.router.GET("/ws", func(c *gin.Context) {
		s.wsHub.ServeWS(c.Writer, c.Request, func(token string) (string, error) {
			claims, err := s.services.Auth.ValidateAccessToken(token)
			if err != nil {
				return "", err
			}
			return claims.UserID, nil
		})
	})

	v1 := s.router.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(s.services)
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh", authHandler.Refresh)
			authRoutes.POST("/logout", authHandler.Logout)
		}

		// gateway notifications and browser returns arrive unauthenticated
		paymentHandler := handlers.NewPaymentHandler(s.services)
		v1.POST("/payments/webhook", paymentHandler.Webhook)
		v1.GET("/payments/return/:outcome", paymentHandler.Return)

		protected := v1.Group("")
		protected.Use(s.services.Auth.Middleware())
		{
			protected.GET("/me", authHandler.Me)

			profileHandler := handlers.NewProfileHandler(s.services)
			protected.GET("/me/profile", profileHandler.Get)
			protected.PUT("/me/profile", profileHandler.Update)

			planHandler := handlers.NewPlanHandler(s.services)
			protected.GET("/plans", planHandler.List)

			payments := protected.Group("/payments")
			{
				payments.POST("/checkout", paymentHandler.Checkout)
				payments.GET("", paymentHandler.List)
				payments.GET("/:id", paymentHandler.Get)
			}

			aiHandler := handlers.NewAIHandler(s.services)
			ai := protected.Group("/ai")
			ai.Use(s.services.RateLimiter.Middleware(30, time.Minute))
			{
				ai.GET("/services", aiHandler.Services)
				ai.POST("/ask", aiHandler.Ask)
				ai.GET("/interactions", aiHandler.History)
				ai.GET("/interactions/:id", aiHandler.Get)
			}

			agentHandler := handlers.NewAgentHandler(s.services)
			agents := protected.Group("/agents")
			{
				agents.GET("", agentHandler.ListOwn)
				agents.POST("", agentHandler.Create)
				agents.GET("/public", agentHandler.ListPublic)
				agents.GET("/:id", agentHandler.Get)
				agents.PUT("/:id", agentHandler.Update)
				agents.DELETE("/:id", agentHandler.Delete)
				agents.POST("/:id/interact", s.services.RateLimiter.Middleware(30, time.Minute), agentHandler.Interact)
			}

			dashboardHandler := handlers.NewDashboardHandler(s.services)
			protected.GET("/dashboard", dashboardHandler.Stats)

			adminHandler := handlers.NewAdminHandler(s.services)
			admin := protected.Group("/admin")
			admin.Use(auth.RequireAdmin())
			{
				admin.GET("/stats", adminHandler.Stats)
				admin.GET("/plans", adminHandler.ListPlans)
				admin.POST("/plans", adminHandler.CreatePlan)
				admin.PUT("/plans/:id", adminHandler.UpdatePlan)
				admin.DELETE("/plans/:id", adminHandler.DeletePlan)
				admin.GET("/services", adminHandler.ListServices)
				admin.POST("/services", adminHandler.CreateService)
				admin.PUT("/services/:id", adminHandler.UpdateService)
			}
		}
	}
}
