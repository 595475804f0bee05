// Package server wires the HTTP surface together and owns its lifecycle.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pantryplan/backend/config"
	"github.com/pantryplan/backend/internal/api"
	"github.com/pantryplan/backend/internal/middleware"
	"github.com/pantryplan/backend/internal/service"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	logger *zap.Logger
}

// New builds the service graph and the router.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, logger *zap.Logger) (*Server, error) {
	embedder := service.NewEmbeddingService(cfg.Embedding, redisClient, logger)
	searcher := service.NewSearchService(db, logger)
	recipes := service.NewRecipeService(db, embedder, logger)
	usage := service.NewUsageService(db)

	llm, err := service.NewLLMService(cfg.LLM, logger)
	if err != nil {
		return nil, err
	}

	planner := service.NewMealPlanService(searcher, embedder, llm, usage, recipes, logger)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := middleware.Auth(cfg.Auth.JWTSecret)
	limiter := middleware.NewPlanGenerationRateLimiter(redisClient)

	v1 := router.Group("/api/v1")
	api.NewRecipeHandler(recipes, logger).RegisterRoutes(v1, auth)
	api.NewMealPlanHandler(planner, logger).RegisterRoutes(v1, auth, limiter)

	return &Server{
		router: router,
		http: &http.Server{
			Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
			Handler: router,
		},
		logger: logger,
	}, nil
}

// Start begins serving requests and blocks until the listener stops.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
