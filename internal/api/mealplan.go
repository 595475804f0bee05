package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pantryplan/backend/internal/middleware"
	"github.com/pantryplan/backend/internal/service"
	"github.com/pantryplan/backend/internal/types"
)

// MealPlanner assembles meal plans for a requester.
type MealPlanner interface {
	GenerateMealPlan(ctx context.Context, req service.MealPlanRequest) (*types.MealPlan, error)
}

// MealPlanHandler exposes meal-plan generation over HTTP.
type MealPlanHandler struct {
	planner MealPlanner
	logger  *zap.Logger
}

// NewMealPlanHandler creates a new MealPlanHandler instance
func NewMealPlanHandler(planner MealPlanner, logger *zap.Logger) *MealPlanHandler {
	return &MealPlanHandler{planner: planner, logger: logger}
}

// RegisterRoutes mounts the meal-plan routes on the given group.
func (h *MealPlanHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc, limiter *middleware.RateLimiter) {
	plans := router.Group("/meal-plans")
	handlers := []gin.HandlerFunc{auth}
	if limiter != nil {
		handlers = append(handlers, limiter.Middleware())
	}
	handlers = append(handlers, h.GeneratePlan)
	plans.POST("", handlers...)
}

// GeneratePlan handles POST /api/v1/meal-plans.
func (h *MealPlanHandler) GeneratePlan(c *gin.Context) {
	var req types.GenerateMealPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	startDate := time.Now().Truncate(24 * time.Hour)
	if req.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
			return
		}
		startDate = parsed
	}

	plan, err := h.planner.GenerateMealPlan(c.Request.Context(), service.MealPlanRequest{
		UserID:      userID.(uuid.UUID),
		Count:       req.Count,
		StartDate:   startDate,
		Preferences: req.Preferences,
		Inventory:   req.Inventory,
	})
	if err != nil {
		if errors.Is(err, service.ErrGenerationFailed) {
			h.logger.Error("plan generation failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "recipe generation is temporarily unavailable, please retry"})
			return
		}
		h.logger.Error("meal plan request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate meal plan"})
		return
	}

	c.JSON(http.StatusOK, plan)
}
