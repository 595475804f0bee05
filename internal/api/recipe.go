package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pantryplan/backend/internal/model"
	"github.com/pantryplan/backend/internal/types"
)

// RecipeProvider is the recipe persistence surface the handler needs.
type RecipeProvider interface {
	CreateRecipe(ctx context.Context, recipe *model.Recipe) (*model.Recipe, error)
	GetRecipe(ctx context.Context, id uuid.UUID) (*model.Recipe, error)
	ListRecipes(ctx context.Context, search string, limit int) ([]model.Recipe, error)
}

// RecipeHandler exposes corpus recipes over HTTP.
type RecipeHandler struct {
	recipes RecipeProvider
	logger  *zap.Logger
}

// NewRecipeHandler creates a new RecipeHandler instance
func NewRecipeHandler(recipes RecipeProvider, logger *zap.Logger) *RecipeHandler {
	return &RecipeHandler{recipes: recipes, logger: logger}
}

// RegisterRoutes mounts the recipe routes on the given group.
func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup, auth gin.HandlerFunc) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.GET("/:id", h.GetRecipe)
		recipes.POST("", auth, h.CreateRecipe)
	}
}

// ListRecipes handles GET /api/v1/recipes.
func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
			return
		}
		limit = parsed
	}

	recipes, err := h.recipes.ListRecipes(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		h.logger.Error("failed to list recipes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch recipes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

// GetRecipe handles GET /api/v1/recipes/:id.
func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	recipe, err := h.recipes.GetRecipe(c.Request.Context(), id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
			return
		}
		h.logger.Error("failed to get recipe", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch recipe"})
		return
	}

	c.JSON(http.StatusOK, recipe)
}

// CreateRecipe handles POST /api/v1/recipes.
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	recipe := &model.Recipe{
		Title:        req.Title,
		Description:  req.Description,
		Servings:     req.Servings,
		TotalMinutes: req.TotalMinutes,
		Cuisine:      req.Cuisine,
		Tags:         req.Tags,
		Source:       model.SourceManual,
		UserID:       userID.(uuid.UUID),
	}
	for _, ing := range req.Ingredients {
		recipe.Ingredients = append(recipe.Ingredients, model.Ingredient{
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
			Note:     ing.Note,
		})
	}
	for i, text := range req.Steps {
		recipe.Steps = append(recipe.Steps, model.Step{Number: i + 1, Text: text})
	}

	created, err := h.recipes.CreateRecipe(c.Request.Context(), recipe)
	if err != nil {
		h.logger.Error("failed to create recipe", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create recipe"})
		return
	}

	c.JSON(http.StatusCreated, created)
}
