package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pantryplan/backend/internal/model"
)

// EmbeddingModelVersion is stamped onto recipes whose embedding was computed
// with the current model, so stale vectors can be found and recomputed after
// a model upgrade.
const EmbeddingModelVersion = 1

// RecipeService handles recipe persistence and retrieval
type RecipeService struct {
	db       *gorm.DB
	embedder Embedder
	logger   *zap.Logger
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, embedder Embedder, logger *zap.Logger) *RecipeService {
	return &RecipeService{db: db, embedder: embedder, logger: logger}
}

// CreateRecipe persists a new recipe and attaches its embedding. Embedding
// failures are not fatal: the recipe is stored without a vector and picked
// up later by the backfill pass.
func (s *RecipeService) CreateRecipe(ctx context.Context, recipe *model.Recipe) (*model.Recipe, error) {
	vec, err := s.embedder.EmbedRecipe(ctx, recipe)
	if err != nil {
		s.logger.Warn("embedding failed, storing recipe without vector",
			zap.String("title", recipe.Title),
			zap.Error(err))
	} else {
		v := pgvector.NewVector(vec)
		version := EmbeddingModelVersion
		recipe.Embedding = &v
		recipe.EmbedVersion = &version
	}

	if err := s.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return nil, err
	}
	return recipe, nil
}

// CreateRecipes persists a batch of recipes without embeddings. Used when a
// finalized plan stores its generated recipes; vectors are backfilled
// asynchronously.
func (s *RecipeService) CreateRecipes(ctx context.Context, recipes []*model.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Create(recipes).Error
}

// GetRecipe retrieves a recipe by ID
func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// ListRecipes lists recipes, optionally ranked against a free-text query.
// On Postgres the query is embedded and recipes are ordered by vector
// distance; elsewhere it degrades to keyword matching.
func (s *RecipeService) ListRecipes(ctx context.Context, search string, limit int) ([]model.Recipe, error) {
	query := s.db.WithContext(ctx).Model(&model.Recipe{})

	if search = strings.TrimSpace(search); search != "" {
		if s.db.Dialector.Name() == "postgres" {
			vec, err := s.embedder.Embed(ctx, search)
			if err != nil {
				return nil, err
			}
			pv := pgvector.NewVector(vec)
			query = query.Where("embedding IS NOT NULL").Clauses(clause.OrderBy{
				Expression: clause.Expr{SQL: "embedding <=> ?", Vars: []interface{}{pv}},
			})
		} else {
			like := "%" + strings.ToLower(search) + "%"
			query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
		}
	}

	if limit > 0 {
		query = query.Limit(limit)
	}

	var recipes []model.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// BackfillEmbeddings computes and stores vectors for recipes that have none
// or whose embedding predates the current model version. Returns the number
// of recipes updated.
func (s *RecipeService) BackfillEmbeddings(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 50
	}

	var recipes []model.Recipe
	err := s.db.WithContext(ctx).
		Where("embedding IS NULL OR embedding_version IS NULL OR embedding_version < ?", EmbeddingModelVersion).
		Limit(batchSize).
		Find(&recipes).Error
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range recipes {
		vec, err := s.embedder.EmbedRecipe(ctx, &recipes[i])
		if err != nil {
			s.logger.Warn("embedding backfill failed for recipe",
				zap.String("recipe_id", recipes[i].ID.String()),
				zap.Error(err))
			continue
		}
		pv := pgvector.NewVector(vec)
		version := EmbeddingModelVersion
		err = s.db.WithContext(ctx).Model(&model.Recipe{}).
			Where("id = ?", recipes[i].ID).
			Updates(map[string]interface{}{"embedding": &pv, "embedding_version": version}).Error
		if err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}
