package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pantryplan/backend/internal/model"
	"github.com/pantryplan/backend/internal/types"
)

// Embedder turns text into fixed-length dense vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedRecipe(ctx context.Context, recipe *model.Recipe) ([]float32, error)
	EmbedPreferences(ctx context.Context, bundle types.PreferenceBundle) ([]float32, error)
}

// Searcher is the corpus query layer: vector similarity plus the two
// fallback tiers.
type Searcher interface {
	QueryByVector(ctx context.Context, vector []float32, limit int, filters SearchFilters) ([]types.Candidate, error)
	SearchByCuisineTags(ctx context.Context, cuisines []string, excludeIDs []uuid.UUID, limit int) ([]types.Candidate, error)
	RandomSample(ctx context.Context, count int, excludeIDs []uuid.UUID) ([]types.Candidate, error)
	CountRecipes(ctx context.Context) (int64, error)
}

// Generator synthesizes recipes when retrieval cannot fill the quota.
type Generator interface {
	GenerateRecipes(ctx context.Context, bundle types.PreferenceBundle, inventory []string, count int, avoidTitles []string) ([]GeneratedRecipe, error)
}

// UsageLog records and reads back which recipes a user was recently served.
type UsageLog interface {
	RecordUsage(ctx context.Context, userID uuid.UUID, recipeIDs []uuid.UUID) error
	RecentlyUsed(ctx context.Context, userID uuid.UUID, days int) ([]uuid.UUID, error)
}

// RecipeStore persists recipes produced while finalizing a plan.
type RecipeStore interface {
	CreateRecipes(ctx context.Context, recipes []*model.Recipe) error
}
