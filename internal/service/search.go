package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pantryplan/backend/internal/model"
	"github.com/pantryplan/backend/internal/types"
)

// Placeholder similarities for the fallback tiers. No true similarity was
// computed for these candidates; the values only rank tag matches above
// random draws and must not be compared across tiers beyond that.
const (
	tagFallbackSimilarity    = 0.8
	randomFallbackSimilarity = 0.5
)

// SearchFilters narrows a similarity query. Recipes with a null duration
// always pass the time bound; recipes without an embedding are never
// returned by the vector tier.
type SearchFilters struct {
	MaxMinutes int
	ExcludeIDs []uuid.UUID
}

// SearchService is the query layer over the recipe corpus: vector
// similarity, tag-keyword fallback and uniform random fallback.
type SearchService struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSearchService creates a new SearchService instance
func NewSearchService(db *gorm.DB, logger *zap.Logger) *SearchService {
	return &SearchService{db: db, logger: logger}
}

// candidateRow carries a recipe together with the computed similarity.
type candidateRow struct {
	model.Recipe `gorm:"embedded"`
	Similarity   float64
}

// QueryByVector returns up to limit candidates ordered by descending cosine
// similarity to the query vector. Exclusion sets are always parameterized,
// never interpolated, so arbitrarily large sets stay safe and plannable.
// An empty result is valid, not an error.
func (s *SearchService) QueryByVector(ctx context.Context, vector []float32, limit int, filters SearchFilters) ([]types.Candidate, error) {
	if limit <= 0 {
		return nil, nil
	}
	if s.db.Dialector.Name() != "postgres" {
		// Vector search needs pgvector; other dialects skip straight to the
		// fallback tiers.
		return nil, nil
	}

	vec := pgvector.NewVector(vector)
	query := s.db.WithContext(ctx).Model(&model.Recipe{}).
		Select("recipes.*, 1 - (embedding <=> ?) AS similarity", vec).
		Where("embedding IS NOT NULL")

	query = applyFilters(query, filters)

	var rows []candidateRow
	err := query.
		Clauses(clause.OrderBy{Expression: clause.Expr{SQL: "embedding <=> ?", Vars: []interface{}{vec}}}).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	candidates := make([]types.Candidate, 0, len(rows))
	for _, row := range rows {
		similarity := row.Similarity
		if similarity < 0 {
			similarity = 0
		} else if similarity > 1 {
			similarity = 1
		}
		candidates = append(candidates, types.Candidate{Recipe: row.Recipe, Similarity: similarity})
	}
	return candidates, nil
}

// SearchByCuisineTags is the secondary retrieval tier: a case-insensitive
// "contains any of the given cuisines" match against tag metadata, newest
// first. Candidates carry a fixed placeholder similarity.
func (s *SearchService) SearchByCuisineTags(ctx context.Context, cuisines []string, excludeIDs []uuid.UUID, limit int) ([]types.Candidate, error) {
	if limit <= 0 || len(cuisines) == 0 {
		return nil, nil
	}

	tagsColumn := "LOWER(tags)"
	if s.db.Dialector.Name() == "postgres" {
		tagsColumn = "LOWER(tags::text)"
	}

	query := s.db.WithContext(ctx).Model(&model.Recipe{})

	match := s.db.Session(&gorm.Session{NewDB: true})
	for _, cuisine := range cuisines {
		like := "%" + strings.ToLower(strings.TrimSpace(cuisine)) + "%"
		match = match.Or(tagsColumn+" LIKE ?", like).Or("LOWER(cuisine) LIKE ?", like)
	}
	query = query.Where(match)

	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}

	var recipes []model.Recipe
	if err := query.Order("created_at DESC").Limit(limit).Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("tag search failed: %w", err)
	}

	candidates := make([]types.Candidate, 0, len(recipes))
	for _, recipe := range recipes {
		candidates = append(candidates, types.Candidate{Recipe: recipe, Similarity: tagFallbackSimilarity})
	}
	return candidates, nil
}

// RandomSample is the last-resort retrieval tier: a uniform random draw
// from the corpus minus the exclusion set.
func (s *SearchService) RandomSample(ctx context.Context, count int, excludeIDs []uuid.UUID) ([]types.Candidate, error) {
	if count <= 0 {
		return nil, nil
	}

	query := s.db.WithContext(ctx).Model(&model.Recipe{})
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}

	var recipes []model.Recipe
	if err := query.Order("RANDOM()").Limit(count).Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("random sample failed: %w", err)
	}

	candidates := make([]types.Candidate, 0, len(recipes))
	for _, recipe := range recipes {
		candidates = append(candidates, types.Candidate{Recipe: recipe, Similarity: randomFallbackSimilarity})
	}
	return candidates, nil
}

// CountRecipes returns the corpus size.
func (s *SearchService) CountRecipes(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Recipe{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}

func applyFilters(query *gorm.DB, filters SearchFilters) *gorm.DB {
	if filters.MaxMinutes > 0 {
		query = query.Where("total_minutes IS NULL OR total_minutes <= ?", filters.MaxMinutes)
	}
	if len(filters.ExcludeIDs) > 0 {
		query = query.Where("id NOT IN ?", filters.ExcludeIDs)
	}
	return query
}
