package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pantryplan/backend/internal/model"
)

// UsageService is the append-only log of recipes served to users.
type UsageService struct {
	db *gorm.DB
}

// NewUsageService creates a new UsageService instance
func NewUsageService(db *gorm.DB) *UsageService {
	return &UsageService{db: db}
}

// RecordUsage appends one usage row per recipe for the given user.
func (s *UsageService) RecordUsage(ctx context.Context, userID uuid.UUID, recipeIDs []uuid.UUID) error {
	if len(recipeIDs) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]model.RecipeUsage, 0, len(recipeIDs))
	for _, recipeID := range recipeIDs {
		rows = append(rows, model.RecipeUsage{
			UserID:   userID,
			RecipeID: recipeID,
			UsedAt:   now,
		})
	}

	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to record recipe usage: %w", err)
	}
	return nil
}

// RecentlyUsed returns the distinct recipe ids served to the user within
// the last days.
func (s *UsageService) RecentlyUsed(ctx context.Context, userID uuid.UUID, days int) ([]uuid.UUID, error) {
	since := time.Now().AddDate(0, 0, -days)

	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&model.RecipeUsage{}).
		Where("user_id = ? AND used_at >= ?", userID, since).
		Distinct("recipe_id").
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent usage: %w", err)
	}
	return ids, nil
}
