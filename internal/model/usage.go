package model

import (
	"time"

	"github.com/google/uuid"
)

// RecipeUsage records that a recipe was served to a user in a finalized
// meal plan. Append-only; read back by recency window to keep recently
// served recipes out of the next plan.
type RecipeUsage struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	RecipeID uuid.UUID `gorm:"type:uuid;not null;index" json:"recipe_id"`
	UsedAt   time.Time `gorm:"not null;index" json:"used_at"`
}

func (RecipeUsage) TableName() string {
	return "recipe_usages"
}
